package loi

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// InsertionPlan is a complete transfer: the orbit, where it meets the target
// and when the spacecraft must be injected on it.
type InsertionPlan struct {
	Result           OptimizationResult `json:"result" yaml:"result"`
	Elements         OrbitalElements    `json:"elements" yaml:"elements"`
	Period           time.Duration      `json:"period" yaml:"period"`
	InjectionAnomaly float64            `json:"injectionAnomaly" yaml:"injectionAnomaly"` // degrees
	TimeOfFlight     time.Duration      `json:"timeOfFlight" yaml:"timeOfFlight"`
	InjectionEpoch   time.Time          `json:"injectionEpoch" yaml:"injectionEpoch"`
}

func (ip InsertionPlan) String() string {
	return fmt.Sprintf("inject at %s (ν=%.2f deg), %s of flight to reach the target at %s on %s",
		ip.InjectionEpoch.UTC().Format(time.RFC3339), ip.InjectionAnomaly, ip.TimeOfFlight, ip.Result.Epoch.UTC().Format(time.RFC3339), ip.Elements)
}

// PlanInsertion runs the multi-start search at epoch and derives when the
// spacecraft must be at the injection true anomaly (degrees, 0 is perigee) in
// order to reach the closest approach at epoch.
func (p *Planner) PlanInsertion(epoch time.Time, ω, i, injectionAnomaly float64) (InsertionPlan, error) {
	if math.IsNaN(injectionAnomaly) || math.IsInf(injectionAnomaly, 0) {
		return InsertionPlan{}, errors.Errorf("invalid injection anomaly %f", injectionAnomaly)
	}
	res, err := p.OptimizeTransferMultiStart(epoch, ω, i)
	if err != nil {
		return InsertionPlan{}, err
	}
	o := OrbitalElements{Inclination: i, RAAN: res.RAAN, ArgPeriapsis: ω, PerigeeAlt: p.mission.PerigeeAlt, ApogeeAlt: res.ApogeeAlt}
	period := OrbitalPeriod(o.PerigeeAlt, o.ApogeeAlt)
	νInj := WrapDegrees(injectionAnomaly)
	tof := TimeToTrueAnomaly(res.TrueAnomaly, o.PerigeeAlt, o.ApogeeAlt) - TimeToTrueAnomaly(νInj, o.PerigeeAlt, o.ApogeeAlt)
	if tof < 0 {
		tof += period
	}
	tofDur := secondsToDuration(tof)
	return InsertionPlan{
		Result:           res,
		Elements:         o,
		Period:           secondsToDuration(period),
		InjectionAnomaly: νInj,
		TimeOfFlight:     tofDur,
		InjectionEpoch:   epoch.Add(-tofDur),
	}, nil
}

// TrueAnomalyAt returns the true anomaly of the spacecraft at t, in degrees.
func (ip InsertionPlan) TrueAnomalyAt(t time.Time) float64 {
	// Seconds since the perigee passage preceding the injection.
	tp := t.Sub(ip.InjectionEpoch).Seconds() + TimeToTrueAnomaly(ip.InjectionAnomaly, ip.Elements.PerigeeAlt, ip.Elements.ApogeeAlt)
	return TrueAnomalyFromTime(tp, ip.Elements.PerigeeAlt, ip.Elements.ApogeeAlt)
}

// SpacecraftPositionAt returns the position of the spacecraft at t on the transfer orbit.
func (ip InsertionPlan) SpacecraftPositionAt(t time.Time) Position3 {
	return PositionAtTrueAnomaly(ip.TrueAnomalyAt(t), ip.Elements)
}
