package loi

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Approach is the closest point of an orbit to the target at a given epoch.
type Approach struct {
	DistanceKm  float64 `json:"distanceKm" yaml:"distanceKm"`
	TrueAnomaly float64 `json:"trueAnomaly" yaml:"trueAnomaly"` // degrees, within [0, 360)
}

// ApproachEvaluator measures how close a candidate transfer orbit passes to the
// target body.
type ApproachEvaluator struct {
	Ephemeris EphemerisProvider
	Profile   Profile
}

// NewApproachEvaluator returns a new evaluator.
func NewApproachEvaluator(eph EphemerisProvider, prof Profile) ApproachEvaluator {
	return ApproachEvaluator{Ephemeris: eph, Profile: prof}
}

// ClosestApproach returns the minimum distance between the orbit defined by the
// provided elements and the target's position at epoch, along with the true
// anomaly at which it occurs.
func (ev ApproachEvaluator) ClosestApproach(raan, apogeeAlt, perigeeAlt float64, epoch time.Time, ω, i float64) (Approach, error) {
	target, _, err := ev.Ephemeris.PositionAndVelocityAt(epoch)
	if err != nil {
		return Approach{}, errors.Wrapf(err, "closest approach at %s", epoch.UTC().Format(time.RFC3339))
	}
	o := OrbitalElements{Inclination: i, RAAN: raan, ArgPeriapsis: ω, PerigeeAlt: perigeeAlt, ApogeeAlt: apogeeAlt}
	return closestApproachTo(target, o, ev.Profile), nil
}

// closestApproachTo scans the whole orbit at the coarse step then refines
// around the best coarse anomaly at the fine step.
func closestApproachTo(target Position3, o OrbitalElements, prof Profile) Approach {
	pr := newProjector(o)
	best := Approach{DistanceKm: math.Inf(1)}
	try := func(ν float64) {
		ν = WrapDegrees(ν)
		if d := Distance(pr.position(ν), target); d < best.DistanceKm {
			best = Approach{DistanceKm: d, TrueAnomaly: ν}
		}
	}
	for ν := 0.0; ν < 360; ν += prof.CoarseStep {
		try(ν)
	}
	center := best.TrueAnomaly
	for δ := -prof.FineWindow; δ <= prof.FineWindow; δ += prof.FineStep {
		try(center + δ)
	}
	return best
}
