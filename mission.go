package loi

import (
	"time"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/soypat/geometry/md3"
)

const (
	// CoastStep is the default integration step of a coast.
	CoastStep = 10 * time.Second
	// maxCoast is a hard limit on a single propagation.
	maxCoast = 24 * 3652.5 * time.Hour
)

// Coast propagates a spacecraft on an Earth two-body orbit with an RK4
// integrator. It is used to check the Keplerian insertion plans.
type Coast struct {
	R                          Position3 // km
	V                          Velocity3 // km/s
	StartDT, CurrentDT, StopDT time.Time
	step, stepping             time.Duration
	logger                     kitlog.Logger
	collided                   bool
}

// NewCoast returns a coast starting at the provided true anomaly of the orbit at start.
func NewCoast(o OrbitalElements, νDeg float64, start time.Time, step time.Duration) *Coast {
	if step <= 0 {
		step = CoastStep
	}
	pr := newProjector(o)
	start = start.UTC()
	return &Coast{
		R:         pr.position(νDeg),
		V:         pr.velocity(νDeg),
		StartDT:   start,
		CurrentDT: start,
		StopDT:    start,
		step:      step,
		logger:    kitlog.NewNopLogger(),
	}
}

// SetLogger sets the logger of the coast.
func (c *Coast) SetLogger(l kitlog.Logger) {
	c.logger = kitlog.With(l, "subsys", "coast")
}

// LogStatus logs the current state of the coast.
func (c *Coast) LogStatus() {
	level.Info(c.logger).Log("date", c.CurrentDT.Format(time.RFC3339), "r", md3.Norm(c.R), "v", md3.Norm(c.V))
}

// PropagateUntil integrates until dt is reached exactly: whole steps first,
// then a single step of the remainder.
func (c *Coast) PropagateUntil(dt time.Time) error {
	if dt.Before(c.CurrentDT) {
		return errors.Errorf("cannot coast backwards from %s to %s", c.CurrentDT.Format(time.RFC3339), dt.Format(time.RFC3339))
	}
	if dt.Sub(c.StartDT) > maxCoast {
		return errors.Errorf("coast of %s exceeds the limit of %s", dt.Sub(c.StartDT), maxCoast)
	}
	c.StopDT = dt.UTC()
	if c.StopDT.Sub(c.CurrentDT) >= c.step {
		c.stepping = c.step
		ode.NewRK4(0, c.step.Seconds(), c).Solve() // Blocking.
	}
	if rem := c.StopDT.Sub(c.CurrentDT); rem > 0 {
		c.stepping = rem
		ode.NewRK4(0, rem.Seconds(), c).Solve()
	}
	c.LogStatus()
	if c.collided {
		return errors.Errorf("spacecraft went below the surface of %s", Earth.Name)
	}
	return nil
}

// Stop implements the stop call of the integrator.
func (c *Coast) Stop(t float64) bool {
	return c.collided || c.CurrentDT.Add(c.stepping).After(c.StopDT)
}

// GetState returns the state for the integrator.
func (c *Coast) GetState() []float64 {
	return []float64{c.R.X, c.R.Y, c.R.Z, c.V.X, c.V.Y, c.V.Z}
}

// SetState sets the updated state.
func (c *Coast) SetState(t float64, s []float64) {
	c.R = Position3{X: s[0], Y: s[1], Z: s[2]}
	c.V = Velocity3{X: s[3], Y: s[4], Z: s[5]}
	c.CurrentDT = c.CurrentDT.Add(c.stepping)
	if !c.collided && md3.Norm(c.R) < Earth.Radius {
		c.collided = true
		level.Warn(c.logger).Log("status", "collided", "date", c.CurrentDT.Format(time.RFC3339), "r", md3.Norm(c.R))
	}
}

// Func is the two-body equation of motion.
func (c *Coast) Func(t float64, f []float64) []float64 {
	R := Position3{X: f[0], Y: f[1], Z: f[2]}
	r := md3.Norm(R)
	k := -Earth.GM() / (r * r * r)
	return []float64{f[3], f[4], f[5], k * f[0], k * f[1], k * f[2]}
}

// Coast returns a coast starting at the injection of the plan.
func (ip InsertionPlan) Coast(step time.Duration) *Coast {
	return NewCoast(ip.Elements, ip.InjectionAnomaly, ip.InjectionEpoch, step)
}

// VerifyArrival coasts from the injection to the target epoch and returns the
// distance in km between the integrated spacecraft and the Keplerian closest
// approach point.
func (ip InsertionPlan) VerifyArrival(step time.Duration) (float64, error) {
	c := ip.Coast(step)
	if err := c.PropagateUntil(ip.Result.Epoch); err != nil {
		return 0, err
	}
	return Distance(c.R, PositionAtTrueAnomaly(ip.Result.TrueAnomaly, ip.Elements)), nil
}
