package loi

import (
	"fmt"
	"math"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/soypat/geometry/md3"
)

// OptimizationResult is the best transfer orbit found for one epoch.
type OptimizationResult struct {
	Epoch       time.Time `json:"epoch" yaml:"epoch"`
	RAAN        float64   `json:"raan" yaml:"raan"`               // degrees, within [0, 360)
	ApogeeAlt   float64   `json:"apogeeAlt" yaml:"apogeeAlt"`     // km
	DistanceKm  float64   `json:"distanceKm" yaml:"distanceKm"`   // closest approach to the target
	TrueAnomaly float64   `json:"trueAnomaly" yaml:"trueAnomaly"` // degrees, where the closest approach occurs
	Runs        int       `json:"runs" yaml:"runs"`
	Iterations  int       `json:"iterations" yaml:"iterations"`
	Converged   bool      `json:"converged" yaml:"converged"`
}

func (r OptimizationResult) String() string {
	return fmt.Sprintf("%s Ω=%.4f deg rA=%.1f km d=%.3f km ν=%.3f deg (%d runs, %d iterations, converged=%t)",
		r.Epoch.UTC().Format(time.RFC3339), r.RAAN, r.ApogeeAlt, r.DistanceKm, r.TrueAnomaly, r.Runs, r.Iterations, r.Converged)
}

// Planner searches for the transfer orbit which brings a spacecraft closest to
// the target body. It is immutable and safe for concurrent use.
type Planner struct {
	ephemeris EphemerisProvider
	mission   MissionProfile
	profile   Profile
	logger    kitlog.Logger
	metrics   *Metrics
}

// PlannerOption configures optional Planner collaborators.
type PlannerOption func(*Planner)

// WithLogger sets the logger of the planner. Defaults to a no-op logger.
func WithLogger(l kitlog.Logger) PlannerOption {
	return func(p *Planner) { p.logger = l }
}

// WithMetrics sets the metrics of the planner.
func WithMetrics(m *Metrics) PlannerOption {
	return func(p *Planner) { p.metrics = m }
}

// NewPlanner returns a new planner, or an error if the mission or the profile is invalid.
func NewPlanner(eph EphemerisProvider, mission MissionProfile, prof Profile, opts ...PlannerOption) (*Planner, error) {
	if eph == nil {
		return nil, errors.New("planner requires an ephemeris provider")
	}
	if err := ValidateAltitudes(mission.PerigeeAlt, MinApogeeAltitude); err != nil {
		return nil, errors.Wrap(err, "invalid mission")
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{ephemeris: eph, mission: mission, profile: prof, logger: kitlog.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = kitlog.With(p.logger, "subsys", "loi", "profile", prof.Name)
	return p, nil
}

// NewPlannerFromConfig returns a planner using the Moon ephemeris of the configuration.
func NewPlannerFromConfig(conf Config, opts ...PlannerOption) (*Planner, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return NewPlanner(conf.Moon(), conf.Mission, conf.Profile, opts...)
}

// Profile returns the profile of this planner.
func (p *Planner) Profile() Profile { return p.profile }

// Mission returns the mission of this planner.
func (p *Planner) Mission() MissionProfile { return p.mission }

// searchSeed is a starting point of one simplex run.
type searchSeed struct {
	raan, apogeeAlt float64
}

// transferSearch holds everything which is fixed during the search at one epoch.
type transferSearch struct {
	epoch   time.Time
	target  Position3
	centre  searchSeed
	ω, i    float64
	perigee float64
	profile Profile
}

func (p *Planner) newTransferSearch(epoch time.Time, ω, i float64) (transferSearch, error) {
	if i < 0 || i > 180 || math.IsNaN(i) || math.IsNaN(ω) {
		return transferSearch{}, errors.Errorf("invalid orientation ω=%f i=%f", ω, i)
	}
	target, _, err := p.ephemeris.PositionAndVelocityAt(epoch)
	if err != nil {
		return transferSearch{}, errors.Wrapf(err, "target at %s", epoch.UTC().Format(time.RFC3339))
	}
	raan, apogee := ClampParameters(RightAscension(target), md3.Norm(target)-Earth.Radius)
	return transferSearch{
		epoch:   epoch,
		target:  target,
		centre:  searchSeed{raan, apogee},
		ω:       ω,
		i:       i,
		perigee: p.mission.PerigeeAlt,
		profile: p.profile,
	}, nil
}

func (s transferSearch) elements(raan, apogeeAlt float64) OrbitalElements {
	return OrbitalElements{Inclination: s.i, RAAN: raan, ArgPeriapsis: s.ω, PerigeeAlt: s.perigee, ApogeeAlt: apogeeAlt}
}

func (s transferSearch) objective(raan, apogeeAlt float64) float64 {
	return closestApproachTo(s.target, s.elements(raan, apogeeAlt), s.profile).DistanceKm
}

// seeds returns the centre seed followed by the rest of the RAAN x apogee grid.
func (s transferSearch) seeds() []searchSeed {
	prof := s.profile
	seeds := []searchSeed{s.centre}
	nRAAN := int(math.Floor(prof.RAANSpan/prof.RAANStep + 1e-9))
	for k := -nRAAN; k <= nRAAN; k++ {
		for j := 0; j < prof.ApogeeSeeds; j++ {
			frac := 0.0
			if prof.ApogeeSeeds > 1 {
				frac = prof.ApogeeSpread * (2*float64(j)/float64(prof.ApogeeSeeds-1) - 1)
			}
			if k == 0 && frac == 0 {
				continue
			}
			raan, apogee := ClampParameters(s.centre.raan+float64(k)*prof.RAANStep, s.centre.apogeeAlt*(1+frac))
			seeds = append(seeds, searchSeed{raan, apogee})
		}
	}
	return seeds
}

// simplex returns the initial simplex around a seed.
func (s transferSearch) simplex(seed searchSeed) [3]SimplexPoint {
	da := seed.apogeeAlt * s.profile.SimplexApogee
	if seed.apogeeAlt+da > MaxApogeeAltitude {
		da = -da
	}
	return [3]SimplexPoint{
		{RAAN: seed.raan, ApogeeAlt: seed.apogeeAlt},
		{RAAN: seed.raan + s.profile.SimplexRAAN, ApogeeAlt: seed.apogeeAlt},
		{RAAN: seed.raan, ApogeeAlt: seed.apogeeAlt + da},
	}
}

type seedRun struct {
	best  SimplexPoint
	stats SimplexStats
}

func (p *Planner) run(s transferSearch, seed searchSeed) seedRun {
	nm := NewNelderMead(p.profile.MaxIterations, p.profile.Tolerance)
	best, stats := nm.Minimize(s.objective, s.simplex(seed))
	p.metrics.observeRun(stats)
	if !stats.Converged {
		level.Warn(p.logger).Log("subsys", "simplex", "status", "not converged", "epoch", s.epoch.Format(time.RFC3339), "seed.raan", seed.raan, "seed.apogee", seed.apogeeAlt, "iterations", stats.Iterations, "best", best.Value)
	} else {
		level.Debug(p.logger).Log("subsys", "simplex", "seed.raan", seed.raan, "seed.apogee", seed.apogeeAlt, "iterations", stats.Iterations, "evaluations", stats.Evaluations, "best", best)
	}
	return seedRun{best, stats}
}

// runAll runs one simplex per seed, in a bounded pool when the profile asks for
// more than one worker. Runs are returned in seed order.
func (p *Planner) runAll(s transferSearch, seeds []searchSeed) []seedRun {
	runs := make([]seedRun, len(seeds))
	workers := p.profile.Workers
	if workers <= 1 {
		for k, seed := range seeds {
			runs[k] = p.run(s, seed)
		}
		return runs
	}
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				runs[k] = p.run(s, seeds[k])
			}
		}()
	}
	for k := range seeds {
		jobs <- k
	}
	close(jobs)
	wg.Wait()
	return runs
}

func (p *Planner) optimize(mode string, epoch time.Time, ω, i float64, multi bool) (OptimizationResult, error) {
	start := time.Now()
	s, err := p.newTransferSearch(epoch, ω, i)
	if err != nil {
		return OptimizationResult{}, err
	}
	seeds := []searchSeed{s.centre}
	if multi {
		seeds = s.seeds()
	}
	runs := p.runAll(s, seeds)
	winner := 0
	iterations := 0
	for k, r := range runs {
		iterations += r.stats.Iterations
		if r.best.Value < runs[winner].best.Value {
			winner = k
		}
	}
	best := runs[winner].best
	approach := closestApproachTo(s.target, s.elements(best.RAAN, best.ApogeeAlt), p.profile)
	res := OptimizationResult{
		Epoch:       epoch,
		RAAN:        WrapDegrees(best.RAAN),
		ApogeeAlt:   best.ApogeeAlt,
		DistanceKm:  approach.DistanceKm,
		TrueAnomaly: approach.TrueAnomaly,
		Runs:        len(runs),
		Iterations:  iterations,
		Converged:   runs[winner].stats.Converged,
	}
	p.metrics.observeSearch(mode, start, res.DistanceKm)
	level.Info(p.logger).Log("subsys", "search", "mode", mode, "epoch", epoch.UTC().Format(time.RFC3339), "raan", res.RAAN, "apogee", res.ApogeeAlt, "distance", res.DistanceKm, "anomaly", res.TrueAnomaly, "runs", res.Runs, "took", time.Since(start))
	return res, nil
}

// OptimizeTransfer runs a single Nelder-Mead from the target's right ascension
// and geocentric range.
func (p *Planner) OptimizeTransfer(epoch time.Time, ω, i float64) (OptimizationResult, error) {
	return p.optimize("single", epoch, ω, i, false)
}

// OptimizeTransferMultiStart runs one Nelder-Mead per seed of the grid around the
// target's right ascension and geocentric range, and returns the best run.
// The single start seed is always part of the grid, so this result is never
// worse than OptimizeTransfer's.
func (p *Planner) OptimizeTransferMultiStart(epoch time.Time, ω, i float64) (OptimizationResult, error) {
	return p.optimize("multistart", epoch, ω, i, true)
}
