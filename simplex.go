package loi

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SimplexPoint is one vertex of the search simplex.
type SimplexPoint struct {
	RAAN      float64 // degrees
	ApogeeAlt float64 // km
	Value     float64 // objective at (RAAN, ApogeeAlt)
}

func (p SimplexPoint) String() string {
	return fmt.Sprintf("Ω=%.4f deg rA=%.3f km f=%.6f", p.RAAN, p.ApogeeAlt, p.Value)
}

// Objective is a function minimized by the simplex. It is only ever called with
// parameters already passed through ClampParameters.
type Objective func(raan, apogeeAlt float64) float64

// SimplexStats describes how a minimization ended.
type SimplexStats struct {
	Iterations  int
	Evaluations int
	Converged   bool
}

// ClampParameters wraps the RAAN into [0, 360) and clamps the apogee altitude
// within [MinApogeeAltitude, MaxApogeeAltitude].
func ClampParameters(raan, apogeeAlt float64) (float64, float64) {
	return WrapDegrees(raan), clamp(apogeeAlt, MinApogeeAltitude, MaxApogeeAltitude)
}

// NelderMead is a two dimensional downhill simplex over (RAAN, apogee altitude).
type NelderMead struct {
	Reflection, Expansion, Contraction, Shrink float64
	MaxIterations                              int
	Tolerance                                  float64 // on the spread between worst and best vertices
}

// NewNelderMead returns a simplex with the standard coefficients.
func NewNelderMead(maxIterations int, tolerance float64) NelderMead {
	return NelderMead{Reflection: 1, Expansion: 2, Contraction: 0.5, Shrink: 0.5, MaxIterations: maxIterations, Tolerance: tolerance}
}

type vertex struct {
	x []float64 // RAAN (unwrapped), apogee altitude
	f float64
}

// Minimize runs the simplex from the three seed vertices (their Value is
// ignored) and returns the best vertex found. If the tolerance is not reached
// within MaxIterations, the best vertex so far is returned and the stats are
// flagged as not converged.
func (nm NelderMead) Minimize(obj Objective, seed [3]SimplexPoint) (SimplexPoint, SimplexStats) {
	var stats SimplexStats
	eval := func(x []float64) float64 {
		// RAAN stays unwrapped inside the simplex, only the apogee is clamped in place.
		x[1] = clamp(x[1], MinApogeeAltitude, MaxApogeeAltitude)
		stats.Evaluations++
		return obj(ClampParameters(x[0], x[1]))
	}
	simplex := make([]vertex, 3)
	for i, s := range seed {
		x := []float64{s.RAAN, s.ApogeeAlt}
		simplex[i] = vertex{x: x, f: eval(x)}
	}
	order := func() {
		sort.SliceStable(simplex, func(i, j int) bool { return simplex[i].f < simplex[j].f })
	}

	centroid := make([]float64, 2)
	dir := make([]float64, 2)
	for ; stats.Iterations < nm.MaxIterations; stats.Iterations++ {
		order()
		best, worst := simplex[0], simplex[2]
		if worst.f-best.f < nm.Tolerance {
			stats.Converged = true
			break
		}
		floats.AddTo(centroid, simplex[0].x, simplex[1].x)
		floats.Scale(0.5, centroid)
		floats.SubTo(dir, centroid, worst.x)

		xr := floats.AddScaledTo(make([]float64, 2), centroid, nm.Reflection, dir)
		fr := eval(xr)
		switch {
		case fr < best.f:
			xe := floats.AddScaledTo(make([]float64, 2), centroid, nm.Expansion, dir)
			if fe := eval(xe); fe < fr {
				simplex[2] = vertex{xe, fe}
			} else {
				simplex[2] = vertex{xr, fr}
			}
			continue
		case fr < simplex[1].f:
			simplex[2] = vertex{xr, fr}
			continue
		}
		// Contraction, outside when the reflection improved on the worst vertex.
		var xc []float64
		ref := worst.f
		if fr < worst.f {
			xc = floats.AddScaledTo(make([]float64, 2), centroid, nm.Contraction*nm.Reflection, dir)
			ref = fr
		} else {
			xc = floats.AddScaledTo(make([]float64, 2), centroid, -nm.Contraction, dir)
		}
		if fc := eval(xc); fc < ref {
			simplex[2] = vertex{xc, fc}
			continue
		}
		// Shrink towards the best vertex.
		for i := 1; i < 3; i++ {
			floats.SubTo(dir, simplex[i].x, best.x)
			x := floats.AddScaledTo(make([]float64, 2), best.x, nm.Shrink, dir)
			simplex[i] = vertex{x, eval(x)}
		}
	}
	order()
	if !stats.Converged {
		stats.Converged = simplex[2].f-simplex[0].f < nm.Tolerance
	}
	raan, apogee := ClampParameters(simplex[0].x[0], simplex[0].x[1])
	return SimplexPoint{RAAN: raan, ApogeeAlt: apogee, Value: simplex[0].f}, stats
}
