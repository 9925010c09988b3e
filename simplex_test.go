package loi

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/optimize"
)

// bowl is a positive definite quadratic with its minimum at (100 deg, 200000 km).
func bowl(raan, apogeeAlt float64) float64 {
	x, y := raan-100, apogeeAlt/1000-200
	return x*x + 3*y*y + x*y
}

var bowlSeed = [3]SimplexPoint{{RAAN: 90, ApogeeAlt: 150000}, {RAAN: 91, ApogeeAlt: 150000}, {RAAN: 90, ApogeeAlt: 151500}}

func TestNelderMeadBowl(t *testing.T) {
	nm := NewNelderMead(500, 1e-12)
	best, stats := nm.Minimize(bowl, bowlSeed)
	if !stats.Converged {
		t.Fatalf("did not converge: %+v", stats)
	}
	if !scalar.EqualWithinAbs(best.RAAN, 100, 1e-3) || !scalar.EqualWithinAbs(best.ApogeeAlt, 200000, 1) {
		t.Fatalf("minimum found at %s", best)
	}
	if best.Value != bowl(best.RAAN, best.ApogeeAlt) {
		t.Fatalf("value %f does not match the returned point", best.Value)
	}
	if stats.Evaluations < 3+stats.Iterations {
		t.Fatalf("%d evaluations for %d iterations", stats.Evaluations, stats.Iterations)
	}
}

func TestNelderMeadAgainstGonum(t *testing.T) {
	nm := NewNelderMead(1000, 1e-14)
	best, _ := nm.Minimize(bowl, bowlSeed)

	// Same problem and initial simplex, with the apogee in thousands of km.
	p := optimize.Problem{Func: func(x []float64) float64 { return bowl(x[0], x[1]*1000) }}
	vertices := make([][]float64, 3)
	values := make([]float64, 3)
	for k, s := range bowlSeed {
		vertices[k] = []float64{s.RAAN, s.ApogeeAlt / 1000}
		values[k] = p.Func(vertices[k])
	}
	method := &optimize.NelderMead{InitialVertices: vertices, InitialValues: values, Reflection: 1, Expansion: 2, Contraction: 0.5, Shrink: 0.5}
	res, err := optimize.Minimize(p, []float64{bowlSeed[0].RAAN, bowlSeed[0].ApogeeAlt / 1000}, nil, method)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(best.RAAN, res.X[0], 1e-3) || !scalar.EqualWithinAbs(best.ApogeeAlt, res.X[1]*1000, 1) {
		t.Fatalf("simplex found %s, gonum found Ω=%f rA=%f", best, res.X[0], res.X[1]*1000)
	}
	if math.Abs(best.Value-res.F) > 1e-6 {
		t.Fatalf("simplex value %g, gonum value %g", best.Value, res.F)
	}
}

func TestNelderMeadClampsParameters(t *testing.T) {
	// Pulls the RAAN below zero and the apogee beyond its bound.
	seen := 0
	obj := func(raan, apogeeAlt float64) float64 {
		seen++
		if raan < 0 || raan >= 360 || apogeeAlt < MinApogeeAltitude || apogeeAlt > MaxApogeeAltitude {
			t.Fatalf("objective called out of bounds: Ω=%f rA=%f", raan, apogeeAlt)
		}
		return -apogeeAlt/1000 + math.Abs(angleDiff(raan, 355))
	}
	nm := NewNelderMead(300, 1e-9)
	seed := [3]SimplexPoint{{RAAN: 2, ApogeeAlt: 590000}, {RAAN: 3, ApogeeAlt: 590000}, {RAAN: 2, ApogeeAlt: 595900}}
	best, stats := nm.Minimize(obj, seed)
	if seen != stats.Evaluations {
		t.Fatalf("%d evaluations reported, %d made", stats.Evaluations, seen)
	}
	if best.RAAN < 0 || best.RAAN >= 360 || best.ApogeeAlt > MaxApogeeAltitude || best.ApogeeAlt < MinApogeeAltitude {
		t.Fatalf("result out of bounds: %s", best)
	}
	if !scalar.EqualWithinAbs(best.ApogeeAlt, MaxApogeeAltitude, 1) {
		t.Fatalf("apogee should be on its upper bound: %s", best)
	}
	if math.Abs(angleDiff(best.RAAN, 355)) > 0.01 {
		t.Fatalf("RAAN should cross the 0/360 seam to 355: %s", best)
	}
	// Lower bound.
	best, _ = nm.Minimize(func(raan, apogeeAlt float64) float64 {
		if apogeeAlt < MinApogeeAltitude {
			t.Fatalf("objective called below the lowest apogee: %f", apogeeAlt)
		}
		return apogeeAlt
	}, [3]SimplexPoint{{RAAN: 10, ApogeeAlt: 200}, {RAAN: 11, ApogeeAlt: 200}, {RAAN: 10, ApogeeAlt: 202}})
	if best.ApogeeAlt != MinApogeeAltitude {
		t.Fatalf("apogee should be on its lower bound: %s", best)
	}
}

func TestNelderMeadNotConverged(t *testing.T) {
	minSeen := math.Inf(1)
	obj := func(raan, apogeeAlt float64) float64 {
		v := bowl(raan, apogeeAlt)
		minSeen = math.Min(minSeen, v)
		return v
	}
	nm := NewNelderMead(3, 1e-12)
	best, stats := nm.Minimize(obj, bowlSeed)
	if stats.Converged {
		t.Fatal("three iterations should not be enough")
	}
	if stats.Iterations != 3 {
		t.Fatalf("%d iterations", stats.Iterations)
	}
	if best.Value != minSeen {
		t.Fatalf("best so far not returned: %f instead of %f", best.Value, minSeen)
	}
}

func TestClampParameters(t *testing.T) {
	for _, tc := range []struct{ raan, apogee, expRAAN, expApogee float64 }{
		{-10, 100, 350, MinApogeeAltitude},
		{370, 700000, 10, MaxApogeeAltitude},
		{360, 5000, 0, 5000},
		{45, MinApogeeAltitude, 45, MinApogeeAltitude},
	} {
		raan, apogee := ClampParameters(tc.raan, tc.apogee)
		if !scalar.EqualWithinAbs(raan, tc.expRAAN, 1e-12) || apogee != tc.expApogee {
			t.Fatalf("ClampParameters(%f, %f) = (%f, %f)", tc.raan, tc.apogee, raan, apogee)
		}
	}
}
