package loi

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// PQW2ECI returns the direction cosine matrix from the perifocal frame to the
// inertial frame. Angles are in radians.
// The order matters: ω about the orbit normal, then i about the line of nodes,
// then Ω about the pole, i.e. R3(-Ω)·R1(-i)·R3(-ω).
func PQW2ECI(i, ω, Ω float64) *mat.Dense {
	var dcm mat.Dense
	dcm.Mul(R1(-i), R3(-ω))
	dcm.Mul(R3(-Ω), &dcm)
	return &dcm
}

// Ecliptic2Equatorial returns the rotation from ecliptic to equatorial
// coordinates for the obliquity ε (radians).
func Ecliptic2Equatorial(ε float64) *mat.Dense {
	return R1(-ε)
}

// MxV33 multiplies a 3x3 matrix with a position. Note that there is no dimension check!
func MxV33(m mat.Matrix, v Position3) Position3 {
	var rVec mat.VecDense
	rVec.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Position3{X: rVec.AtVec(0), Y: rVec.AtVec(1), Z: rVec.AtVec(2)}
}
