package loi

import (
	"math"

	"github.com/soypat/geometry/md3"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	deg2rad = math.Pi / 180
)

// Position3 is a geocentric position in km in the mean equator and equinox of date frame.
type Position3 = md3.Vec

// Velocity3 is a geocentric velocity in km/s in the same frame as Position3.
type Velocity3 = md3.Vec

// Distance returns the Euclidean distance between two positions.
func Distance(a, b Position3) float64 {
	return md3.Norm(md3.Sub(a, b))
}

// Declination returns the angle of p above the equatorial plane, in degrees.
func Declination(p Position3) float64 {
	return math.Atan2(p.Z, math.Hypot(p.X, p.Y)) / deg2rad
}

// RightAscension returns the right ascension of p in degrees within [0, 360).
func RightAscension(p Position3) float64 {
	return WrapDegrees(math.Atan2(p.Y, p.X) / deg2rad)
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if scalar.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	return WrapDegrees(a) * deg2rad
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	return WrapDegrees(a / deg2rad)
}

// WrapDegrees wraps any angle in degrees into [0, 360).
func WrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		// -tiny + 360 rounds up to 360.
		a = 0
	}
	return a
}

// wrapRadians wraps any angle in radians into [0, 2π).
func wrapRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// angleDiff returns the signed smallest difference a-b in degrees, within [-180, 180).
func angleDiff(a, b float64) float64 {
	return WrapDegrees(a-b+180) - 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
