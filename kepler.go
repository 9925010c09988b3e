package loi

import (
	"fmt"
	"math"
	"time"
)

const (
	// keplerIterations is the fixed number of Newton-Raphson steps used to solve
	// Kepler's equation. There is no residual check.
	keplerIterations = 10
	// keplerHighEcc is the eccentricity above which Newton-Raphson starts from π
	// instead of from the mean anomaly.
	keplerHighEcc = 0.8
)

// Radii2ae returns the semi major axis and the eccentricty from the radii.
func Radii2ae(rA, rP float64) (a, e float64) {
	if rA < rP {
		panic("periapsis cannot be greater than apoapsis")
	}
	if rP <= 0 {
		panic("radii must be positive")
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}

// Altitudes2ae returns the semi major axis and eccentricity of an Earth orbit
// from its perigee and apogee altitudes (km).
func Altitudes2ae(perigeeAlt, apogeeAlt float64) (a, e float64) {
	return Radii2ae(apogeeAlt+Earth.Radius, perigeeAlt+Earth.Radius)
}

// ValidateAltitudes returns an error if the altitudes do not describe a bounded
// Earth orbit.
func ValidateAltitudes(perigeeAlt, apogeeAlt float64) error {
	if math.IsNaN(perigeeAlt) || math.IsNaN(apogeeAlt) {
		return fmt.Errorf("altitudes must be numbers (perigee=%f apogee=%f)", perigeeAlt, apogeeAlt)
	}
	if perigeeAlt < 0 {
		return fmt.Errorf("perigee altitude %.3f km is negative", perigeeAlt)
	}
	if apogeeAlt < perigeeAlt {
		return fmt.Errorf("apogee altitude %.3f km is below perigee altitude %.3f km", apogeeAlt, perigeeAlt)
	}
	return nil
}

// OrbitalPeriod returns the period in seconds of an Earth orbit given its
// perigee and apogee altitudes in km.
func OrbitalPeriod(perigeeAlt, apogeeAlt float64) float64 {
	a, _ := Altitudes2ae(perigeeAlt, apogeeAlt)
	return 2 * math.Pi * math.Sqrt(math.Pow(a, 3)/Earth.μ)
}

// PeriodDuration returns OrbitalPeriod as a time.Duration.
func PeriodDuration(perigeeAlt, apogeeAlt float64) time.Duration {
	return secondsToDuration(OrbitalPeriod(perigeeAlt, apogeeAlt))
}

// TrueAnomalyFromTime returns the true anomaly in degrees, within [0, 360),
// reached tSec seconds after periapsis passage.
func TrueAnomalyFromTime(tSec, perigeeAlt, apogeeAlt float64) float64 {
	a, e := Altitudes2ae(perigeeAlt, apogeeAlt)
	n := math.Sqrt(Earth.μ / math.Pow(a, 3))
	M := wrapRadians(n * tSec)
	E := eccentricAnomaly(M, e)
	sinE2, cosE2 := math.Sincos(E / 2)
	ν := 2 * math.Atan2(math.Sqrt(1+e)*sinE2, math.Sqrt(1-e)*cosE2)
	return Rad2deg(ν)
}

// eccentricAnomaly solves M = E - e·sin(E) with a fixed number of Newton-Raphson steps.
func eccentricAnomaly(M, e float64) float64 {
	E := M
	if e > keplerHighEcc {
		E = math.Pi
	}
	for i := 0; i < keplerIterations; i++ {
		sinE, cosE := math.Sincos(E)
		E -= (E - e*sinE - M) / (1 - e*cosE)
	}
	return E
}

// TimeToTrueAnomaly returns the time in seconds from periapsis to the provided
// true anomaly (in degrees). Anomalies outside [0, 360] are wrapped first and
// a true anomaly of exactly 360 returns one full period.
func TimeToTrueAnomaly(νDeg, perigeeAlt, apogeeAlt float64) float64 {
	if νDeg < 0 || νDeg > 360 {
		νDeg = WrapDegrees(νDeg)
	}
	_, e := Altitudes2ae(perigeeAlt, apogeeAlt)
	cosν := math.Cos(νDeg * deg2rad)
	cosE := clamp((e+cosν)/(1+e*cosν), -1, 1)
	E := math.Acos(cosE)
	if νDeg > 180 {
		E = 2*math.Pi - E
	}
	M := E - e*math.Sin(E)
	return M * OrbitalPeriod(perigeeAlt, apogeeAlt) / (2 * math.Pi)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
