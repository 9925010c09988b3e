package loi

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	// MinApogeeAltitude is the lowest apogee altitude (km) the search will evaluate.
	MinApogeeAltitude = 180.0
	// MaxApogeeAltitude is the highest apogee altitude (km) the search will evaluate.
	MaxApogeeAltitude = 600000.0
)

// OrbitalElements defines the transfer orbit. Angles are in degrees and
// altitudes in km above the Earth mean radius.
type OrbitalElements struct {
	Inclination  float64 `json:"inclination" yaml:"inclination"`
	RAAN         float64 `json:"raan" yaml:"raan"`
	ArgPeriapsis float64 `json:"argPeriapsis" yaml:"argPeriapsis"`
	PerigeeAlt   float64 `json:"perigeeAlt" yaml:"perigeeAlt"`
	ApogeeAlt    float64 `json:"apogeeAlt" yaml:"apogeeAlt"`
}

// SemiMajorAxis returns the semi major axis in km.
func (o OrbitalElements) SemiMajorAxis() float64 {
	a, _ := Altitudes2ae(o.PerigeeAlt, o.ApogeeAlt)
	return a
}

// Eccentricity returns the eccentricity.
func (o OrbitalElements) Eccentricity() float64 {
	_, e := Altitudes2ae(o.PerigeeAlt, o.ApogeeAlt)
	return e
}

// SemiParameter returns the semi parameter in km.
func (o OrbitalElements) SemiParameter() float64 {
	a, e := Altitudes2ae(o.PerigeeAlt, o.ApogeeAlt)
	return a * (1 - e*e)
}

// Period returns the period of this orbit.
func (o OrbitalElements) Period() time.Duration {
	return PeriodDuration(o.PerigeeAlt, o.ApogeeAlt)
}

// RNorm returns the radius at the provided true anomaly, without computing the radius vector.
func (o OrbitalElements) RNorm(νDeg float64) float64 {
	return o.SemiParameter() / (1 + o.Eccentricity()*math.Cos(νDeg*deg2rad))
}

// Validate returns an error if these elements do not describe a bounded Earth orbit.
func (o OrbitalElements) Validate() error {
	if err := ValidateAltitudes(o.PerigeeAlt, o.ApogeeAlt); err != nil {
		return err
	}
	if o.Inclination < 0 || o.Inclination > 180 {
		return fmt.Errorf("inclination %.3f deg outside [0, 180]", o.Inclination)
	}
	return nil
}

// String implements the stringer interface (hence the value receiver)
func (o OrbitalElements) String() string {
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f rP=%.1f rA=%.1f", o.SemiMajorAxis(), o.Eccentricity(), o.Inclination, o.RAAN, o.ArgPeriapsis, o.PerigeeAlt, o.ApogeeAlt)
}

// PositionAtTrueAnomaly returns the position of the spacecraft on the orbit
// defined by the elements at the provided true anomaly (degrees).
func PositionAtTrueAnomaly(νDeg float64, o OrbitalElements) Position3 {
	return newProjector(o).position(νDeg)
}

// VelocityAtTrueAnomaly returns the velocity of the spacecraft on the orbit
// defined by the elements at the provided true anomaly (degrees).
func VelocityAtTrueAnomaly(νDeg float64, o OrbitalElements) Velocity3 {
	return newProjector(o).velocity(νDeg)
}

// projector caches the perifocal to inertial rotation of one set of elements.
type projector struct {
	p, e float64
	dcm  *mat.Dense
}

func newProjector(o OrbitalElements) projector {
	return projector{
		p:   o.SemiParameter(),
		e:   o.Eccentricity(),
		dcm: PQW2ECI(Deg2rad(o.Inclination), Deg2rad(o.ArgPeriapsis), Deg2rad(o.RAAN)),
	}
}

func (pr projector) position(νDeg float64) Position3 {
	sinν, cosν := math.Sincos(νDeg * deg2rad)
	r := pr.p / (1 + pr.e*cosν)
	return MxV33(pr.dcm, Position3{X: r * cosν, Y: r * sinν})
}

func (pr projector) velocity(νDeg float64) Velocity3 {
	sinν, cosν := math.Sincos(νDeg * deg2rad)
	vFact := math.Sqrt(Earth.μ / pr.p)
	return MxV33(pr.dcm, Velocity3{X: -vFact * sinν, Y: vFact * (pr.e + cosν)})
}
