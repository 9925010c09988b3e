package loi

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/unit"
	"github.com/soypat/geometry/md3"
)

const (
	// DefaultDeltaT is TT-UTC used when converting civil time to dynamical time.
	DefaultDeltaT = 69200 * time.Millisecond
	// moonVelocityStep is the half width of the central difference used for the velocity.
	moonVelocityStep = time.Minute
)

// MeeusMoon is an EphemerisProvider for the Moon built on the ELP-2000/82
// truncation of Meeus' Astronomical Algorithms (chapter 47).
// Positions are geocentric, referred to the mean equator and equinox of date.
type MeeusMoon struct {
	ValidFrom, ValidUntil time.Time
	DeltaT                time.Duration // TT - UTC
	Tolerance             time.Duration // root finder tolerance
}

// NewMeeusMoon returns a Moon ephemeris valid over the 20th and 21st centuries.
func NewMeeusMoon() *MeeusMoon {
	return &MeeusMoon{
		ValidFrom:  time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2100, 12, 31, 0, 0, 0, 0, time.UTC),
		DeltaT:     DefaultDeltaT,
		Tolerance:  time.Second,
	}
}

func (m *MeeusMoon) checkRange(t time.Time) error {
	if t.Before(m.ValidFrom) || t.After(m.ValidUntil) {
		return errors.Wrapf(ErrEphemerisOutOfRange, "moon at %s (valid %s to %s)",
			t.UTC().Format(time.RFC3339), m.ValidFrom.Format(dateFormat), m.ValidUntil.Format(dateFormat))
	}
	return nil
}

// PositionAt returns the geocentric position of the Moon in km.
func (m *MeeusMoon) PositionAt(t time.Time) (Position3, error) {
	if err := m.checkRange(t); err != nil {
		return Position3{}, err
	}
	jde := julian.TimeToJD(t.UTC().Add(m.DeltaT))
	λ, β, Δ := moonposition.Position(jde)
	return eclipticToEquatorial(λ, β, Δ, nutation.MeanObliquity(jde)), nil
}

// eclipticToEquatorial is the single place where ecliptic coordinates of date
// are brought into the frame of Position3.
func eclipticToEquatorial(λ, β unit.Angle, Δ float64, ε unit.Angle) Position3 {
	sλ, cλ := math.Sincos(λ.Rad())
	sβ, cβ := math.Sincos(β.Rad())
	ecl := Position3{X: Δ * cβ * cλ, Y: Δ * cβ * sλ, Z: Δ * sβ}
	return MxV33(Ecliptic2Equatorial(ε.Rad()), ecl)
}

// PositionAndVelocityAt implements EphemerisProvider.
func (m *MeeusMoon) PositionAndVelocityAt(t time.Time) (Position3, Velocity3, error) {
	R, err := m.PositionAt(t)
	if err != nil {
		return Position3{}, Velocity3{}, err
	}
	before, err := m.PositionAt(t.Add(-moonVelocityStep))
	if err != nil {
		return Position3{}, Velocity3{}, err
	}
	after, err := m.PositionAt(t.Add(moonVelocityStep))
	if err != nil {
		return Position3{}, Velocity3{}, err
	}
	V := md3.Scale(1/(2*moonVelocityStep.Seconds()), md3.Sub(after, before))
	return R, V, nil
}

// DeclinationAt implements EphemerisProvider.
func (m *MeeusMoon) DeclinationAt(t time.Time) (float64, error) {
	R, err := m.PositionAt(t)
	if err != nil {
		return 0, err
	}
	return Declination(R), nil
}

// FindCrossing implements EphemerisProvider with a bisection.
func (m *MeeusMoon) FindCrossing(f ScalarFunc, lo, hi time.Time) (time.Time, error) {
	return Bisect(f, lo, hi, m.Tolerance)
}
