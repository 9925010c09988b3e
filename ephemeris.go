package loi

import (
	"time"

	"github.com/pkg/errors"
)

// ErrEphemerisOutOfRange is returned (wrapped) when an ephemeris cannot resolve
// the target body at the requested instant.
var ErrEphemerisOutOfRange = errors.New("epoch outside of ephemeris validity")

// ErrNotBracketed is returned when a root finder is given an interval whose
// end points do not straddle a root.
var ErrNotBracketed = errors.New("interval does not bracket a root")

// ScalarFunc is any scalar function of time, such as the declination of the target.
type ScalarFunc func(t time.Time) (float64, error)

// EphemerisProvider is the only way the planner reaches the target body.
// Positions and velocities must be expressed in the same frame as Position3.
type EphemerisProvider interface {
	// PositionAndVelocityAt returns the geocentric state of the target body.
	PositionAndVelocityAt(t time.Time) (Position3, Velocity3, error)
	// DeclinationAt returns the declination of the target body in degrees.
	DeclinationAt(t time.Time) (float64, error)
	// FindCrossing returns the instant within [lo, hi] where f changes sign.
	FindCrossing(f ScalarFunc, lo, hi time.Time) (time.Time, error)
}

// Bisect returns the instant within [lo, hi] at which f changes sign, to within tol.
func Bisect(f ScalarFunc, lo, hi time.Time, tol time.Duration) (time.Time, error) {
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	if tol <= 0 {
		tol = time.Second
	}
	fLo, err := f(lo)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bisect at %s", lo.Format(time.RFC3339))
	}
	fHi, err := f(hi)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bisect at %s", hi.Format(time.RFC3339))
	}
	switch {
	case fLo == 0:
		return lo, nil
	case fHi == 0:
		return hi, nil
	case sign(fLo) == sign(fHi):
		return time.Time{}, errors.Wrapf(ErrNotBracketed, "f(%s)=%g f(%s)=%g", lo.Format(time.RFC3339), fLo, hi.Format(time.RFC3339), fHi)
	}
	for hi.Sub(lo) > tol {
		mid := lo.Add(hi.Sub(lo) / 2)
		fMid, err := f(mid)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "bisect at %s", mid.Format(time.RFC3339))
		}
		if fMid == 0 {
			return mid, nil
		}
		if sign(fMid) == sign(fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return lo.Add(hi.Sub(lo) / 2), nil
}
