package loi

import (
	"math"
	"sync/atomic"
	"time"
)

// staticTarget is an ephemeris where the target never moves.
type staticTarget struct {
	R     Position3
	err   error
	calls int64
}

func (s *staticTarget) PositionAndVelocityAt(t time.Time) (Position3, Velocity3, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.err != nil {
		return Position3{}, Velocity3{}, s.err
	}
	return s.R, Velocity3{}, nil
}

func (s *staticTarget) DeclinationAt(t time.Time) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return Declination(s.R), nil
}

func (s *staticTarget) FindCrossing(f ScalarFunc, lo, hi time.Time) (time.Time, error) {
	return Bisect(f, lo, hi, time.Second)
}

// sineMoon is a circular, inclined target: its declination is a sine of time
// which crosses zero upwards at T0, then every half Period.
type sineMoon struct {
	T0          time.Time
	Period      time.Duration
	Inclination float64 // degrees
	Range       float64 // km
	err         error
	failAfter   time.Time
}

// sineMonth is a month of a circular Moon on a 27.32 day orbit inclined by 5 degrees on the equator.
func sineMonth(t0 time.Time) *sineMoon {
	return &sineMoon{T0: t0, Period: time.Duration(27.321661 * 24 * float64(time.Hour)), Inclination: 5, Range: 384400}
}

func (s *sineMoon) check(t time.Time) error {
	if s.err != nil && (s.failAfter.IsZero() || t.After(s.failAfter)) {
		return s.err
	}
	return nil
}

func (s *sineMoon) PositionAndVelocityAt(t time.Time) (Position3, Velocity3, error) {
	if err := s.check(t); err != nil {
		return Position3{}, Velocity3{}, err
	}
	n := 2 * math.Pi / s.Period.Seconds()
	u := n * t.Sub(s.T0).Seconds()
	su, cu := math.Sincos(u)
	// Ascending node along x.
	dcm := PQW2ECI(s.Inclination*deg2rad, 0, 0)
	R := MxV33(dcm, Position3{X: s.Range * cu, Y: s.Range * su})
	V := MxV33(dcm, Velocity3{X: -s.Range * n * su, Y: s.Range * n * cu})
	return R, V, nil
}

func (s *sineMoon) DeclinationAt(t time.Time) (float64, error) {
	R, _, err := s.PositionAndVelocityAt(t)
	if err != nil {
		return 0, err
	}
	return Declination(R), nil
}

func (s *sineMoon) FindCrossing(f ScalarFunc, lo, hi time.Time) (time.Time, error) {
	return Bisect(f, lo, hi, time.Second)
}

// crossingAt returns the k-th crossing after T0.
func (s *sineMoon) crossingAt(k int) time.Time {
	return s.T0.Add(time.Duration(k) * s.Period / 2)
}
