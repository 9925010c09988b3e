package loi

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const dateFormat = "2006-01-02 15:04:05"

// ellipseHeader is the header row of the ellipse CSV files.
var ellipseHeader = []string{"nu", "t", "x", "y", "z", "vx", "vy", "vz"}

// EllipseSample is one point of a sampled transfer ellipse.
type EllipseSample struct {
	TrueAnomaly     float64 // degrees
	TimeFromPerigee float64 // seconds
	Position        Position3
	Velocity        Velocity3
}

// ToText converts to text for written output.
func (s EllipseSample) ToText() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{f(s.TrueAnomaly), f(s.TimeFromPerigee), f(s.Position.X), f(s.Position.Y), f(s.Position.Z), f(s.Velocity.X), f(s.Velocity.Y), f(s.Velocity.Z)}
}

// FromText initializes from text. The record must have eight items.
func (s *EllipseSample) FromText(record []string) error {
	if len(record) != len(ellipseHeader) {
		return fmt.Errorf("expected %d fields, got %d", len(ellipseHeader), len(record))
	}
	vals := make([]float64, len(record))
	for k, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return errors.Wrapf(err, "field %s", ellipseHeader[k])
		}
		vals[k] = v
	}
	s.TrueAnomaly, s.TimeFromPerigee = vals[0], vals[1]
	s.Position = Position3{X: vals[2], Y: vals[3], Z: vals[4]}
	s.Velocity = Velocity3{X: vals[5], Y: vals[6], Z: vals[7]}
	return nil
}

// SampleEllipse samples the full orbit every stepDeg degrees of true anomaly,
// starting at perigee.
func SampleEllipse(o OrbitalElements, stepDeg float64) ([]EllipseSample, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if stepDeg <= 0 || stepDeg > 360 {
		return nil, fmt.Errorf("sampling step %f deg outside (0, 360]", stepDeg)
	}
	pr := newProjector(o)
	samples := []EllipseSample{}
	for ν := 0.0; ν < 360; ν += stepDeg {
		samples = append(samples, EllipseSample{
			TrueAnomaly:     ν,
			TimeFromPerigee: TimeToTrueAnomaly(ν, o.PerigeeAlt, o.ApogeeAlt),
			Position:        pr.position(ν),
			Velocity:        pr.velocity(ν),
		})
	}
	return samples, nil
}

// WriteEllipseCSV writes the samples as CSV, preceded by a comment block
// describing the orbit.
func WriteEllipseCSV(w io.Writer, o OrbitalElements, samples []EllipseSample) error {
	if _, err := fmt.Fprintf(w, `# Creation date (UTC): %s
# Orbit: %s
#   True anomaly in degrees, time from perigee in seconds
#   Position in km, velocity in km/sec
`, time.Now().UTC().Format(dateFormat), o); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ellipseHeader); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write(s.ToText()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseEllipseCSV reads samples written by WriteEllipseCSV.
func ParseEllipseCSV(r io.Reader) ([]EllipseSample, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	samples := []EllipseSample{}
	for k, record := range records {
		if k == 0 && len(record) > 0 && record[0] == ellipseHeader[0] {
			continue
		}
		var s EllipseSample
		if err := s.FromText(record); err != nil {
			return nil, errors.Wrapf(err, "line %d", k+1)
		}
		samples = append(samples, s)
	}
	return samples, nil
}
