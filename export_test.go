package loi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/geometry/md3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestSampleEllipse(t *testing.T) {
	o := lunarTransfer
	samples, err := SampleEllipse(o, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 36 {
		t.Fatalf("%d samples", len(samples))
	}
	if r := md3.Norm(samples[0].Position); !scalar.EqualWithinAbs(r, Earth.Radius+o.PerigeeAlt, 1e-6) {
		t.Fatalf("first sample at %f km, expected perigee", r)
	}
	if r := md3.Norm(samples[18].Position); !scalar.EqualWithinAbs(r, Earth.Radius+o.ApogeeAlt, 1e-6) {
		t.Fatalf("sample at ν=180 is at %f km, expected apogee", r)
	}
	for k, s := range samples {
		if k > 0 && s.TimeFromPerigee <= samples[k-1].TimeFromPerigee {
			t.Fatalf("time from perigee decreases at ν=%f", s.TrueAnomaly)
		}
		if s.Position != PositionAtTrueAnomaly(s.TrueAnomaly, o) || s.Velocity != VelocityAtTrueAnomaly(s.TrueAnomaly, o) {
			t.Fatalf("state mismatch at ν=%f", s.TrueAnomaly)
		}
	}
	for _, step := range []float64{0, -1, 361} {
		if _, err := SampleEllipse(o, step); err == nil {
			t.Fatalf("step %f accepted", step)
		}
	}
	bad := o
	bad.Inclination = 200
	if _, err := SampleEllipse(bad, 1); err == nil {
		t.Fatal("invalid elements accepted")
	}
}

func TestEllipseCSV(t *testing.T) {
	o := lunarTransfer
	samples, err := SampleEllipse(o, 7.5)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteEllipseCSV(&buf, o, samples); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "# Orbit: "+o.String()) {
		t.Fatalf("orbit missing from the header:\n%s", buf.String())
	}
	parsed, err := ParseEllipseCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != len(samples) {
		t.Fatalf("%d samples parsed out of %d", len(parsed), len(samples))
	}
	for k, s := range parsed {
		exp := samples[k]
		got := []float64{s.TrueAnomaly, s.TimeFromPerigee, s.Position.X, s.Position.Y, s.Position.Z, s.Velocity.X, s.Velocity.Y, s.Velocity.Z}
		want := []float64{exp.TrueAnomaly, exp.TimeFromPerigee, exp.Position.X, exp.Position.Y, exp.Position.Z, exp.Velocity.X, exp.Velocity.Y, exp.Velocity.Z}
		if !floats.EqualApprox(got, want, 1e-6) {
			t.Fatalf("sample #%d:\n%v\n%v", k, got, want)
		}
	}
	if _, err := ParseEllipseCSV(strings.NewReader("nu,t,x,y,z,vx,vy,vz\n1,2,3\n")); err == nil {
		t.Fatal("short record accepted")
	}
	if _, err := ParseEllipseCSV(strings.NewReader("1,2,3,4,5,6,7,x\n")); err == nil {
		t.Fatal("non numeric field accepted")
	}
}
