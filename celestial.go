package loi

// CelestialObject defines a celestial object.
type CelestialObject struct {
	Name   string
	Radius float64 // mean radius in km
	μ      float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

/* Definitions */

// Earth is home. Altitudes in this package are measured from its mean radius.
var Earth = CelestialObject{"Earth", 6371.0, 3.986004418e5}
