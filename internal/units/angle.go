package units

import "math"

// Angle is an immutable angle stored in radians. Use Radians or Degrees to
// construct one; never pass bare float64 angles across package boundaries.
type Angle struct {
	rad float64
}

// Radians returns an Angle of r radians.
func Radians(r float64) Angle { return Angle{rad: r} }

// Degrees returns an Angle of d degrees.
func Degrees(d float64) Angle { return Angle{rad: d * math.Pi / 180.0} }

// Radians returns the angle in radians.
func (a Angle) Radians() float64 { return a.rad }

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 { return a.rad * 180.0 / math.Pi }

// Sin returns the sine of the angle.
func (a Angle) Sin() float64 { return math.Sin(a.rad) }

// Cos returns the cosine of the angle.
func (a Angle) Cos() float64 { return math.Cos(a.rad) }

// Tan returns the tangent of the angle.
func (a Angle) Tan() float64 { return math.Tan(a.rad) }

// Add returns a + b.
func (a Angle) Add(b Angle) Angle { return Angle{rad: a.rad + b.rad} }

// Sub returns a - b.
func (a Angle) Sub(b Angle) Angle { return Angle{rad: a.rad - b.rad} }

// Clamp limits the angle to [lo, hi].
func (a Angle) Clamp(lo, hi Angle) Angle {
	switch {
	case a.rad < lo.rad:
		return lo
	case a.rad > hi.rad:
		return hi
	default:
		return a
	}
}

// Atan returns the angle whose tangent is y/x, in the quadrant of (x, y).
func Atan(y, x float64) Angle { return Angle{rad: math.Atan2(y, x)} }
