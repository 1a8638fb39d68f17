package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used for float64 comparisons and for deciding
// when a vector is too short to have a direction.
const (
	Epsilon = 1e-9
)

// Vector2D is a point or a displacement in the 2-D simulation plane.
// Fields are exported so literals like Vector2D{X: 1, Y: 2} stay readable.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero is the zero vector, returned by Normalize for degenerate input.
var Zero = Vector2D{}

// NewVectorPolar creates a vector of length radius pointing at theta radians.
func NewVectorPolar(radius, theta float64) Vector2D {
	x := radius * math.Cos(theta)
	y := radius * math.Sin(theta)

	// snap values that are only non-zero because of rounding
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(y) < Epsilon {
		y = 0
	}

	return Vector2D{X: x, Y: y}
}

// String implements the fmt.Stringer interface.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// Value receivers, every method returns a new vector.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// Div scales the vector by 1/scalar.
// Dividing by zero yields the zero vector, which is what every averaging
// step of the flock wants for an empty neighborhood.
func (v Vector2D) Div(scalar float64) Vector2D {
	if scalar == 0 {
		return Zero
	}
	return Vector2D{v.X / scalar, v.Y / scalar}
}

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// ---------------------------------------------------------------------
// Magnitude and Normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector.
// Use it for comparisons, it avoids the square root.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude (length) of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether the vector is too short to carry a direction.
func (v Vector2D) IsZero() bool {
	return v.Len() < Epsilon
}

// Normalize returns a unit vector in the same direction.
// Returns the zero vector if the length is effectively zero.
func (v Vector2D) Normalize() Vector2D {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// ClampLength rescales v so that its length lies in [minLen, maxLen] while
// keeping its direction. The second result is false when v has no direction
// (zero length) and minLen > 0; in that case v is returned unchanged and the
// caller decides which heading to use.
func (v Vector2D) ClampLength(minLen, maxLen float64) (Vector2D, bool) {
	l := v.Len()
	switch {
	case l < Epsilon:
		return v, minLen <= 0
	case l > maxLen:
		return v.Mul(maxLen / l), true
	case l < minLen:
		return v.Mul(minLen / l), true
	}
	return v, true
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector2D) DistanceTo(other Vector2D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float64 {
	return v.Sub(other).LenSqr()
}

// Angle returns the angle (in radians) of the vector relative to the X-axis.
// Range: [-Pi, Pi]. Renderers use it as the heading of an agent.
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}
