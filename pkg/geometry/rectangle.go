package geometry

import (
	"fmt"
	"math"
)

// Rectangle is an axis-aligned box described by its center and its half
// extent on each axis.
//
// Bounds are half-open on both axes: a point belongs to the rectangle when
// Center-Size <= p < Center+Size. Four quadrants of a rectangle therefore tile
// it exactly, and a point lying on a shared edge belongs to exactly one of them.
type Rectangle struct {
	Center Vector2D `json:"center"`
	Size   Vector2D `json:"size"` // half extent, X and Y are >= 0
}

// NewRectangle returns the rectangle centered on center with half extent size.
// Negative half extents are folded to their absolute value.
func NewRectangle(center, size Vector2D) Rectangle {
	return Rectangle{
		Center: center,
		Size:   Vector2D{X: math.Abs(size.X), Y: math.Abs(size.Y)},
	}
}

// RectangleFromCorners returns the rectangle spanning [min, max).
func RectangleFromCorners(min, max Vector2D) Rectangle {
	return NewRectangle(min.Add(max).Mul(0.5), max.Sub(min).Mul(0.5))
}

// Min returns the inclusive lower corner.
func (r Rectangle) Min() Vector2D {
	return r.Center.Sub(r.Size)
}

// Max returns the exclusive upper corner.
func (r Rectangle) Max() Vector2D {
	return r.Center.Add(r.Size)
}

// Width returns the full extent along X.
func (r Rectangle) Width() float64 { return 2 * r.Size.X }

// Height returns the full extent along Y.
func (r Rectangle) Height() float64 { return 2 * r.Size.Y }

func (r Rectangle) String() string {
	return fmt.Sprintf("[%s..%s)", r.Min(), r.Max())
}

// Contains reports whether p lies inside the half-open rectangle.
func (r Rectangle) Contains(p Vector2D) bool {
	return p.X >= r.Center.X-r.Size.X &&
		p.X < r.Center.X+r.Size.X &&
		p.Y >= r.Center.Y-r.Size.Y &&
		p.Y < r.Center.Y+r.Size.Y
}

// Intersects reports whether the two half-open rectangles share at least one point.
// They don't when one of them lies entirely on one side of the other along some axis.
func (r Rectangle) Intersects(other Rectangle) bool {
	return r.Center.X-r.Size.X < other.Center.X+other.Size.X &&
		other.Center.X-other.Size.X < r.Center.X+r.Size.X &&
		r.Center.Y-r.Size.Y < other.Center.Y+other.Size.Y &&
		other.Center.Y-other.Size.Y < r.Center.Y+r.Size.Y
}

// Inflate grows the rectangle by margin on every side.
func (r Rectangle) Inflate(margin float64) Rectangle {
	return NewRectangle(r.Center, r.Size.Add(Vector2D{X: margin, Y: margin}))
}

// Clamp returns the point of the rectangle closest to p.
// Because the upper bound is exclusive the result is pulled just below Max.
func (r Rectangle) Clamp(p Vector2D) Vector2D {
	lo, hi := r.Min(), r.Max()
	return Vector2D{
		X: math.Max(lo.X, math.Min(p.X, math.Nextafter(hi.X, math.Inf(-1)))),
		Y: math.Max(lo.Y, math.Min(p.Y, math.Nextafter(hi.Y, math.Inf(-1)))),
	}
}

// Quadrants splits the rectangle in four children of half its size, in the
// fixed order NW, NE, SW, SE. Children are centered at +/- Size/2 from the
// parent center:
//
//	NW: (+x, +y)  NE: (-x, +y)  SW: (+x, -y)  SE: (-x, -y)
func (r Rectangle) Quadrants() [4]Rectangle {
	half := r.Size.Mul(0.5)
	return [4]Rectangle{
		{Center: Vector2D{X: r.Center.X + half.X, Y: r.Center.Y + half.Y}, Size: half},
		{Center: Vector2D{X: r.Center.X - half.X, Y: r.Center.Y + half.Y}, Size: half},
		{Center: Vector2D{X: r.Center.X + half.X, Y: r.Center.Y - half.Y}, Size: half},
		{Center: Vector2D{X: r.Center.X - half.X, Y: r.Center.Y - half.Y}, Size: half},
	}
}
