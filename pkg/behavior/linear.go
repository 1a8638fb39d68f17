package behavior

import (
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
)

// Linear is the naive neighbor source: every query scans the whole flock.
// It serves as the O(n²) baseline and as a reference for the quadtree.
type Linear struct {
	points []quadtree.Point
}

var _ quadtree.Reader = (*Linear)(nil)

// NewLinear snapshots agents into a brute-force reader.
func NewLinear(agents []Agent) *Linear {
	l := &Linear{points: make([]quadtree.Point, len(agents))}
	for i, a := range agents {
		l.points[i] = a.Point()
	}
	return l
}

// Query returns every agent inside region.
func (l *Linear) Query(region geometry.Rectangle) []quadtree.Point {
	return l.QueryInto(region, nil)
}

// QueryInto appends every agent inside region to dst.
func (l *Linear) QueryInto(region geometry.Rectangle, dst []quadtree.Point) []quadtree.Point {
	for _, p := range l.points {
		if region.Contains(p.Pos) {
			dst = append(dst, p)
		}
	}
	return dst
}
