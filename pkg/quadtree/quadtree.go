// Package quadtree is a region quadtree holding agent position/velocity pairs.
// It answers windowed queries in better than linear time and stays in sync
// with moving agents through Move.
//
// Subdivision is lazy and does not rebalance: when a full node splits, the
// points it already holds stay in it and only later insertions are routed to
// the children. A subdivided node never takes new direct points. Once every
// child of a node is empty again, the node collapses back to a leaf.
package quadtree

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

var (
	// ErrInvalidCapacity is returned by New for a capacity below 1.
	ErrInvalidCapacity = errors.New("quadtree: node capacity must be at least 1")
	// ErrOutOfBounds is returned when a point lies outside the root boundary.
	ErrOutOfBounds = errors.New("quadtree: point outside boundary")
)

// Point is one agent entry of the index.
// ID is carried along so readers can recognise the querying agent itself,
// matching on removal only looks at Pos.
type Point struct {
	ID  int
	Pos geometry.Vector2D
	Vel geometry.Vector2D
}

// Reader is the query-only view handed to the flocking read phase.
// Query is safe for concurrent use as long as no Mutator call runs.
type Reader interface {
	Query(region geometry.Rectangle) []Point
	QueryInto(region geometry.Rectangle, dst []Point) []Point
}

// Mutator is the write view used by the integrator. Calls must be serialized.
type Mutator interface {
	Insert(p Point) error
	Remove(pos geometry.Vector2D) bool
	Move(from, to Point) (bool, error)
}

// Quadtree is one node of the tree, the root being the whole index.
type Quadtree struct {
	boundary   geometry.Rectangle
	capacity   int
	points     []Point
	quads      []*Quadtree // empty, or exactly 4 in NW, NE, SW, SE order
	subdivided bool
}

var (
	_ Reader  = (*Quadtree)(nil)
	_ Mutator = (*Quadtree)(nil)
)

// New creates an empty, undivided root covering boundary.
func New(boundary geometry.Rectangle, capacity int) (*Quadtree, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return newNode(boundary, capacity), nil
}

func newNode(boundary geometry.Rectangle, capacity int) *Quadtree {
	return &Quadtree{
		boundary: boundary,
		capacity: capacity,
		points:   make([]Point, 0, capacity),
	}
}

// Boundary returns the region covered by this node.
func (q *Quadtree) Boundary() geometry.Rectangle { return q.boundary }

// Subdivided reports whether the node currently has children.
func (q *Quadtree) Subdivided() bool { return q.subdivided }

// Children returns the child nodes in NW, NE, SW, SE order, or nil for a leaf.
func (q *Quadtree) Children() []*Quadtree {
	if !q.subdivided {
		return nil
	}
	return q.quads
}

// Points returns the points stored directly in this node, in insertion order.
func (q *Quadtree) Points() []Point { return q.points }

// Insert adds p to the subtree. Duplicates by position are kept.
// A point outside the boundary is rejected with ErrOutOfBounds.
func (q *Quadtree) Insert(p Point) error {
	if !q.boundary.Contains(p.Pos) {
		return fmt.Errorf("%w: %s not in %s", ErrOutOfBounds, p.Pos, q.boundary)
	}
	q.insert(p)
	return nil
}

// insert assumes p.Pos lies inside q.boundary.
func (q *Quadtree) insert(p Point) {
	if !q.subdivided && len(q.points) < q.capacity {
		q.points = append(q.points, p)
		return
	}
	if !q.subdivided {
		q.subdivide()
	}
	child := q.childFor(p.Pos)
	if child == nil {
		// rounding left a sliver between quadrants, keep the point here
		q.points = append(q.points, p)
		return
	}
	child.insert(p)
}

// subdivide creates the four children. Points already here are not moved.
func (q *Quadtree) subdivide() {
	q.quads = q.quads[:0]
	for _, r := range q.boundary.Quadrants() {
		q.quads = append(q.quads, newNode(r, q.capacity))
	}
	q.subdivided = true
}

// childFor returns the first child, in NW, NE, SW, SE order, containing pos.
func (q *Quadtree) childFor(pos geometry.Vector2D) *Quadtree {
	for _, child := range q.quads {
		if child.boundary.Contains(pos) {
			return child
		}
	}
	return nil
}

// Query returns every point whose position lies in region. Order is unspecified.
func (q *Quadtree) Query(region geometry.Rectangle) []Point {
	return q.QueryInto(region, nil)
}

// QueryInto appends the points found in region to dst and returns it,
// letting hot loops reuse one buffer per worker.
func (q *Quadtree) QueryInto(region geometry.Rectangle, dst []Point) []Point {
	if !q.boundary.Intersects(region) {
		return dst
	}
	for _, p := range q.points {
		if region.Contains(p.Pos) {
			dst = append(dst, p)
		}
	}
	if q.subdivided {
		for _, child := range q.quads {
			dst = child.QueryInto(region, dst)
		}
	}
	return dst
}

// Remove deletes the first point found at exactly pos, velocity is ignored.
// It reports whether a point was removed. A subdivided node whose children
// are all empty afterwards collapses back to a leaf.
func (q *Quadtree) Remove(pos geometry.Vector2D) bool {
	if !q.boundary.Contains(pos) {
		return false
	}
	return q.remove(pos)
}

func (q *Quadtree) remove(pos geometry.Vector2D) bool {
	for i, p := range q.points {
		if p.Pos == pos {
			// keep insertion order of the remaining points
			q.points = append(q.points[:i], q.points[i+1:]...)
			q.collapse()
			return true
		}
	}
	if !q.subdivided {
		return false
	}
	removed := false
	if child := q.childFor(pos); child != nil {
		removed = child.remove(pos)
	}
	q.collapse()
	return removed
}

// collapse drops the children once none of them holds anything.
func (q *Quadtree) collapse() {
	if !q.subdivided {
		return
	}
	for _, child := range q.quads {
		if !child.empty() {
			return
		}
	}
	clear(q.quads)
	q.quads = q.quads[:0]
	q.subdivided = false
}

// empty holds for a leaf without points. A subdivided node is never empty
// because it collapses as soon as its last descendant goes away.
func (q *Quadtree) empty() bool {
	return !q.subdivided && len(q.points) == 0
}

// Move removes the point at from.Pos and inserts to.
// The insertion happens even when nothing matched from.Pos, so a stale from
// leaves a duplicate behind; the first result lets the caller detect it.
func (q *Quadtree) Move(from, to Point) (bool, error) {
	removed := q.Remove(from.Pos)
	if err := q.Insert(to); err != nil {
		return removed, err
	}
	return removed, nil
}

// Len returns the number of points in the subtree.
func (q *Quadtree) Len() int {
	n := len(q.points)
	if q.subdivided {
		for _, child := range q.quads {
			n += child.Len()
		}
	}
	return n
}

// Depth returns the number of levels of the subtree, 1 for a leaf.
func (q *Quadtree) Depth() int {
	if !q.subdivided {
		return 1
	}
	deepest := 0
	for _, child := range q.quads {
		deepest = max(deepest, child.Depth())
	}
	return deepest + 1
}

// Walk calls fn for every node, parents before children, and stops
// descending into a node when fn returns false.
func (q *Quadtree) Walk(fn func(node *Quadtree) bool) {
	if !fn(q) || !q.subdivided {
		return
	}
	for _, child := range q.quads {
		child.Walk(fn)
	}
}

// Clear removes every point and child, keeping boundary and capacity.
func (q *Quadtree) Clear() {
	q.points = q.points[:0]
	q.quads = nil
	q.subdivided = false
}
