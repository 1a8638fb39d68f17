package simulation

import (
	"math"
	"sync"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// Attractors is the set of attraction points placed by the user.
// The UI goroutine edits it while the tick loop reads it, so every method
// is safe for concurrent use. The flock only ever sees a copy.
type Attractors struct {
	mu     sync.RWMutex
	points []geometry.Vector2D
}

func NewAttractors(points ...geometry.Vector2D) *Attractors {
	return &Attractors{points: append([]geometry.Vector2D(nil), points...)}
}

// Add places a new attraction point.
func (a *Attractors) Add(p geometry.Vector2D) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.points = append(a.points, p)
}

// RemoveNearest deletes the attraction point closest to p, provided it lies
// within radius. A radius <= 0 means no limit.
func (a *Attractors) RemoveNearest(p geometry.Vector2D, radius float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	best, bestDist := -1, math.Inf(1)
	for i, pt := range a.points {
		if d := pt.DistanceSquaredTo(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || (radius > 0 && bestDist > radius*radius) {
		return false
	}
	a.points = append(a.points[:best], a.points[best+1:]...)
	return true
}

// Clear removes every point and returns how many there were.
func (a *Attractors) Clear() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.points)
	a.points = a.points[:0]
	return n
}

// Snapshot appends the current points to dst[:0] and returns it.
func (a *Attractors) Snapshot(dst []geometry.Vector2D) []geometry.Vector2D {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append(dst[:0], a.points...)
}

func (a *Attractors) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.points)
}
