package behavior

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
	"go.uber.org/multierr"
)

// fallbackHeading is used when a velocity has no direction left to clamp.
var fallbackHeading = geometry.Vector2D{X: 1, Y: 0}

// IntegrateStats reports what the write phase of one tick had to fix up.
type IntegrateStats struct {
	Desyncs int // moves whose old position was not found in the index
	Clamped int // positions pulled back inside the index boundary
}

// Integrator is the write phase of a tick: it applies the steering, clamps
// the speed, advances positions and keeps the spatial index in sync.
// It is the only holder of the index Mutator.
type Integrator struct {
	index  quadtree.Mutator
	bounds geometry.Rectangle
}

// NewIntegrator returns an integrator updating index, whose root covers bounds.
func NewIntegrator(index quadtree.Mutator, bounds geometry.Rectangle) *Integrator {
	return &Integrator{index: index, bounds: bounds}
}

// Apply advances every agent by one tick. step scales the Euler step, 1 is
// one frame. steering[i] must belong to agents[i].
// When a move fails the agents before it have advanced, the failing agent
// and the ones after it keep their state and their index entry.
func (it *Integrator) Apply(agents []Agent, steering []Steering, p Params, step float64) (IntegrateStats, error) {
	var stats IntegrateStats
	if len(steering) != len(agents) {
		return stats, fmt.Errorf("integrator: %d steering values for %d agents", len(steering), len(agents))
	}

	for i := range agents {
		prev := agents[i]
		next := Advance(prev, steering[i].Delta(), p, step)

		if !it.bounds.Contains(next.Pos) {
			next.Pos = it.bounds.Clamp(next.Pos)
			stats.Clamped++
		}

		removed, err := it.index.Move(prev.Point(), next.Point())
		if err != nil {
			if removed {
				err = multierr.Append(err, it.index.Insert(prev.Point()))
			}
			return stats, fmt.Errorf("integrator: moving agent %d: %w", prev.ID, err)
		}
		if !removed {
			stats.Desyncs++
		}
		agents[i] = next
	}
	return stats, nil
}

// Advance returns a after adding delta to its velocity, clamping the speed
// into [MinSpeed, MaxSpeed] and taking one explicit Euler step.
// A velocity that ends up with no direction keeps the previous heading, or
// points along +X when there is none either.
func Advance(a Agent, delta geometry.Vector2D, p Params, step float64) Agent {
	vel, ok := a.Vel.Add(delta).ClampLength(p.MinSpeed, p.MaxSpeed)
	if !ok {
		heading := a.Vel.Normalize()
		if heading.IsZero() {
			heading = fallbackHeading
		}
		vel = heading.Mul(p.MinSpeed)
	}
	a.Vel = vel
	a.Pos = a.Pos.Add(vel.Mul(step))
	return a
}
