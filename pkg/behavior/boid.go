package behavior

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
)

// Agent is a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
//
// Agents live in a fixed-length arena, ID is their index in it.
type Agent struct {
	ID  int
	Pos geometry.Vector2D
	Vel geometry.Vector2D
}

// New creates an agent with a random position inside area and a random velocity.
func New(id int, area geometry.Rectangle, r *rand.Rand) Agent {
	lo := area.Min()
	return Agent{
		ID: id,
		Pos: geometry.Vector2D{
			X: lo.X + r.Float64()*area.Width(),
			Y: lo.Y + r.Float64()*area.Height(),
		},
		Vel: geometry.Vector2D{
			X: (r.Float64() * 2) - 1,
			Y: (r.Float64() * 2) - 1,
		},
	}
}

// Heading returns the angle of the velocity, used by renderers to orient sprites.
func (a Agent) Heading() float64 {
	return a.Vel.Angle()
}

// Point returns the index entry mirroring this agent.
func (a Agent) Point() quadtree.Point {
	return quadtree.Point{ID: a.ID, Pos: a.Pos, Vel: a.Vel}
}

// Params controls the physics constants of the flock.
// Passing it to Compute lets the rules change between ticks.
type Params struct {
	PerceptionRange float64 // How far can they see?
	ProtectedRange  float64 // Personal space radius

	SeparationFactor      float64
	AlignmentFactor       float64
	CohesionFactor        float64
	TurnFactor            float64 // Edge turning strength
	AttractionPointFactor float64

	// Agents whose ID is a multiple of AttractionStride steer toward the
	// attraction points, 1 means every agent.
	AttractionStride int

	MinSpeed float64
	MaxSpeed float64

	Area       geometry.Rectangle // simulation area, edges trigger the turn force
	EdgeMargin float64
}

// DefaultParams returns the settings of the reference flock over area.
func DefaultParams(area geometry.Rectangle) Params {
	return Params{
		PerceptionRange:       60,
		ProtectedRange:        12,
		SeparationFactor:      0.3,
		AlignmentFactor:       0.075,
		CohesionFactor:        0.055,
		TurnFactor:            0.4,
		AttractionPointFactor: 0.1,
		AttractionStride:      2,
		MinSpeed:              5.0,
		MaxSpeed:              5.1,
		Area:                  area,
		EdgeMargin:            100,
	}
}

// attracted reports whether the agent follows the attraction points.
func (p Params) attracted(id int) bool {
	if p.AttractionStride <= 1 {
		return true
	}
	return id%p.AttractionStride == 0
}
