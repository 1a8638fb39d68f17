package behavior

import (
	"math"
	"runtime"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest slice of agents handed to one worker.
const minChunk = 64

// Steering is the velocity change computed for one agent in one tick,
// split per rule. Every rule is already normalized and weighted.
type Steering struct {
	Separation geometry.Vector2D
	Alignment  geometry.Vector2D
	Cohesion   geometry.Vector2D
	Turn       geometry.Vector2D
	Attraction geometry.Vector2D

	Neighbors  int // agents within perception range
	Candidates int // entries returned by the window query, self included
}

// Delta returns the sum of all rules, the value added to the velocity.
func (s Steering) Delta() geometry.Vector2D {
	d := s.Separation.Add(s.Alignment).Add(s.Cohesion).Add(s.Turn).Add(s.Attraction)
	// keep a corrupted delta from making the agent disappear
	if math.IsNaN(d.X) || math.IsNaN(d.Y) || math.IsInf(d.X, 0) || math.IsInf(d.Y, 0) {
		return geometry.Zero
	}
	return d
}

// Model computes the steering of every agent from one immutable snapshot.
// All reads of a tick happen before any write, so the evaluation order of
// agents does not change the result and agents can be spread over workers.
type Model struct {
	workers int
}

// NewModel returns a model running the read phase on up to workers
// goroutines, 0 meaning GOMAXPROCS.
func NewModel(workers int) *Model {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Model{workers: workers}
}

// Workers returns the size of the worker pool.
func (m *Model) Workers() int { return m.workers }

// Compute fills out with the steering of agents[i] at index i and returns it.
// index must mirror agents and must not be mutated until Compute returns.
func (m *Model) Compute(index quadtree.Reader, agents []Agent, attractors []geometry.Vector2D, p Params, out []Steering) ([]Steering, error) {
	if cap(out) < len(agents) {
		out = make([]Steering, len(agents))
	}
	out = out[:len(agents)]

	centroid, ok := Centroid(attractors)
	if !ok {
		// no attraction points: the term is exactly zero, never NaN
		p.AttractionPointFactor = 0
	}

	chunk := max(minChunk, (len(agents)+m.workers-1)/m.workers)
	if m.workers == 1 || len(agents) <= chunk {
		var buf []quadtree.Point
		for i := range agents {
			out[i], buf = steer(index, agents[i], centroid, p, buf)
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(m.workers)
	for start := 0; start < len(agents); start += chunk {
		end := min(start+chunk, len(agents))
		g.Go(func() error {
			// each worker owns out[start:end] and its own query buffer
			var buf []quadtree.Point
			for i := start; i < end; i++ {
				out[i], buf = steer(index, agents[i], centroid, p, buf)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Steer computes the steering of a single agent. It is Compute for one
// agent, with the attraction centroid recomputed from attractors.
func Steer(index quadtree.Reader, a Agent, attractors []geometry.Vector2D, p Params) Steering {
	centroid, ok := Centroid(attractors)
	if !ok {
		p.AttractionPointFactor = 0
	}
	s, _ := steer(index, a, centroid, p, nil)
	return s
}

// steer applies every rule to a. buf is reused for the window query and
// returned so the caller can hand it to the next agent.
func steer(index quadtree.Reader, a Agent, centroid geometry.Vector2D, p Params, buf []quadtree.Point) (Steering, []quadtree.Point) {
	var s Steering

	// square window as a fast pre-filter, exact distance below drops its corners
	window := geometry.NewRectangle(a.Pos, geometry.Vector2D{X: p.PerceptionRange, Y: p.PerceptionRange})
	buf = index.QueryInto(window, buf[:0])
	s.Candidates = len(buf)

	var (
		separation geometry.Vector2D
		velSum     geometry.Vector2D
		posSum     geometry.Vector2D
	)
	for _, other := range buf {
		if other.ID == a.ID {
			continue
		}
		offset := a.Pos.Sub(other.Pos)
		dist := offset.Len()
		if dist >= p.PerceptionRange {
			continue
		}

		// 1. Separation: the deeper inside the protected range, the stronger
		if dist < p.ProtectedRange {
			separation = separation.Add(offset.Normalize().Mul(math.Abs(p.ProtectedRange - dist)))
		}

		// 2. Alignment and 3. Cohesion accumulators
		velSum = velSum.Add(other.Vel)
		posSum = posSum.Add(other.Pos)
		s.Neighbors++
	}

	s.Separation = separation.Normalize().Mul(p.SeparationFactor)
	if s.Neighbors > 0 {
		n := float64(s.Neighbors)
		s.Alignment = velSum.Div(n).Sub(a.Vel).Normalize().Mul(p.AlignmentFactor)
		s.Cohesion = posSum.Div(n).Sub(a.Pos).Normalize().Mul(p.CohesionFactor)
	}

	s.Turn = edgeTurn(a.Pos, p).Normalize().Mul(p.TurnFactor)

	if p.AttractionPointFactor != 0 && p.attracted(a.ID) {
		s.Attraction = centroid.Sub(a.Pos).Normalize().Mul(p.AttractionPointFactor)
	}

	return s, buf
}

// edgeTurn returns the raw push away from every edge the position is close
// to. Both axes are handled independently so corners add up.
func edgeTurn(pos geometry.Vector2D, p Params) geometry.Vector2D {
	var turn geometry.Vector2D
	lo, hi := p.Area.Min(), p.Area.Max()
	if pos.X < lo.X+p.EdgeMargin {
		turn.X += p.TurnFactor
	}
	if pos.X > hi.X-p.EdgeMargin {
		turn.X -= p.TurnFactor
	}
	if pos.Y < lo.Y+p.EdgeMargin {
		turn.Y += p.TurnFactor
	}
	if pos.Y > hi.Y-p.EdgeMargin {
		turn.Y -= p.TurnFactor
	}
	return turn
}

// Centroid returns the mean of points. ok is false for an empty set.
func Centroid(points []geometry.Vector2D) (c geometry.Vector2D, ok bool) {
	if len(points) == 0 {
		return geometry.Zero, false
	}
	for _, pt := range points {
		c = c.Add(pt)
	}
	return c.Div(float64(len(points))), true
}
