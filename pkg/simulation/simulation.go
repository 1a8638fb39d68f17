package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
	"github.com/tochemey/goakt/v3/log"
)

// ErrOutOfArea is returned when an initial agent lies outside the simulation area.
var ErrOutOfArea = errors.New("agent outside the simulation area")

// frame is the time step the flocking constants are tuned for.
const frame = time.Second / 60

// TickStats describes one completed tick.
type TickStats struct {
	Tick       uint64        `json:"tick"`
	Agents     int           `json:"agents"`
	Neighbors  int           `json:"neighbors"`  // neighbors inside perception range, summed over agents
	Candidates int           `json:"candidates"` // entries returned by the window queries
	Desyncs    int           `json:"desyncs"`
	Clamped    int           `json:"clamped"`
	Attractors int           `json:"attractors"`
	Depth      int           `json:"depth"` // quadtree depth after the tick
	Compute    time.Duration `json:"compute"`
	Integrate  time.Duration `json:"integrate"`
}

// Simulation owns the flock: a fixed arena of agents, the quadtree mirroring
// it and the two phases of a tick. It is not safe for concurrent use, the
// WorldActor or the terminal loop serialize every call.
type Simulation struct {
	cfg        *Config
	params     behavior.Params
	agents     []behavior.Agent
	index      *quadtree.Quadtree
	model      *behavior.Model
	integrator *behavior.Integrator
	attractors *Attractors
	logger     log.Logger

	steering []behavior.Steering
	points   []geometry.Vector2D
	tick     uint64
	last     TickStats
}

// New validates cfg and spawns cfg.AgentCount agents with the configured pattern.
func New(cfg *Config, attractors *Attractors, logger log.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spawner, err := NewSpawner(cfg.SpawnPattern, cfg.Seed)
	if err != nil {
		return nil, err
	}
	agents := spawner.Spawn(cfg.AgentCount, cfg.Area(), cfg.MinSpeed)
	return NewFromAgents(cfg, agents, attractors, logger)
}

// NewFromAgents builds a simulation around an existing arena. Agent IDs must
// match their slot and every position must lie inside the simulation area.
func NewFromAgents(cfg *Config, agents []behavior.Agent, attractors *Attractors, logger log.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if attractors == nil {
		attractors = NewAttractors()
	}
	if logger == nil {
		logger = log.DiscardLogger
	}

	index, err := quadtree.New(cfg.IndexBounds(), cfg.NodeCapacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	area := cfg.Area()
	for i, a := range agents {
		if a.ID != i {
			return nil, fmt.Errorf("agent in slot %d has id %d", i, a.ID)
		}
		if !area.Contains(a.Pos) {
			return nil, fmt.Errorf("%w: agent %d at %v, area %v", ErrOutOfArea, a.ID, a.Pos, area)
		}
		if err := index.Insert(a.Point()); err != nil {
			return nil, fmt.Errorf("indexing agent %d: %w", a.ID, err)
		}
	}

	model := behavior.NewModel(cfg.Workers)
	logger.Infof("simulation ready: %d agents, area %v, node capacity %d, %d workers",
		len(agents), area, cfg.NodeCapacity, model.Workers())

	return &Simulation{
		cfg:        cfg,
		params:     cfg.FlockParams(),
		agents:     agents,
		index:      index,
		model:      model,
		integrator: behavior.NewIntegrator(index, index.Boundary()),
		attractors: attractors,
		logger:     logger,
		steering:   make([]behavior.Steering, len(agents)),
	}, nil
}

// AdvanceTick runs one full tick: every steering is computed from the
// current state, then the integrator moves the agents and the index.
// dt is scaled against a 60 Hz frame, dt <= 0 counts as one frame.
func (s *Simulation) AdvanceTick(dt time.Duration) (TickStats, error) {
	step := 1.0
	if dt > 0 {
		step = float64(dt) / float64(frame)
	}
	s.points = s.attractors.Snapshot(s.points)

	// 1. Read phase
	start := time.Now()
	steering, err := s.model.Compute(s.index, s.agents, s.points, s.params, s.steering)
	if err != nil {
		return s.last, fmt.Errorf("tick %d: computing steering: %w", s.tick+1, err)
	}
	s.steering = steering
	computed := time.Now()

	// 2. Write phase
	moved, err := s.integrator.Apply(s.agents, s.steering, s.params, step)
	if err != nil {
		return s.last, fmt.Errorf("tick %d: %w", s.tick+1, err)
	}

	s.tick++
	stats := TickStats{
		Tick:       s.tick,
		Agents:     len(s.agents),
		Desyncs:    moved.Desyncs,
		Clamped:    moved.Clamped,
		Attractors: len(s.points),
		Depth:      s.index.Depth(),
		Compute:    computed.Sub(start),
		Integrate:  time.Since(computed),
	}
	for _, st := range s.steering {
		stats.Neighbors += st.Neighbors
		stats.Candidates += st.Candidates
	}
	if stats.Desyncs > 0 {
		s.logger.Warnf("tick %d: %d agents were missing from the spatial index", s.tick, stats.Desyncs)
	}
	s.last = stats
	return stats, nil
}

// ApplyConfig merges a live update into the config. Only the flocking rules
// change, the arena and the index keep their startup shape.
func (s *Simulation) ApplyConfig(update map[string]any) error {
	if err := s.cfg.Apply(update); err != nil {
		return err
	}
	s.params = s.cfg.FlockParams()
	return nil
}

// Snapshot copies what renderers need. withNodes adds the boundary of every
// quadtree node.
func (s *Simulation) Snapshot(withNodes bool) *WorldSnapshot {
	snap := &WorldSnapshot{
		Tick:       s.tick,
		Agents:     make([]AgentView, len(s.agents)),
		Attractors: append([]geometry.Vector2D(nil), s.points...),
		Stats:      s.last,
	}
	for i, a := range s.agents {
		snap.Agents[i] = AgentView{Pos: a.Pos, Heading: a.Heading()}
	}
	if withNodes {
		s.index.Walk(func(node *quadtree.Quadtree) bool {
			snap.Nodes = append(snap.Nodes, node.Boundary())
			return true
		})
	}
	return snap
}

// Config returns the live configuration. Callers must not modify it.
func (s *Simulation) Config() *Config { return s.cfg }

// LastStats returns the statistics of the latest tick.
func (s *Simulation) LastStats() TickStats { return s.last }

// Agents exposes the arena, read-only for callers.
func (s *Simulation) Agents() []behavior.Agent { return s.agents }

// Index exposes the spatial index for queries.
func (s *Simulation) Index() quadtree.Reader { return s.index }

// Attractors returns the attraction set read at every tick.
func (s *Simulation) Attractors() *Attractors { return s.attractors }
