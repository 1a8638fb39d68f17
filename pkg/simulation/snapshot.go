package simulation

import (
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"google.golang.org/protobuf/types/known/structpb"
)

// AgentView is the part of an agent a renderer draws.
type AgentView struct {
	Pos     geometry.Vector2D
	Heading float64 // atan2(vel.y, vel.x)
}

// WorldSnapshot is an immutable copy of the world handed to the UI.
type WorldSnapshot struct {
	Tick       uint64
	Agents     []AgentView
	Attractors []geometry.Vector2D
	Stats      TickStats
	Nodes      []geometry.Rectangle // quadtree node boundaries, only when requested
}

// Struct converts the stats to the reply sent to actor Ask calls.
func (t TickStats) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"tick":        float64(t.Tick),
		"agents":      t.Agents,
		"neighbors":   t.Neighbors,
		"candidates":  t.Candidates,
		"desyncs":     t.Desyncs,
		"clamped":     t.Clamped,
		"attractors":  t.Attractors,
		"depth":       t.Depth,
		"computeMs":   float64(t.Compute.Microseconds()) / 1000,
		"integrateMs": float64(t.Integrate.Microseconds()) / 1000,
	})
}
