package behavior

import (
	"errors"
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
)

func TestAdvance_ClampsSpeed(t *testing.T) {
	p := DefaultParams(area)
	p.MinSpeed, p.MaxSpeed = 2, 4

	tests := []struct {
		name  string
		vel   geometry.Vector2D
		delta geometry.Vector2D
	}{
		{"too slow", geometry.Vector2D{X: 0.1, Y: 0}, geometry.Zero},
		{"too fast", geometry.Vector2D{X: 10, Y: 10}, geometry.Zero},
		{"inside", geometry.Vector2D{X: 3, Y: 0}, geometry.Zero},
		{"delta pushes over", geometry.Vector2D{X: 3.9, Y: 0}, geometry.Vector2D{X: 2, Y: 0}},
		{"delta cancels velocity", geometry.Vector2D{X: 1, Y: 1}, geometry.Vector2D{X: -1, Y: -1}},
		{"zero everything", geometry.Zero, geometry.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Agent{Pos: geometry.Vector2D{X: 500, Y: 400}, Vel: tt.vel}
			got := Advance(a, tt.delta, p, 1)
			speed := got.Vel.Len()
			if speed < p.MinSpeed-1e-9 || speed > p.MaxSpeed+1e-9 {
				t.Errorf("speed after Advance = %v; want within [%v, %v]", speed, p.MinSpeed, p.MaxSpeed)
			}
			if !got.Pos.Eq(a.Pos.Add(got.Vel)) {
				t.Errorf("position = %v; want %v", got.Pos, a.Pos.Add(got.Vel))
			}
		})
	}
}

func TestAdvance_ZeroVelocityFallback(t *testing.T) {
	p := DefaultParams(area)

	// cancelled velocity keeps the previous heading
	a := Agent{Vel: geometry.Vector2D{X: 0, Y: 2}}
	got := Advance(a, geometry.Vector2D{X: 0, Y: -2}, p, 1)
	if !got.Vel.Eq(geometry.Vector2D{X: 0, Y: p.MinSpeed}) {
		t.Errorf("Vel = %v; want previous heading at min speed (0, %v)", got.Vel, p.MinSpeed)
	}

	// nothing to go by: +X
	got = Advance(Agent{}, geometry.Zero, p, 1)
	if !got.Vel.Eq(geometry.Vector2D{X: p.MinSpeed, Y: 0}) {
		t.Errorf("Vel = %v; want (%v, 0)", got.Vel, p.MinSpeed)
	}
}

func TestAdvance_StepScalesPosition(t *testing.T) {
	p := DefaultParams(area)
	a := Agent{Pos: geometry.Vector2D{X: 100, Y: 100}, Vel: geometry.Vector2D{X: 5, Y: 0}}
	got := Advance(a, geometry.Zero, p, 0.5)
	if !got.Pos.Eq(geometry.Vector2D{X: 102.5, Y: 100}) {
		t.Errorf("Pos = %v; want (102.50, 100.00)", got.Pos)
	}
}

func TestIntegrator_KeepsIndexInSync(t *testing.T) {
	agents := randomFlock(400, 5)
	index := buildIndex(t, agents)
	p := DefaultParams(area)
	m := NewModel(1)
	it := NewIntegrator(index, index.Boundary())

	var out []Steering
	for tick := 0; tick < 20; tick++ {
		var err error
		out, err = m.Compute(index, agents, nil, p, out)
		if err != nil {
			t.Fatalf("tick %d: Compute returned error: %v", tick, err)
		}
		stats, err := it.Apply(agents, out, p, 1)
		if err != nil {
			t.Fatalf("tick %d: Apply returned error: %v", tick, err)
		}
		if stats.Desyncs != 0 {
			t.Fatalf("tick %d: %d desyncs; want 0", tick, stats.Desyncs)
		}
	}

	if index.Len() != len(agents) {
		t.Fatalf("index holds %d points; want %d", index.Len(), len(agents))
	}
	stored := make(map[int]geometry.Vector2D, len(agents))
	for _, pt := range index.Query(index.Boundary()) {
		stored[pt.ID] = pt.Pos
	}
	for _, a := range agents {
		if pos, ok := stored[a.ID]; !ok || pos != a.Pos {
			t.Errorf("agent %d at %v, index has %v (found=%v)", a.ID, a.Pos, pos, ok)
		}
		speed := a.Vel.Len()
		if speed < p.MinSpeed-1e-9 || speed > p.MaxSpeed+1e-9 {
			t.Errorf("agent %d speed %v outside [%v, %v]", a.ID, speed, p.MinSpeed, p.MaxSpeed)
		}
	}
}

func TestIntegrator_ClampsToBoundary(t *testing.T) {
	agents := []Agent{{ID: 0, Pos: geometry.Vector2D{X: 998, Y: 400}, Vel: geometry.Vector2D{X: 5, Y: 0}}}
	index := buildIndex(t, agents)
	it := NewIntegrator(index, index.Boundary())

	stats, err := it.Apply(agents, []Steering{{}}, DefaultParams(area), 1)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if stats.Clamped != 1 {
		t.Errorf("Clamped = %d; want 1", stats.Clamped)
	}
	if !index.Boundary().Contains(agents[0].Pos) {
		t.Errorf("agent left the boundary: %v", agents[0].Pos)
	}
	if agents[0].Pos.X >= 1000 || math.Abs(agents[0].Pos.X-1000) > 1e-9 {
		t.Errorf("X = %v; want just below 1000", agents[0].Pos.X)
	}
}

func TestIntegrator_ReportsDesync(t *testing.T) {
	agents := []Agent{
		{ID: 0, Pos: geometry.Vector2D{X: 100, Y: 100}, Vel: geometry.Vector2D{X: 5, Y: 0}},
		{ID: 1, Pos: geometry.Vector2D{X: 300, Y: 300}, Vel: geometry.Vector2D{X: 5, Y: 0}},
	}
	// agent 1 is missing from the index
	index := buildIndex(t, agents[:1])
	it := NewIntegrator(index, index.Boundary())

	stats, err := it.Apply(agents, make([]Steering, 2), DefaultParams(area), 1)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if stats.Desyncs != 1 {
		t.Errorf("Desyncs = %d; want 1", stats.Desyncs)
	}
	if index.Len() != 2 {
		t.Errorf("index holds %d points; want 2", index.Len())
	}
}

func TestIntegrator_LengthMismatch(t *testing.T) {
	agents := randomFlock(3, 6)
	index := buildIndex(t, agents)
	it := NewIntegrator(index, index.Boundary())
	if _, err := it.Apply(agents, make([]Steering, 2), DefaultParams(area), 1); err == nil {
		t.Error("Apply with mismatched steering length returned nil error")
	}
}

var errIndexFull = errors.New("index full")

// failingIndex drops the new entry of one agent after removing its old one.
type failingIndex struct {
	*quadtree.Quadtree
	failID int
}

func (f *failingIndex) Move(from, to quadtree.Point) (bool, error) {
	if to.ID != f.failID {
		return f.Quadtree.Move(from, to)
	}
	return f.Remove(from.Pos), errIndexFull
}

func TestIntegrator_FailedMoveRestoresEntry(t *testing.T) {
	agents := []Agent{
		{ID: 0, Pos: geometry.Vector2D{X: 100, Y: 100}, Vel: geometry.Vector2D{X: 5, Y: 0}},
		{ID: 1, Pos: geometry.Vector2D{X: 300, Y: 300}, Vel: geometry.Vector2D{X: 5, Y: 0}},
		{ID: 2, Pos: geometry.Vector2D{X: 500, Y: 500}, Vel: geometry.Vector2D{X: 5, Y: 0}},
	}
	index := buildIndex(t, agents)
	before := append([]Agent(nil), agents...)
	it := NewIntegrator(&failingIndex{Quadtree: index, failID: 1}, index.Boundary())

	_, err := it.Apply(agents, make([]Steering, 3), DefaultParams(area), 1)
	if !errors.Is(err, errIndexFull) {
		t.Fatalf("Apply error = %v; want errIndexFull", err)
	}
	if agents[0] == before[0] {
		t.Error("agent 0 did not advance before the failure")
	}
	if agents[1] != before[1] || agents[2] != before[2] {
		t.Errorf("agents after the failure changed: %v, %v", agents[1], agents[2])
	}
	if index.Len() != 3 {
		t.Fatalf("index holds %d points; want 3", index.Len())
	}
	stored := make(map[int]geometry.Vector2D)
	for _, pt := range index.Query(index.Boundary()) {
		stored[pt.ID] = pt.Pos
	}
	for _, a := range agents {
		if stored[a.ID] != a.Pos {
			t.Errorf("agent %d at %v, index has %v", a.ID, a.Pos, stored[a.ID])
		}
	}
}
