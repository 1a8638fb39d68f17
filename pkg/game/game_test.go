package game

import (
	"errors"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/ui"
)

func newTestGame() *Game {
	cfg := simulation.DefaultConfig()
	g := &Game{panel: ui.NewUIPanel(10, 10, 240, 600), cfg: cfg}
	g.addTunable("separationFactor", "Separation", 0, 1, cfg.SeparationFactor)
	g.addTunable("cohesionFactor", "Cohesion", 0, 0.5, cfg.CohesionFactor)
	g.addTunable("minSpeed", "Min Speed", 0.5, 10, cfg.MinSpeed)
	g.addTunable("maxSpeed", "Max Speed", 1, 12, cfg.MaxSpeed)
	g.widgetShowQuadtree = g.panel.AddCheckbox("Show Quadtree", false)
	return g
}

func (g *Game) tunableFor(key string) *tunable {
	for _, t := range g.tunables {
		if t.key == key {
			return t
		}
	}
	return nil
}

func TestPendingUpdate(t *testing.T) {
	g := newTestGame()

	update, err := g.pendingUpdate()
	if err != nil || update != nil {
		t.Fatalf("pendingUpdate() with untouched widgets = %v, %v; want nil, nil", update, err)
	}

	g.tunableFor("cohesionFactor").slider.Set(0.2)
	g.widgetShowQuadtree.Value = true
	update, err = g.pendingUpdate()
	if err != nil {
		t.Fatalf("pendingUpdate() returned error: %v", err)
	}
	got := update.AsMap()
	if len(got) != 2 || got["cohesionFactor"] != 0.2 || got[simulation.ShowQuadtreeKey] != true {
		t.Errorf("pendingUpdate() = %v; want cohesionFactor 0.2 and showQuadtree true", got)
	}

	// sent values are remembered
	if update, _ := g.pendingUpdate(); update != nil {
		t.Errorf("second pendingUpdate() = %v; want nil", update.AsMap())
	}
}

func TestPendingUpdate_RejectedSliderSnapsBack(t *testing.T) {
	g := newTestGame()
	minSpeed := g.tunableFor("minSpeed")

	// above the default maxSpeed of 5.1
	minSpeed.slider.Set(8)
	update, err := g.pendingUpdate()
	if err != nil {
		t.Fatalf("pendingUpdate() returned error: %v", err)
	}
	if update != nil {
		t.Fatalf("pendingUpdate() = %v; want nil for a value the world refuses", update.AsMap())
	}
	if minSpeed.slider.Value != 5 || g.cfg.MinSpeed != 5 {
		t.Errorf("after rejection slider = %v, config = %v; want both back at 5", minSpeed.slider.Value, g.cfg.MinSpeed)
	}
	if !errors.Is(g.rejected, simulation.ErrInvalidConfig) {
		t.Errorf("rejected = %v; want ErrInvalidConfig", g.rejected)
	}

	// the next accepted update carries only its own key and clears the error
	g.tunableFor("maxSpeed").slider.Set(12)
	update, err = g.pendingUpdate()
	if err != nil || update == nil {
		t.Fatalf("pendingUpdate() = %v, %v; want the maxSpeed update", update, err)
	}
	if got := update.AsMap(); len(got) != 1 || got["maxSpeed"] != 12.0 {
		t.Errorf("update = %v; want only maxSpeed 12", got)
	}
	if g.rejected != nil || g.cfg.MaxSpeed != 12 || g.cfg.MinSpeed != 5 {
		t.Errorf("after accepted update: rejected %v, config min %v max %v; want nil, 5, 12", g.rejected, g.cfg.MinSpeed, g.cfg.MaxSpeed)
	}

	// the world and the mirror agree after the same sequence
	world := simulation.DefaultConfig()
	if err := world.Apply(update.AsMap()); err != nil {
		t.Fatalf("world rejected the update: %v", err)
	}
	if *world != *g.cfg {
		t.Errorf("world config %+v differs from the mirror %+v", *world, *g.cfg)
	}

	minSpeed.slider.Set(8)
	if update, _ := g.pendingUpdate(); update == nil || update.AsMap()["minSpeed"] != 8.0 {
		t.Errorf("minSpeed 8 under maxSpeed 12 was not sent")
	}
}
