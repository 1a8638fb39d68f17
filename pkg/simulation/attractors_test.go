package simulation

import (
	"sync"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

func TestAttractors_AddRemoveClear(t *testing.T) {
	a := NewAttractors(geometry.Vector2D{X: 10, Y: 10})
	a.Add(geometry.Vector2D{X: 100, Y: 100})
	a.Add(geometry.Vector2D{X: 200, Y: 200})
	if a.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", a.Len())
	}

	// too far from every point
	if a.RemoveNearest(geometry.Vector2D{X: 150, Y: 150}, 10) {
		t.Error("RemoveNearest outside radius returned true")
	}
	if !a.RemoveNearest(geometry.Vector2D{X: 105, Y: 98}, 10) {
		t.Error("RemoveNearest next to (100, 100) returned false")
	}
	got := a.Snapshot(nil)
	want := []geometry.Vector2D{{X: 10, Y: 10}, {X: 200, Y: 200}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Snapshot() = %v; want %v", got, want)
	}

	// no radius: the nearest point goes, however far
	if !a.RemoveNearest(geometry.Vector2D{X: 1000, Y: 1000}, 0) {
		t.Error("RemoveNearest without radius returned false")
	}
	if n := a.Clear(); n != 1 {
		t.Errorf("Clear() = %d; want 1", n)
	}
	if a.RemoveNearest(geometry.Zero, 0) {
		t.Error("RemoveNearest on an empty set returned true")
	}
}

func TestAttractors_SnapshotIsACopy(t *testing.T) {
	a := NewAttractors(geometry.Vector2D{X: 1, Y: 2})
	snap := a.Snapshot(nil)
	snap[0] = geometry.Zero
	if got := a.Snapshot(nil); got[0] != (geometry.Vector2D{X: 1, Y: 2}) {
		t.Errorf("modifying a snapshot changed the set: %v", got)
	}

	// the buffer is reused
	buf := make([]geometry.Vector2D, 0, 8)
	got := a.Snapshot(buf)
	if &got[:1][0] != &buf[:1][0] {
		t.Error("Snapshot did not reuse the buffer")
	}
}

func TestAttractors_Concurrent(t *testing.T) {
	a := NewAttractors()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf []geometry.Vector2D
			for j := 0; j < 100; j++ {
				a.Add(geometry.Vector2D{X: float64(i), Y: float64(j)})
				buf = a.Snapshot(buf)
			}
		}()
	}
	wg.Wait()
	if a.Len() != 800 {
		t.Errorf("Len() = %d; want 800", a.Len())
	}
}
