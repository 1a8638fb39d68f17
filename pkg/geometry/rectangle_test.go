package geometry

import "testing"

func TestRectangle_Contains(t *testing.T) {
	r := NewRectangle(Vector2D{0, 0}, Vector2D{10, 5})

	tests := []struct {
		name string
		p    Vector2D
		want bool
	}{
		{"center", Vector2D{0, 0}, true},
		{"lower corner is inside", Vector2D{-10, -5}, true},
		{"upper x edge is outside", Vector2D{10, 0}, false},
		{"upper y edge is outside", Vector2D{0, 5}, false},
		{"just below upper corner", Vector2D{9.999, 4.999}, true},
		{"left of box", Vector2D{-10.001, 0}, false},
		{"far away", Vector2D{100, 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.p); got != tt.want {
				t.Errorf("%v.Contains(%v) = %v; want %v", r, tt.p, got, tt.want)
			}
		})
	}
}

func TestRectangle_Intersects(t *testing.T) {
	r := NewRectangle(Vector2D{0, 0}, Vector2D{10, 10})

	tests := []struct {
		name  string
		other Rectangle
		want  bool
	}{
		{"same box", r, true},
		{"overlapping corner", NewRectangle(Vector2D{15, 15}, Vector2D{10, 10}), true},
		{"contained", NewRectangle(Vector2D{1, 1}, Vector2D{1, 1}), true},
		{"containing", NewRectangle(Vector2D{0, 0}, Vector2D{100, 100}), true},
		{"touching edge only", NewRectangle(Vector2D{20, 0}, Vector2D{10, 10}), false},
		{"disjoint on x", NewRectangle(Vector2D{50, 0}, Vector2D{10, 10}), false},
		{"disjoint on y", NewRectangle(Vector2D{0, -50}, Vector2D{10, 10}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Intersects(tt.other); got != tt.want {
				t.Errorf("%v.Intersects(%v) = %v; want %v", r, tt.other, got, tt.want)
			}
			if got := tt.other.Intersects(r); got != tt.want {
				t.Errorf("Intersects is not symmetric for %v", tt.other)
			}
		})
	}
}

func TestRectangle_Quadrants(t *testing.T) {
	r := RectangleFromCorners(Vector2D{0, 0}, Vector2D{100, 60})
	quads := r.Quadrants()

	// every sample point of the parent must land in exactly one quadrant
	for x := 0.0; x < 100; x += 2.5 {
		for y := 0.0; y < 60; y += 2.5 {
			p := Vector2D{x, y}
			hits := 0
			for _, q := range quads {
				if q.Contains(p) {
					hits++
				}
			}
			if hits != 1 {
				t.Fatalf("point %v is in %d quadrants; want 1", p, hits)
			}
		}
	}

	for i, q := range quads {
		if !q.Size.Eq(Vector2D{25, 15}) {
			t.Errorf("quadrant %d size = %v; want (25, 15)", i, q.Size)
		}
	}
	// NW is offset toward +x,+y, SE toward -x,-y
	if !quads[0].Center.Eq(Vector2D{75, 45}) {
		t.Errorf("NW center = %v; want (75, 45)", quads[0].Center)
	}
	if !quads[3].Center.Eq(Vector2D{25, 15}) {
		t.Errorf("SE center = %v; want (25, 15)", quads[3].Center)
	}
}

func TestRectangle_Clamp(t *testing.T) {
	r := RectangleFromCorners(Vector2D{0, 0}, Vector2D{10, 10})

	tests := []struct {
		name string
		p    Vector2D
	}{
		{"inside", Vector2D{5, 5}},
		{"below", Vector2D{-3, 5}},
		{"above", Vector2D{5, 12}},
		{"on upper edge", Vector2D{10, 10}},
		{"far corner", Vector2D{1e6, -1e6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Clamp(tt.p)
			if !r.Contains(got) {
				t.Errorf("Clamp(%v) = %v; not contained in %v", tt.p, got, r)
			}
			if r.Contains(tt.p) && got != tt.p {
				t.Errorf("Clamp moved an inside point: %v -> %v", tt.p, got)
			}
		})
	}
}

func TestRectangle_Inflate(t *testing.T) {
	r := RectangleFromCorners(Vector2D{0, 0}, Vector2D{10, 20})
	got := r.Inflate(5)
	if !got.Min().Eq(Vector2D{-5, -5}) || !got.Max().Eq(Vector2D{15, 25}) {
		t.Errorf("Inflate(5) = %v; want [(-5, -5)..(15, 25))", got)
	}
	if got.Width() != 20 || got.Height() != 30 {
		t.Errorf("Inflate(5) size = %vx%v; want 20x30", got.Width(), got.Height())
	}
}
