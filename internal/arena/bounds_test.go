package arena

import "testing"

func TestBoundsClampZeroesDrivingAxis(t *testing.T) {
	b := NewBounds(800, 600)
	p := Vector{X: 810, Y: 300}
	clamped, axes := b.Clamp(p, 20)
	if clamped.X != 780 {
		t.Fatalf("expected X clamped to 780, got %f", clamped.X)
	}
	if !axes.X || axes.Y {
		t.Fatalf("expected only X axis clamped, got %+v", axes)
	}
}

func TestBoundsContains(t *testing.T) {
	b := NewBounds(800, 600)
	if !b.Contains(Vector{X: 400, Y: 300}, 20) {
		t.Fatal("expected center point to be contained")
	}
	if b.Contains(Vector{X: -5, Y: 300}, 20) {
		t.Fatal("expected out-of-bounds point to be rejected")
	}
}

func TestBoundsRandomSpawnWithinBounds(t *testing.T) {
	b := NewBounds(800, 600)
	rng := newTestRNG()
	for i := 0; i < 50; i++ {
		p := b.RandomSpawn(rng, 20)
		if !b.Contains(p, 20) {
			t.Fatalf("spawn point %+v out of bounds", p)
		}
	}
}
