package arena

import (
	"math"
	"testing"
)

func TestVectorClampMagnitude(t *testing.T) {
	v := Vector{X: 3, Y: 4}
	clamped := v.ClampMagnitude(2)
	if math.Abs(clamped.Length()-2) > 1e-9 {
		t.Fatalf("expected length 2, got %f", clamped.Length())
	}

	unclamped := v.ClampMagnitude(10)
	if unclamped != v {
		t.Fatalf("expected vector unchanged when under max, got %+v", unclamped)
	}
}

func TestVectorZeroBelow(t *testing.T) {
	v := Vector{X: 0.001, Y: 5}
	out := v.ZeroBelow(0.01)
	if out.X != 0 {
		t.Fatalf("expected X zeroed, got %f", out.X)
	}
	if out.Y != 5 {
		t.Fatalf("expected Y untouched, got %f", out.Y)
	}
}

func TestVectorIsFinite(t *testing.T) {
	if !(Vector{X: 1, Y: 1}).IsFinite() {
		t.Fatal("expected finite vector to report finite")
	}
	if (Vector{X: math.NaN(), Y: 0}).IsFinite() {
		t.Fatal("expected NaN vector to report non-finite")
	}
	if (Vector{X: math.Inf(1), Y: 0}).IsFinite() {
		t.Fatal("expected infinite vector to report non-finite")
	}
}

func TestVectorDistance(t *testing.T) {
	a := Vector{X: 0, Y: 0}
	b := Vector{X: 3, Y: 4}
	if got := a.Distance(b); got != 5 {
		t.Fatalf("expected distance 5, got %f", got)
	}
}
