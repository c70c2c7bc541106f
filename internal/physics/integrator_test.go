package physics

import (
	"math"
	"testing"
	"time"

	"arena-server/internal/arena"
)

func TestStepClampsAtBoundaryAndZeroesVelocity(t *testing.T) {
	bounds := arena.NewBounds(800, 600)
	p := arena.NewPlayer("p1", "u1", arena.Vector{X: 790, Y: 300}, 100, arena.DefaultWeapon(), time.Now())
	p.Velocity = arena.Vector{X: 500, Y: 0}

	res := Step(p, 1, bounds, DefaultConfig())

	if p.Position.X != bounds.Width-p.Radius {
		t.Fatalf("expected position clamped to boundary, got %f", p.Position.X)
	}
	if p.Velocity.X != 0 {
		t.Fatalf("expected outward velocity zeroed, got %f", p.Velocity.X)
	}
	if !res.Clamped.X {
		t.Fatal("expected X axis reported clamped")
	}
}

func TestStepAppliesFriction(t *testing.T) {
	bounds := arena.NewBounds(800, 600)
	p := arena.NewPlayer("p1", "u1", arena.Vector{X: 400, Y: 300}, 100, arena.DefaultWeapon(), time.Now())
	p.Velocity = arena.Vector{X: 100, Y: 0}

	cfg := Config{Friction: 0.5, MaxVel: 1000, Epsilon: 0.01}
	Step(p, 1, bounds, cfg)

	if math.Abs(p.Velocity.X-50) > 1e-9 {
		t.Fatalf("expected velocity halved by friction, got %f", p.Velocity.X)
	}
}

func TestStepRecoversFromNonFinitePosition(t *testing.T) {
	bounds := arena.NewBounds(800, 600)
	p := arena.NewPlayer("p1", "u1", arena.Vector{X: math.Inf(1), Y: 0}, 100, arena.DefaultWeapon(), time.Now())
	p.Velocity = arena.Vector{X: 10, Y: 10}

	res := Step(p, 1, bounds, DefaultConfig())

	if !res.Reset {
		t.Fatal("expected reset result for non-finite position")
	}
	if p.Position != (arena.Vector{}) {
		t.Fatalf("expected position reset to origin, got %+v", p.Position)
	}
	if p.Velocity != (arena.Vector{}) {
		t.Fatalf("expected velocity reset to zero, got %+v", p.Velocity)
	}
}

func TestStepZeroesSmallVelocityComponents(t *testing.T) {
	bounds := arena.NewBounds(800, 600)
	p := arena.NewPlayer("p1", "u1", arena.Vector{X: 400, Y: 300}, 100, arena.DefaultWeapon(), time.Now())
	p.Velocity = arena.Vector{X: 0.005, Y: 0.005}

	Step(p, 1, bounds, DefaultConfig())

	if p.Velocity != (arena.Vector{}) {
		t.Fatalf("expected near-zero velocity zeroed, got %+v", p.Velocity)
	}
}
