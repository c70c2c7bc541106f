// Package physics implements the fixed-dt Euler integration step shared by
// the match loop: position integration, friction, velocity clamping, and
// boundary enforcement.
package physics

import "arena-server/internal/arena"

// Config tunes the integrator.
type Config struct {
	Friction float64 // multiplicative per-tick velocity decay, e.g. 0.9
	MaxVel   float64
	Epsilon  float64 // velocity magnitude below which a component is zeroed
}

// DefaultConfig mirrors the spec's default friction/velocity-cap posture.
func DefaultConfig() Config {
	return Config{Friction: 0.9, MaxVel: 400, Epsilon: arena.MinStatEps}
}

// Result reports whether a clamp touched the player and on which axes.
type Result struct {
	Clamped arena.ClampedAxes
	Reset   bool // true if a non-finite value forced a reset to origin
}

// Step advances a player's position and velocity by dtSeconds, applying
// friction, velocity clamping, and boundary clamping in the order the spec
// prescribes. Non-finite positions or velocities never propagate: the
// entity is reset to the origin with zero velocity instead of crashing the
// tick.
func Step(p *arena.Player, dtSeconds float64, bounds arena.Bounds, cfg Config) Result {
	if p == nil {
		return Result{}
	}

	next := p.Position.Add(p.Velocity.Scale(dtSeconds))
	if !next.IsFinite() {
		p.Position = arena.Vector{}
		p.Velocity = arena.Vector{}
		return Result{Reset: true}
	}

	clampedPos, axes := bounds.Clamp(next, p.Radius)
	p.Position = clampedPos

	friction := cfg.Friction
	if friction <= 0 {
		friction = 1
	}
	vel := p.Velocity.Scale(friction)
	if axes.X {
		vel.X = 0
	}
	if axes.Y {
		vel.Y = 0
	}

	maxVel := cfg.MaxVel
	if maxVel <= 0 {
		maxVel = 400
	}
	vel = vel.ClampMagnitude(maxVel)

	eps := cfg.Epsilon
	if eps <= 0 {
		eps = arena.MinStatEps
	}
	vel = vel.ZeroBelow(eps)

	if !vel.IsFinite() {
		p.Velocity = arena.Vector{}
		return Result{Clamped: axes, Reset: true}
	}
	p.Velocity = vel

	return Result{Clamped: axes}
}
