package arena

import (
	"testing"
	"time"
)

func TestPlayerAliveInvariant(t *testing.T) {
	now := time.Now()
	p := NewPlayer("p1", "u1", Vector{}, 100, DefaultWeapon(), now)
	if !p.Alive {
		t.Fatal("expected fresh player to be alive")
	}

	p.ApplyDamage(100, now)
	if p.Alive {
		t.Fatal("expected player to be dead at zero health")
	}
	if p.Health != 0 {
		t.Fatalf("expected health floored at zero, got %d", p.Health)
	}

	p.Heal(50)
	if !p.Alive {
		t.Fatal("expected player revived after heal")
	}
}

func TestPlayerStatusExpiry(t *testing.T) {
	now := time.Now()
	p := NewPlayer("p1", "u1", Vector{}, 100, DefaultWeapon(), now)
	p.SetStatus(StatusBlocking, now.Add(time.Second))

	if !p.HasStatus(StatusBlocking, now) {
		t.Fatal("expected blocking status active")
	}

	later := now.Add(2 * time.Second)
	if p.HasStatus(StatusBlocking, later) {
		t.Fatal("expected blocking status expired")
	}

	p.ClearExpiredStatus(later)
	if _, ok := p.StatusEnds[StatusBlocking]; ok {
		t.Fatal("expected expired status removed")
	}
}

func TestPlayerPowerUpModifier(t *testing.T) {
	now := time.Now()
	p := NewPlayer("p1", "u1", Vector{}, 100, DefaultWeapon(), now)
	p.ApplyPowerUp(PowerUpDamageBoost, 0.5, now.Add(time.Second))

	if got := p.PowerUpModifier(PowerUpDamageBoost, now); got != 0.5 {
		t.Fatalf("expected modifier 0.5, got %f", got)
	}

	later := now.Add(2 * time.Second)
	if got := p.PowerUpModifier(PowerUpDamageBoost, later); got != 0 {
		t.Fatalf("expected expired modifier to be zero, got %f", got)
	}

	p.PrunePowerUps(later)
	if _, ok := p.PowerUps[PowerUpDamageBoost]; ok {
		t.Fatal("expected expired power-up pruned")
	}
}
