package arena

import (
	"testing"
	"time"
)

func TestProjectileAdvanceAndExpiry(t *testing.T) {
	now := time.Now()
	w := Weapon{ProjectileSize: 5, Damage: 10, MaxRange: 100}
	p := NewProjectile("pr1", "owner", Vector{}, Vector{X: 50, Y: 0}, w, now)

	if !p.Live() {
		t.Fatal("expected fresh projectile to be live")
	}

	p.Advance(1) // 50 units
	p.Advance(1) // 50 more units, total 100

	if p.Live() {
		t.Fatal("expected projectile to expire once distance reaches range")
	}
	if p.DistanceTraveled < p.Range {
		t.Fatalf("expected distance traveled >= range, got %f < %f", p.DistanceTraveled, p.Range)
	}
}

func TestProjectileDoesNotOwnItself(t *testing.T) {
	w := Weapon{}
	p := NewProjectile("pr1", "owner", Vector{}, Vector{}, w, time.Now())
	if p.OwnerID != "owner" {
		t.Fatalf("expected owner preserved, got %s", p.OwnerID)
	}
}
