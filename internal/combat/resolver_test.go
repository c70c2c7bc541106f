package combat

import (
	"testing"
	"time"

	"arena-server/internal/arena"
)

func TestComputeDamageHeadshotCritBoost(t *testing.T) {
	now := time.Now()
	attacker := arena.NewPlayer("atk", "u1", arena.Vector{}, 100, arena.Weapon{}, now)
	attacker.Stats = arena.Stats{Attack: 10, CriticalChance: 1.0, Accuracy: 0}
	attacker.ApplyPowerUp(arena.PowerUpDamageBoost, 0.5, now.Add(time.Minute))

	defender := arena.NewPlayer("def", "u2", arena.Vector{X: 50, Y: 0}, 100, arena.Weapon{}, now)

	weapon := arena.Weapon{Damage: 20, EffectiveRange: 100, DamageType: arena.DamagePhysical}

	damage, crit, headshot := ComputeDamage(attacker, defender, weapon, 50, HitHead, 0, now)
	if damage != 135 {
		t.Fatalf("expected damage 135, got %d", damage)
	}
	if !crit {
		t.Fatal("expected crit to register")
	}
	if !headshot {
		t.Fatal("expected headshot to register")
	}
}

func TestComputeDamageFalloffBeyondEffectiveRange(t *testing.T) {
	now := time.Now()
	attacker := arena.NewPlayer("atk", "u1", arena.Vector{}, 100, arena.Weapon{}, now)
	defender := arena.NewPlayer("def", "u2", arena.Vector{}, 100, arena.Weapon{}, now)
	weapon := arena.Weapon{Damage: 100, EffectiveRange: 100}

	// distance = 2*R: falloff = 1 - (100/100)*0.3 = 0.7
	closeDamage, _, _ := ComputeDamage(attacker, defender, weapon, 50, HitBody, 1, now)
	farDamage, _, _ := ComputeDamage(attacker, defender, weapon, 200, HitBody, 1, now)
	if farDamage >= closeDamage {
		t.Fatalf("expected falloff to reduce damage at range, close=%d far=%d", closeDamage, farDamage)
	}
}

func TestComputeDamageFloorsAtOne(t *testing.T) {
	now := time.Now()
	attacker := arena.NewPlayer("atk", "u1", arena.Vector{}, 100, arena.Weapon{}, now)
	defender := arena.NewPlayer("def", "u2", arena.Vector{}, 100, arena.Weapon{}, now)
	defender.Stats.Armor = 1000
	weapon := arena.Weapon{Damage: 1}

	damage, _, _ := ComputeDamage(attacker, defender, weapon, 0, HitBody, 1, now)
	if damage != 1 {
		t.Fatalf("expected damage floored at 1, got %d", damage)
	}
}

func TestResolveAttackRespectsCooldown(t *testing.T) {
	now := time.Now()
	actor := arena.NewPlayer("atk", "u1", arena.Vector{}, 100, arena.Weapon{Cooldown: time.Second, MaxRange: 100}, now)
	defender := arena.NewPlayer("def", "u2", arena.Vector{X: 10}, 100, arena.Weapon{}, now)
	resolver := NewResolver(nil, nil)

	res := resolver.Resolve(Action{Type: ActionAttack}, actor, defender, now)
	if !res.Accepted {
		t.Fatalf("expected first attack accepted, got reason %q", res.Reason)
	}

	res = resolver.Resolve(Action{Type: ActionAttack}, actor, defender, now.Add(100*time.Millisecond))
	if res.Accepted {
		t.Fatal("expected second attack rejected by cooldown")
	}
	if res.Reason != "on_cooldown" {
		t.Fatalf("expected on_cooldown reason, got %q", res.Reason)
	}
}

func TestResolveAttackOutOfRange(t *testing.T) {
	now := time.Now()
	actor := arena.NewPlayer("atk", "u1", arena.Vector{}, 100, arena.Weapon{MaxRange: 10}, now)
	defender := arena.NewPlayer("def", "u2", arena.Vector{X: 500}, 100, arena.Weapon{}, now)
	resolver := NewResolver(nil, nil)

	res := resolver.Resolve(Action{Type: ActionAttack}, actor, defender, now)
	if res.Accepted {
		t.Fatal("expected out-of-range attack rejected")
	}
	if res.Reason != "out_of_range" {
		t.Fatalf("expected out_of_range reason, got %q", res.Reason)
	}
}

func TestResolveDodgeMovesActorAndGatesOnStamina(t *testing.T) {
	now := time.Now()
	actor := arena.NewPlayer("atk", "u1", arena.Vector{}, 100, arena.Weapon{}, now)
	actor.Stamina = 5
	resolver := NewResolver(nil, nil)

	res := resolver.Resolve(Action{Type: ActionDodge}, actor, nil, now)
	if res.Accepted {
		t.Fatal("expected dodge rejected for insufficient stamina")
	}

	actor.Stamina = 100
	before := actor.Position
	res = resolver.Resolve(Action{Type: ActionDodge, TargetPos: &arena.Vector{X: 1, Y: 0}}, actor, nil, now)
	if !res.Accepted {
		t.Fatalf("expected dodge accepted, got reason %q", res.Reason)
	}
	if actor.Position == before {
		t.Fatal("expected dodge to move the actor")
	}
}

func TestResolveCastFireballSpawnsProjectile(t *testing.T) {
	now := time.Now()
	actor := arena.NewPlayer("atk", "u1", arena.Vector{}, 100, arena.Weapon{Damage: 10}, now)
	actor.Mana = 100
	resolver := NewResolver(nil, func() string { return "proj1" })

	res := resolver.Resolve(Action{Type: ActionCast, Ability: "fireball", TargetPos: &arena.Vector{X: 100}}, actor, nil, now)
	if !res.Accepted {
		t.Fatalf("expected cast accepted, got reason %q", res.Reason)
	}
	if res.SpawnProjectile == nil {
		t.Fatal("expected fireball to spawn a projectile")
	}
	if res.SpawnProjectile.OwnerID != "atk" {
		t.Fatalf("expected projectile owned by caster, got %s", res.SpawnProjectile.OwnerID)
	}
}
