// Package combat implements the cooldown-gated action pipeline: precondition
// checks, damage calculation (falloff, crit, headshot, power-ups,
// proficiency), and the state transitions attack/block/dodge/cast actions
// produce. The resolver never spawns entities or writes delta records
// itself; it mutates the actor/defender it is given directly and returns a
// Result describing anything the caller (the match loop) must apply to the
// rest of match state.
package combat

import (
	"math"
	"math/rand"
	"time"

	"arena-server/internal/arena"
)

// ActionType enumerates the combat actions a player may issue.
type ActionType string

const (
	ActionAttack ActionType = "attack"
	ActionBlock  ActionType = "block"
	ActionDodge  ActionType = "dodge"
	ActionCast   ActionType = "cast"
)

// HitLocation distinguishes a headshot from a body hit.
type HitLocation string

const (
	HitBody HitLocation = "body"
	HitHead HitLocation = "head"
)

// Tunable combat constants.
const (
	DamageFloor          = 0.1
	CritMultiplier       = 1.5
	HeadshotMultiplier   = 2.0
	MaxDamageReduction   = 0.8
	BlockStaminaCost     = 10
	DodgeStaminaCost     = 15
	DodgeDistance        = 80
	DefaultBlockCooldown = 1500 * time.Millisecond
	DefaultDodgeCooldown = 2000 * time.Millisecond
	DefaultCastManaCost  = 20
	DefaultCastCooldown  = 1000 * time.Millisecond
)

// Action captures one actor-issued combat intent for the resolver.
type Action struct {
	Type        ActionType
	ActorID     string
	TargetID    string
	TargetPos   *arena.Vector
	Ability     string
	HitLocation HitLocation
}

// Result reports the outcome of resolving an Action. Rejected results carry
// a Reason drawn from the precondition error vocabulary.
type Result struct {
	Accepted        bool
	Reason          string
	Damage          int
	Crit            bool
	Headshot        bool
	TargetID        string
	SpawnProjectile *arena.Projectile
	Heal            int
	Now             time.Time
}

// Resolver holds the RNG used for crit rolls and the id generator for
// spawned projectiles/abilities.
type Resolver struct {
	rng    *rand.Rand
	nextID func() string
}

// NewResolver constructs a Resolver. A nil rng defaults to a process-local
// source seeded from the current time.
func NewResolver(rng *rand.Rand, nextID func() string) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Resolver{rng: rng, nextID: nextID}
}

func (r *Resolver) newID() string {
	if r.nextID != nil {
		return r.nextID()
	}
	return "projectile"
}

// Resolve dispatches to the per-action handler. defender may be nil for
// actions that do not target another player (dodge, self-cast).
func (r *Resolver) Resolve(action Action, actor, defender *arena.Player, now time.Time) Result {
	if actor == nil || !actor.Alive {
		return Result{Reason: "precondition"}
	}
	switch action.Type {
	case ActionAttack:
		return r.resolveAttack(action, actor, defender, now)
	case ActionBlock:
		return r.resolveBlock(actor, now)
	case ActionDodge:
		return r.resolveDodge(action, actor, now)
	case ActionCast:
		return r.resolveCast(action, actor, defender, now)
	default:
		return Result{Reason: "invalid_input"}
	}
}

func (r *Resolver) resolveAttack(action Action, actor, defender *arena.Player, now time.Time) Result {
	if now.Sub(actor.Cooldowns.LastAttack) < actor.Weapon.Cooldown {
		return Result{Reason: "on_cooldown"}
	}
	if defender == nil || !defender.Alive {
		return Result{Reason: "out_of_range"}
	}
	distance := actor.Position.Distance(defender.Position)
	if actor.Weapon.MaxRange > 0 && distance > actor.Weapon.MaxRange {
		return Result{Reason: "out_of_range"}
	}
	if defender.HasStatus(arena.StatusInvulnerable, now) {
		actor.Cooldowns.LastAttack = now
		return Result{Accepted: true, TargetID: defender.ID, Now: now}
	}

	damage, crit, headshot := ComputeDamage(actor, defender, actor.Weapon, distance, action.HitLocation, r.rng.Float64(), now)
	actor.Cooldowns.LastAttack = now
	if defender.HasStatus(arena.StatusBlocking, now) {
		damage /= 2
	}
	defender.ApplyDamage(damage, now)

	return Result{
		Accepted: true,
		Damage:   damage,
		Crit:     crit,
		Headshot: headshot,
		TargetID: defender.ID,
		Now:      now,
	}
}

func (r *Resolver) resolveBlock(actor *arena.Player, now time.Time) Result {
	if now.Sub(actor.Cooldowns.LastBlock) < DefaultBlockCooldown {
		return Result{Reason: "on_cooldown"}
	}
	if actor.Stamina < BlockStaminaCost {
		return Result{Reason: "insufficient_resource"}
	}
	actor.Cooldowns.LastBlock = now
	actor.Stamina -= BlockStaminaCost
	actor.SetStatus(arena.StatusBlocking, now.Add(500*time.Millisecond))
	return Result{Accepted: true, Now: now}
}

func (r *Resolver) resolveDodge(action Action, actor *arena.Player, now time.Time) Result {
	if now.Sub(actor.Cooldowns.LastDodge) < DefaultDodgeCooldown {
		return Result{Reason: "on_cooldown"}
	}
	if actor.Stamina < DodgeStaminaCost {
		return Result{Reason: "insufficient_resource"}
	}
	actor.Cooldowns.LastDodge = now
	actor.Stamina -= DodgeStaminaCost

	direction := actor.Velocity.Normalized()
	if action.TargetPos != nil {
		direction = action.TargetPos.Sub(actor.Position).Normalized()
	}
	if direction == (arena.Vector{}) {
		direction = arena.Vector{X: 1, Y: 0}
	}
	actor.Position = actor.Position.Add(direction.Scale(DodgeDistance))
	actor.SetStatus(arena.StatusInvulnerable, now.Add(300*time.Millisecond))
	return Result{Accepted: true, Now: now}
}

func (r *Resolver) resolveCast(action Action, actor, defender *arena.Player, now time.Time) Result {
	if now.Sub(actor.Cooldowns.LastAttack) < DefaultCastCooldown {
		return Result{Reason: "on_cooldown"}
	}
	if actor.Mana < DefaultCastManaCost {
		return Result{Reason: "insufficient_resource"}
	}
	actor.Mana -= DefaultCastManaCost
	actor.Cooldowns.LastAttack = now
	actor.SetStatus(arena.StatusCasting, now.Add(200*time.Millisecond))

	switch action.Ability {
	case "heal":
		amount := 25
		actor.Heal(amount)
		return Result{Accepted: true, Heal: amount, Now: now}
	case "fireball":
		direction := arena.Vector{X: 1, Y: 0}
		if action.TargetPos != nil {
			direction = action.TargetPos.Sub(actor.Position).Normalized()
		} else if defender != nil {
			direction = defender.Position.Sub(actor.Position).Normalized()
		}
		weapon := arena.Weapon{
			Type:           arena.WeaponStaff,
			Damage:         actor.Weapon.Damage * 1.5,
			DamageType:     arena.DamageMagic,
			MaxRange:       300,
			ProjectileSize: 10,
		}
		speed := 250.0
		proj := arena.NewProjectile(r.newID(), actor.ID, actor.Position, direction.Scale(speed), weapon, now)
		return Result{Accepted: true, SpawnProjectile: proj, Now: now}
	default:
		return Result{Reason: "invalid_input"}
	}
}

// ComputeDamage implements the damage formula from spec section 4.4.2:
// base (weapon + attack stat), falloff beyond effective range, crit roll,
// headshot multiplier, additive damage_boost power-ups, armor/magic-resist
// subtraction by damage type, capped damage reduction, and weapon
// proficiency. critRoll is an injected uniform(0,1) sample so tests can
// force deterministic crit outcomes.
func ComputeDamage(attacker, defender *arena.Player, weapon arena.Weapon, distance float64, loc HitLocation, critRoll float64, now time.Time) (damage int, crit bool, headshot bool) {
	base := weapon.Damage + attacker.Stats.Attack

	falloff := 1.0
	if weapon.EffectiveRange > 0 && distance > weapon.EffectiveRange {
		r := weapon.EffectiveRange
		falloff = 1 - (distance-r)/r*0.3
		if falloff < DamageFloor {
			falloff = DamageFloor
		}
	}
	dmg := base * falloff

	critChance := attacker.Stats.CriticalChance + attacker.Stats.Accuracy*0.1
	if critRoll < critChance {
		dmg *= CritMultiplier
		crit = true
	}

	if loc == HitHead {
		dmg *= HeadshotMultiplier
		headshot = true
	}

	boost := attacker.PowerUpModifier(arena.PowerUpDamageBoost, now)
	dmg *= 1 + boost

	var defenseStat float64
	if weapon.DamageType == arena.DamageMagic {
		defenseStat = defender.Stats.MagicResist
	} else {
		defenseStat = defender.Stats.Armor
	}
	dmg -= defenseStat

	reduction := defender.PowerUpModifier(arena.PowerUpShield, now)
	if reduction > MaxDamageReduction {
		reduction = MaxDamageReduction
	}
	if reduction > 0 {
		dmg *= 1 - reduction
	}

	dmg *= weapon.ProficiencyMultiplier()

	if dmg < 1 {
		dmg = 1
	}
	return int(math.Round(dmg)), crit, headshot
}
