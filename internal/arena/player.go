package arena

import "time"

// StatusFlag identifies a timed boolean condition on a player.
type StatusFlag string

const (
	StatusBlocking     StatusFlag = "blocking"
	StatusInvulnerable StatusFlag = "invulnerable"
	StatusCasting      StatusFlag = "casting"
)

// Stats captures the flat combat-relevant attributes of a player.
type Stats struct {
	Attack         float64 `json:"attack"`
	Armor          float64 `json:"armor"`
	MagicResist    float64 `json:"magicResist"`
	CriticalChance float64 `json:"criticalChance"`
	Accuracy       float64 `json:"accuracy"`
}

// Cooldowns tracks the last-use timestamp of each gated action. Every field
// is monotonically non-decreasing for the lifetime of a player.
type Cooldowns struct {
	LastAttack time.Time `json:"lastAttack"`
	LastBlock  time.Time `json:"lastBlock"`
	LastDodge  time.Time `json:"lastDodge"`
	LastDamage time.Time `json:"lastDamage"`
}

// PowerUpEffect is an active power-up modifier with its expiry.
type PowerUpEffect struct {
	Modifier float64   `json:"modifier"`
	EndTime  time.Time `json:"endTime"`
}

const (
	// PowerUpRadius is the pickup radius used for collision/broad-phase.
	PowerUpRadius = 16
	// DefaultPlayerRadius is the collision radius of a player entity.
	DefaultPlayerRadius = 20
	// MinStatEps is the velocity magnitude below which a component is
	// treated as at rest by the integrator.
	MinStatEps = 0.01
)

// Player is the authoritative state of one participant in a match.
type Player struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Position  Vector `json:"position"`
	Velocity  Vector `json:"velocity"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"maxHealth"`
	Mana      int    `json:"mana"`
	MaxMana   int    `json:"maxMana"`
	Stamina   int    `json:"stamina"`
	MaxStamina int   `json:"maxStamina"`
	Alive     bool   `json:"alive"`
	Radius    float64 `json:"radius"`

	Weapon          Weapon                              `json:"-"`
	Stats           Stats                               `json:"stats"`
	StatusEnds      map[StatusFlag]time.Time             `json:"-"`
	Cooldowns       Cooldowns                            `json:"-"`
	SelectedAbility string                                `json:"selectedAbility,omitempty"`
	PowerUps        map[PowerUpType]PowerUpEffect        `json:"-"`

	Skill    float64   `json:"-"`
	JoinedAt time.Time `json:"-"`
}

// NewPlayer constructs a fresh player entity at the given spawn position.
func NewPlayer(id, ownerID string, spawn Vector, health int, weapon Weapon, now time.Time) *Player {
	return &Player{
		ID:         id,
		OwnerID:    ownerID,
		Position:   spawn,
		Health:     health,
		MaxHealth:  health,
		Mana:       100,
		MaxMana:    100,
		Stamina:    100,
		MaxStamina: 100,
		Alive:      health > 0,
		Radius:     DefaultPlayerRadius,
		Weapon:     weapon,
		Stats:      Stats{},
		StatusEnds: make(map[StatusFlag]time.Time),
		PowerUps:   make(map[PowerUpType]PowerUpEffect),
		JoinedAt:   now,
	}
}

// HasStatus reports whether flag is set and has not yet expired.
func (p *Player) HasStatus(flag StatusFlag, now time.Time) bool {
	if p == nil || p.StatusEnds == nil {
		return false
	}
	end, ok := p.StatusEnds[flag]
	if !ok {
		return false
	}
	return now.Before(end)
}

// SetStatus arms flag until end.
func (p *Player) SetStatus(flag StatusFlag, end time.Time) {
	if p.StatusEnds == nil {
		p.StatusEnds = make(map[StatusFlag]time.Time)
	}
	p.StatusEnds[flag] = end
}

// ClearExpiredStatus drops every status flag whose end time has passed.
func (p *Player) ClearExpiredStatus(now time.Time) {
	for flag, end := range p.StatusEnds {
		if !now.Before(end) {
			delete(p.StatusEnds, flag)
		}
	}
}

// ApplyDamage subtracts amount from health, floored at zero, and maintains
// the alive<=>health>0 invariant.
func (p *Player) ApplyDamage(amount int, now time.Time) {
	if amount < 0 {
		amount = 0
	}
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
	p.Alive = p.Health > 0
	if amount > 0 {
		p.Cooldowns.LastDamage = now
	}
}

// Heal adds amount to health, capped at MaxHealth, and revives the player
// when the result is positive.
func (p *Player) Heal(amount int) {
	if amount < 0 {
		amount = 0
	}
	p.Health += amount
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	p.Alive = p.Health > 0
}

// PowerUpModifier returns the active modifier for a given power-up type, or
// 0 when none is armed or it has expired.
func (p *Player) PowerUpModifier(kind PowerUpType, now time.Time) float64 {
	effect, ok := p.PowerUps[kind]
	if !ok || now.After(effect.EndTime) {
		return 0
	}
	return effect.Modifier
}

// ApplyPowerUp arms or refreshes a power-up effect.
func (p *Player) ApplyPowerUp(kind PowerUpType, modifier float64, end time.Time) {
	if p.PowerUps == nil {
		p.PowerUps = make(map[PowerUpType]PowerUpEffect)
	}
	p.PowerUps[kind] = PowerUpEffect{Modifier: modifier, EndTime: end}
}

// PrunePowerUps drops every expired power-up effect.
func (p *Player) PrunePowerUps(now time.Time) {
	for kind, effect := range p.PowerUps {
		if now.After(effect.EndTime) {
			delete(p.PowerUps, kind)
		}
	}
}
