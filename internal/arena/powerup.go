package arena

import "time"

// PowerUpType enumerates the arena pickup archetypes.
type PowerUpType string

const (
	PowerUpSpeedBoost  PowerUpType = "speed_boost"
	PowerUpDamageBoost PowerUpType = "damage_boost"
	PowerUpHealthPack  PowerUpType = "health_pack"
	PowerUpShield      PowerUpType = "shield"
	PowerUpRapidFire   PowerUpType = "rapid_fire"
)

// PowerUp is a world pickup that toggles between active and a respawn
// cooldown.
type PowerUp struct {
	ID           string        `json:"id"`
	Type         PowerUpType   `json:"type"`
	Position     Vector        `json:"position"`
	Active       bool          `json:"active"`
	SpawnTime    time.Time     `json:"-"`
	Duration     time.Duration `json:"-"`
	Magnitude    float64       `json:"magnitude"`
	RespawnDelay time.Duration `json:"-"`
}

// NewPowerUp constructs an active power-up at pos.
func NewPowerUp(id string, kind PowerUpType, pos Vector, magnitude float64, duration, respawnDelay time.Duration, now time.Time) *PowerUp {
	return &PowerUp{
		ID:           id,
		Type:         kind,
		Position:     pos,
		Active:       true,
		SpawnTime:    now,
		Duration:     duration,
		Magnitude:    magnitude,
		RespawnDelay: respawnDelay,
	}
}

// Collect deactivates the power-up, starting its respawn timer from now.
func (p *PowerUp) Collect(now time.Time) {
	p.Active = false
	p.SpawnTime = now
}

// MaybeRespawn flips the power-up back to active exactly once the respawn
// delay has elapsed since it was last collected, reporting whether a
// transition happened.
func (p *PowerUp) MaybeRespawn(now time.Time) bool {
	if p.Active {
		return false
	}
	if now.Sub(p.SpawnTime) < p.RespawnDelay {
		return false
	}
	p.Active = true
	p.SpawnTime = now
	return true
}
