package match

import "arena-server/internal/arena"

// PlayerSnapshot is the full-state wire representation of one player.
type PlayerSnapshot struct {
	ID        string        `json:"id"`
	Position  arena.Vector  `json:"position"`
	Velocity  arena.Vector  `json:"velocity"`
	Health    int           `json:"health"`
	MaxHealth int           `json:"maxHealth"`
	Mana      int           `json:"mana"`
	Stamina   int           `json:"stamina"`
	Alive     bool          `json:"alive"`
}

// ProjectileSnapshot is the full-state wire representation of one projectile.
type ProjectileSnapshot struct {
	ID       string       `json:"id"`
	OwnerID  string       `json:"ownerId"`
	Position arena.Vector `json:"position"`
}

// PowerUpSnapshot is the full-state wire representation of one power-up.
type PowerUpSnapshot struct {
	ID       string             `json:"id"`
	Type     arena.PowerUpType  `json:"type"`
	Position arena.Vector       `json:"position"`
	Active   bool               `json:"active"`
}

// Snapshot builds a full-state view of every live entity. Used for
// FULL_STATE_INTERVAL_MS broadcasts, a newly joined spectator's initial
// state_full, and the replay ring's entries.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Players:     make([]PlayerSnapshot, 0, len(s.Players)),
		Projectiles: make([]ProjectileSnapshot, 0, len(s.Projectiles)),
		PowerUps:    make([]PowerUpSnapshot, 0, len(s.PowerUps)),
	}
	for _, p := range s.Players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID: p.ID, Position: p.Position, Velocity: p.Velocity,
			Health: p.Health, MaxHealth: p.MaxHealth,
			Mana: p.Mana, Stamina: p.Stamina, Alive: p.Alive,
		})
	}
	for _, p := range s.Projectiles {
		snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{ID: p.ID, OwnerID: p.OwnerID, Position: p.Position})
	}
	for _, p := range s.PowerUps {
		snap.PowerUps = append(snap.PowerUps, PowerUpSnapshot{ID: p.ID, Type: p.Type, Position: p.Position, Active: p.Active})
	}
	return snap
}
