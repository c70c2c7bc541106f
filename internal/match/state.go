// Package match implements the per-match state, delta log, fixed-tick
// supervisor loop, and state broadcaster: the three innermost layers of the
// simulation core.
package match

import (
	"time"

	"arena-server/internal/arena"
)

type orderEntry struct {
	raw      *Delta
	entityID string
	updates  Kind // KindPlayerUpdated or KindProjectileUpdated when this slot accumulates field diffs
}

// State owns the live entity maps and the ordered delta log for one match.
// Every change made through its methods records a diff so the next Commit
// can hand the broadcaster the batch. Entity fields written directly by
// other code, such as the combat resolver, are not recorded unless they
// also go through a State method.
type State struct {
	Players     map[string]*arena.Player
	Projectiles map[string]*arena.Projectile
	PowerUps    map[string]*arena.PowerUp

	order   []orderEntry
	touched map[string]int // entityID -> index into order, for the active tick's update slot
}

// NewState constructs an empty match state.
func NewState() *State {
	return &State{
		Players:     make(map[string]*arena.Player),
		Projectiles: make(map[string]*arena.Projectile),
		PowerUps:    make(map[string]*arena.PowerUp),
		touched:     make(map[string]int),
	}
}

func (s *State) appendRaw(d Delta) {
	s.order = append(s.order, orderEntry{raw: &d})
}

func (s *State) changesFor(entityID string, kind Kind) map[Field]any {
	if idx, ok := s.touched[entityID]; ok {
		entry := &s.order[idx]
		if entry.raw.Changes == nil {
			entry.raw.Changes = make(map[Field]any)
		}
		return entry.raw.Changes
	}
	d := Delta{Kind: kind, EntityID: entityID, Changes: make(map[Field]any)}
	s.order = append(s.order, orderEntry{raw: &d, entityID: entityID, updates: kind})
	s.touched[entityID] = len(s.order) - 1
	return s.order[len(s.order)-1].raw.Changes
}

// JoinPlayer adds a new player and records a player_joined delta.
func (s *State) JoinPlayer(p *arena.Player) {
	s.Players[p.ID] = p
	s.appendRaw(Delta{Kind: KindPlayerJoined, EntityID: p.ID, Payload: p})
}

// RemovePlayer deletes a player and records a player_left delta.
func (s *State) RemovePlayer(id string) {
	delete(s.Players, id)
	s.appendRaw(Delta{Kind: KindPlayerLeft, EntityID: id})
}

// SetPlayerPosition updates position and records the diff.
func (s *State) SetPlayerPosition(id string, pos arena.Vector) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	p.Position = pos
	s.changesFor(id, KindPlayerUpdated)[FieldPosition] = pos
}

// SetPlayerVelocity updates velocity and records the diff.
func (s *State) SetPlayerVelocity(id string, vel arena.Vector) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	p.Velocity = vel
	s.changesFor(id, KindPlayerUpdated)[FieldVelocity] = vel
}

// SetPlayerHealth applies damage/heal to a player's health and records the
// diff along with the alive flag when it flips.
func (s *State) SetPlayerHealth(id string, health int, now time.Time, damaged bool) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	wasAlive := p.Alive
	if health < 0 {
		health = 0
	}
	if health > p.MaxHealth {
		health = p.MaxHealth
	}
	p.Health = health
	p.Alive = health > 0
	if damaged {
		p.Cooldowns.LastDamage = now
	}
	changes := s.changesFor(id, KindPlayerUpdated)
	changes[FieldHealth] = health
	if wasAlive != p.Alive {
		changes[FieldAlive] = p.Alive
	}
}

// SetPlayerResources updates mana/stamina and records whichever changed.
func (s *State) SetPlayerResources(id string, mana, stamina int) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	changes := s.changesFor(id, KindPlayerUpdated)
	if mana != p.Mana {
		p.Mana = mana
		changes[FieldMana] = mana
	}
	if stamina != p.Stamina {
		p.Stamina = stamina
		changes[FieldStamina] = stamina
	}
}

// SetPlayerStatus arms a status flag and records the diff.
func (s *State) SetPlayerStatus(id string, flag arena.StatusFlag, end time.Time) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	p.SetStatus(flag, end)
	s.changesFor(id, KindPlayerUpdated)[FieldStatus] = map[string]time.Time{string(flag): end}
}

// TouchPlayerCooldowns records a diff snapshot of a player's cooldown
// timestamps (used after combat resolution mutated them directly).
func (s *State) TouchPlayerCooldowns(id string) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	s.changesFor(id, KindPlayerUpdated)[FieldCooldowns] = p.Cooldowns
}

// TouchPlayerPowerUps records a diff snapshot of a player's active
// power-up modifiers.
func (s *State) TouchPlayerPowerUps(id string) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	s.changesFor(id, KindPlayerUpdated)[FieldPowerUps] = p.PowerUps
}

// SpawnProjectile inserts a new projectile and records its creation.
func (s *State) SpawnProjectile(p *arena.Projectile) {
	s.Projectiles[p.ID] = p
	s.appendRaw(Delta{Kind: KindProjectileCreated, EntityID: p.ID, Payload: p})
}

// SetProjectilePosition updates a projectile's position/distance and
// records the diff.
func (s *State) SetProjectilePosition(id string, pos arena.Vector, distance float64) {
	p, ok := s.Projectiles[id]
	if !ok {
		return
	}
	p.Position = pos
	p.DistanceTraveled = distance
	changes := s.changesFor(id, KindProjectileUpdated)
	changes[FieldPosition] = pos
	changes[FieldDistanceTraveled] = distance
}

// DestroyProjectile removes a projectile and records its destruction.
func (s *State) DestroyProjectile(id string) {
	delete(s.Projectiles, id)
	s.appendRaw(Delta{Kind: KindProjectileDestroyed, EntityID: id})
}

// SetPowerUpState records a power-up's active/position state transition.
func (s *State) SetPowerUpState(p *arena.PowerUp) {
	s.appendRaw(Delta{Kind: KindPowerUpState, EntityID: p.ID, Payload: p})
}

// EmitGameEvent records a free-form lifecycle event.
func (s *State) EmitGameEvent(name string, data any) {
	s.appendRaw(Delta{Kind: KindGameEvent, Payload: GameEventPayload{Name: name, Data: data}})
}

// Commit harvests the ordered delta log for the tick just completed and
// resets internal bookkeeping for the next tick.
func (s *State) Commit() []Delta {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]Delta, 0, len(s.order))
	for _, entry := range s.order {
		out = append(out, *entry.raw)
	}
	s.order = nil
	s.touched = make(map[string]int)
	return out
}

// AliveCount returns the number of players currently alive.
func (s *State) AliveCount() int {
	count := 0
	for _, p := range s.Players {
		if p.Alive {
			count++
		}
	}
	return count
}
