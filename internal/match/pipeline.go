package match

import (
	"time"

	"arena-server/internal/arena"
	"arena-server/internal/collision"
	"arena-server/internal/combat"
	"arena-server/internal/physics"
	"arena-server/internal/spatial"
)

const regenPerTick = 1

// applyCommands runs every dequeued input through the combat resolver or
// move handler, in FIFO order (the tie-break the spec requires for
// simultaneous damage within one tick).
func (l *Loop) applyCommands(commands []Command, now time.Time) {
	for _, cmd := range commands {
		actor, ok := l.Match.State.Players[cmd.PlayerID]
		if !ok {
			continue // unknown/disconnected player: discard silently
		}
		switch cmd.Action {
		case ActionMove:
			l.applyMove(actor, cmd)
		case ActionAttack, ActionBlock, ActionDodge, ActionCast:
			l.applyCombatAction(actor, cmd, now)
		}
	}
}

func (l *Loop) applyMove(actor *arena.Player, cmd Command) {
	if cmd.Move == nil || !actor.Alive {
		return
	}
	vel := arena.Vector{X: cmd.Move.DX, Y: cmd.Move.DY}.ClampMagnitude(l.Match.Config.MaxVel)
	l.Match.State.SetPlayerVelocity(actor.ID, vel)
}

func (l *Loop) applyCombatAction(actor *arena.Player, cmd Command, now time.Time) {
	var defender *arena.Player
	if cmd.Target != "" {
		defender = l.Match.State.Players[cmd.Target]
	}

	action := combat.Action{
		Type:        combat.ActionType(cmd.Action),
		ActorID:     cmd.PlayerID,
		TargetID:    cmd.Target,
		TargetPos:   cmd.TargetPos,
		Ability:     cmd.Ability,
		HitLocation: cmd.HitLocation,
	}

	res := l.Resolver.Resolve(action, actor, defender, now)
	if !res.Accepted {
		return
	}

	l.Match.State.SetPlayerPosition(actor.ID, actor.Position)
	l.Match.State.SetPlayerResources(actor.ID, actor.Mana, actor.Stamina)
	l.Match.State.TouchPlayerCooldowns(actor.ID)

	if res.Heal > 0 {
		l.Match.State.SetPlayerHealth(actor.ID, actor.Health, now, false)
	}
	if res.SpawnProjectile != nil {
		l.Match.State.SpawnProjectile(res.SpawnProjectile)
	}
	if defender != nil && res.Damage > 0 {
		l.Match.State.SetPlayerHealth(defender.ID, defender.Health, now, true)
		if !defender.Alive {
			l.Match.State.EmitGameEvent("player_eliminated", defender.ID)
		}
	}
}

// integratePhysics advances every alive player one fixed step.
func (l *Loop) integratePhysics(dtSeconds float64) {
	cfg := physics.Config{Friction: l.Match.Config.Friction, MaxVel: l.Match.Config.MaxVel, Epsilon: arena.MinStatEps}
	for _, p := range l.Match.State.Players {
		if !p.Alive {
			continue
		}
		physics.Step(p, dtSeconds, l.Match.Bounds, cfg)
		l.Match.State.SetPlayerPosition(p.ID, p.Position)
		l.Match.State.SetPlayerVelocity(p.ID, p.Velocity)
	}
}

// advanceProjectiles integrates every live projectile, destroying any that
// exceed their range or leave the world bounds.
func (l *Loop) advanceProjectiles(dtSeconds float64) {
	for id, p := range l.Match.State.Projectiles {
		p.Advance(dtSeconds)
		if !p.Live() || !l.Match.Bounds.Contains(p.Position, p.Size) {
			l.Match.State.DestroyProjectile(id)
			continue
		}
		l.Match.State.SetProjectilePosition(id, p.Position, p.DistanceTraveled)
	}
}

// rebuildGrid recomputes the broad-phase index from current positions.
func (l *Loop) rebuildGrid() {
	l.grid = spatial.New(l.Match.Bounds, l.Match.Config.CellSize)
	for _, p := range l.Match.State.Players {
		if p.Alive {
			l.grid.Insert(p.ID, p.Position, p.Radius)
		}
	}
	for _, p := range l.Match.State.Projectiles {
		l.grid.Insert(p.ID, p.Position, p.Size)
	}
	for _, p := range l.Match.State.PowerUps {
		if p.Active {
			l.grid.Insert(p.ID, p.Position, arena.PowerUpRadius)
		}
	}
}

func (l *Loop) lookupCircle(id string) (arena.Circle, bool) {
	if p, ok := l.Match.State.Players[id]; ok {
		return p.Circle(), true
	}
	if p, ok := l.Match.State.Projectiles[id]; ok {
		return p.Circle(), true
	}
	if p, ok := l.Match.State.PowerUps[id]; ok {
		return p.Circle(), true
	}
	return arena.Circle{}, false
}

func (l *Loop) ownerOf(id string) (string, bool) {
	if p, ok := l.Match.State.Projectiles[id]; ok {
		return p.OwnerID, true
	}
	return "", false
}

// resolveCollisions runs the narrow phase over every live entity id and
// applies separations and projectile-hit damage.
func (l *Loop) resolveCollisions(now time.Time) {
	ids := make([]string, 0, len(l.Match.State.Players)+len(l.Match.State.Projectiles)+len(l.Match.State.PowerUps))
	for id := range l.Match.State.Players {
		ids = append(ids, id)
	}
	for id := range l.Match.State.Projectiles {
		ids = append(ids, id)
	}
	for id := range l.Match.State.PowerUps {
		ids = append(ids, id)
	}

	records := collision.Detect(ids, l.grid, l.lookupCircle, l.ownerOf)
	hitProjectiles := make(map[string]struct{})

	for _, rec := range records {
		a, b := rec.A, rec.B
		switch {
		case l.bothPlayers(a, b):
			l.separatePlayers(a, b, rec)
		case l.isProjectileHit(a, b):
			l.applyProjectileHit(a, b, hitProjectiles, now)
		case l.isProjectileHit(b, a):
			l.applyProjectileHit(b, a, hitProjectiles, now)
		case l.isPowerUpPickup(a, b):
			l.collectPowerUp(a, b, now)
		case l.isPowerUpPickup(b, a):
			l.collectPowerUp(b, a, now)
		}
	}
}

func (l *Loop) bothPlayers(a, b string) bool {
	_, aok := l.Match.State.Players[a]
	_, bok := l.Match.State.Players[b]
	return aok && bok
}

func (l *Loop) separatePlayers(a, b string, rec collision.Record) {
	pa, pb := l.Match.State.Players[a], l.Match.State.Players[b]
	newA, newB := collision.Separate(rec, pa.Position, pb.Position, l.Match.Bounds, pa.Radius, pb.Radius)
	l.Match.State.SetPlayerPosition(a, newA)
	l.Match.State.SetPlayerPosition(b, newB)
}

func (l *Loop) isProjectileHit(projectileID, playerID string) bool {
	_, isProj := l.Match.State.Projectiles[projectileID]
	_, isPlayer := l.Match.State.Players[playerID]
	return isProj && isPlayer
}

func (l *Loop) applyProjectileHit(projectileID, playerID string, hit map[string]struct{}, now time.Time) {
	if _, already := hit[projectileID]; already {
		return
	}
	proj, ok := l.Match.State.Projectiles[projectileID]
	if !ok {
		return
	}
	defender := l.Match.State.Players[playerID]
	if defender == nil || !defender.Alive {
		return
	}
	hit[projectileID] = struct{}{}
	damage := proj.Damage
	if defender.HasStatus(arena.StatusInvulnerable, now) {
		damage = 0
	}
	if damage > 0 {
		defender.ApplyDamage(damage, now)
		l.Match.State.SetPlayerHealth(playerID, defender.Health, now, true)
		if !defender.Alive {
			l.Match.State.EmitGameEvent("player_eliminated", playerID)
		}
	}
	l.Match.State.DestroyProjectile(projectileID)
}

func (l *Loop) isPowerUpPickup(powerUpID, playerID string) bool {
	_, isPU := l.Match.State.PowerUps[powerUpID]
	_, isPlayer := l.Match.State.Players[playerID]
	return isPU && isPlayer
}

func (l *Loop) collectPowerUp(powerUpID, playerID string, now time.Time) {
	pu, ok := l.Match.State.PowerUps[powerUpID]
	if !ok || !pu.Active {
		return
	}
	player := l.Match.State.Players[playerID]
	if player == nil || !player.Alive {
		return
	}
	switch pu.Type {
	case arena.PowerUpHealthPack:
		player.Heal(int(pu.Magnitude))
		l.Match.State.SetPlayerHealth(playerID, player.Health, now, false)
	default:
		player.ApplyPowerUp(pu.Type, pu.Magnitude, now.Add(pu.Duration))
		l.Match.State.TouchPlayerPowerUps(playerID)
	}
	pu.Collect(now)
	l.Match.State.SetPowerUpState(pu)
}

// advanceTimers expires status flags, prunes power-ups, and regenerates
// resources once REGEN_DELAY has elapsed since the player's last damage.
func (l *Loop) advanceTimers(now time.Time) {
	for id, p := range l.Match.State.Players {
		p.ClearExpiredStatus(now)
		p.PrunePowerUps(now)
		if !p.Alive {
			continue
		}
		if now.Sub(p.Cooldowns.LastDamage) > l.Match.Config.RegenDelay {
			mana := p.Mana
			stamina := p.Stamina
			if mana < p.MaxMana {
				mana += regenPerTick
			}
			if stamina < p.MaxStamina {
				stamina += regenPerTick
			}
			l.Match.State.SetPlayerResources(id, mana, stamina)
		}
	}
	for _, pu := range l.Match.State.PowerUps {
		if pu.MaybeRespawn(now) {
			l.Match.State.SetPowerUpState(pu)
		}
	}
}
