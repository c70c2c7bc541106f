package arena

import "time"

// Projectile is a server-owned moving hazard spawned by a weapon or ability.
type Projectile struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"ownerId"`
	Position         Vector     `json:"position"`
	Velocity         Vector     `json:"velocity"`
	Size             float64    `json:"size"`
	Damage           int        `json:"damage"`
	DamageType       DamageType `json:"-"`
	Range            float64    `json:"range"`
	DistanceTraveled float64    `json:"distanceTraveled"`
	WeaponType       WeaponType `json:"weaponType"`
	CreatedAt        time.Time  `json:"-"`
}

// NewProjectile constructs a projectile fired by owner.
func NewProjectile(id, ownerID string, pos, velocity Vector, w Weapon, now time.Time) *Projectile {
	return &Projectile{
		ID:         id,
		OwnerID:    ownerID,
		Position:   pos,
		Velocity:   velocity,
		Size:       w.ProjectileSize,
		Damage:     int(w.Damage),
		DamageType: w.DamageType,
		Range:      w.MaxRange,
		WeaponType: w.Type,
		CreatedAt:  now,
	}
}

// Live reports whether the projectile has not yet exceeded its range.
func (p *Projectile) Live() bool {
	return p.DistanceTraveled < p.Range
}

// Advance integrates position for dt seconds and accumulates distance.
func (p *Projectile) Advance(dt float64) {
	delta := p.Velocity.Scale(dt)
	p.Position = p.Position.Add(delta)
	p.DistanceTraveled += delta.Length()
}
