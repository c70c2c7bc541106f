// Package collision implements the broad/narrow-phase pipeline: grid
// candidates filtered by a fixed collision-layer matrix, circle-circle
// narrow-phase tests, and player-player separation.
package collision

import (
	"arena-server/internal/arena"
	"arena-server/internal/spatial"
)

// Record describes one resolved collision between two entities.
type Record struct {
	A           string
	B           string
	Point       arena.Vector
	Normal      arena.Vector // points from A to B
	Penetration float64
}

// Lookup resolves an entity id to its collision surface.
type Lookup func(id string) (arena.Circle, bool)

// OwnerLookup resolves a projectile id to its owner id, reporting false for
// non-projectile entities.
type OwnerLookup func(id string) (string, bool)

var allowedPairs = map[[2]arena.CollisionLayer]bool{
	{arena.LayerPlayer, arena.LayerPlayer}:         true,
	{arena.LayerPlayer, arena.LayerProjectile}:     true,
	{arena.LayerProjectile, arena.LayerPlayer}:     true,
	{arena.LayerPlayer, arena.LayerPowerUp}:        true,
	{arena.LayerPowerUp, arena.LayerPlayer}:        true,
	{arena.LayerPlayer, arena.LayerWall}:           true,
	{arena.LayerWall, arena.LayerPlayer}:           true,
	{arena.LayerProjectile, arena.LayerWall}:       true,
	{arena.LayerWall, arena.LayerProjectile}:       true,
}

// LayersAllowed reports whether the fixed collision matrix permits testing
// a pair of the given layers.
func LayersAllowed(a, b arena.CollisionLayer) bool {
	return allowedPairs[[2]arena.CollisionLayer{a, b}]
}

// Detect runs the broad phase (grid nearby query) followed by the narrow
// phase (circle-circle overlap) over every live entity id, deduplicating
// pairs and excluding a projectile colliding with its own owner.
func Detect(ids []string, grid *spatial.Grid, lookup Lookup, ownerOf OwnerLookup) []Record {
	var records []Record
	seen := make(map[[2]string]struct{})

	for _, id := range ids {
		self, ok := lookup(id)
		if !ok {
			continue
		}
		candidates := grid.Nearby(id, 0)
		for _, candidateID := range candidates {
			other, ok := lookup(candidateID)
			if !ok {
				continue
			}
			if !LayersAllowed(self.Layer, other.Layer) {
				continue
			}
			key := pairKey(id, candidateID)
			if _, dup := seen[key]; dup {
				continue
			}
			if isOwner(ownerOf, id, candidateID) || isOwner(ownerOf, candidateID, id) {
				continue
			}
			if rec, hit := circleCircle(self, other); hit {
				seen[key] = struct{}{}
				records = append(records, rec)
			}
		}
	}
	return records
}

func isOwner(ownerOf OwnerLookup, projectileID, playerID string) bool {
	if ownerOf == nil {
		return false
	}
	owner, ok := ownerOf(projectileID)
	return ok && owner == playerID
}

func pairKey(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func circleCircle(a, b arena.Circle) (Record, bool) {
	sumRadii := a.Radius + b.Radius
	distSq := a.Position.DistanceSquared(b.Position)
	if distSq >= sumRadii*sumRadii {
		return Record{}, false
	}
	dist := a.Position.Distance(b.Position)
	normal := arena.Vector{}
	if dist > 1e-9 {
		normal = b.Position.Sub(a.Position).Scale(1 / dist)
	} else {
		normal = arena.Vector{X: 1, Y: 0}
	}
	penetration := sumRadii - dist
	point := a.Position.Add(normal.Scale(a.Radius))
	return Record{A: a.ID, B: b.ID, Point: point, Normal: normal, Penetration: penetration}, true
}

// Separate pushes two overlapping circles apart along the collision normal,
// each moving half the penetration depth, and re-clamps both to bounds.
// Returns the new positions for A and B.
func Separate(rec Record, posA, posB arena.Vector, bounds arena.Bounds, radiusA, radiusB float64) (arena.Vector, arena.Vector) {
	half := rec.Penetration / 2
	newA := posA.Sub(rec.Normal.Scale(half))
	newB := posB.Add(rec.Normal.Scale(half))
	newA, _ = bounds.Clamp(newA, radiusA)
	newB, _ = bounds.Clamp(newB, radiusB)
	return newA, newB
}
