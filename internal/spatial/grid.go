// Package spatial implements the uniform-cell broad-phase index used by the
// collision resolver to limit candidate pairs.
package spatial

import "arena-server/internal/arena"

// Rect is an axis-aligned query region.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// intersectsCircle reports whether r overlaps the AABB of a circle at pos with
// radius.
func (r Rect) intersectsCircle(pos arena.Vector, radius float64) bool {
	return pos.X+radius >= r.MinX && pos.X-radius <= r.MaxX &&
		pos.Y+radius >= r.MinY && pos.Y-radius <= r.MaxY
}

type cellCoord struct {
	x, y int
}

type entityRecord struct {
	position arena.Vector
	radius   float64
	cells    []cellCoord
}

// Grid partitions an arena into cellSize x cellSize cells and indexes
// entities by the cells their AABB covers.
type Grid struct {
	cellSize float64
	bounds   arena.Bounds
	cells    map[cellCoord][]string
	index    map[string]entityRecord
}

// New constructs a Grid for the given bounds and cell size.
func New(bounds arena.Bounds, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 64
	}
	return &Grid{
		cellSize: cellSize,
		bounds:   bounds,
		cells:    make(map[cellCoord][]string),
		index:    make(map[string]entityRecord),
	}
}

func (g *Grid) cellRange(pos arena.Vector, radius float64) (cellCoord, cellCoord) {
	minX := int((pos.X - radius) / g.cellSize)
	minY := int((pos.Y - radius) / g.cellSize)
	maxX := int((pos.X + radius) / g.cellSize)
	maxY := int((pos.Y + radius) / g.cellSize)
	return cellCoord{minX, minY}, cellCoord{maxX, maxY}
}

func (g *Grid) coveredCells(pos arena.Vector, radius float64) []cellCoord {
	lo, hi := g.cellRange(pos, radius)
	cells := make([]cellCoord, 0, (hi.x-lo.x+1)*(hi.y-lo.y+1))
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			cells = append(cells, cellCoord{x, y})
		}
	}
	return cells
}

// Insert adds id at position with radius, recording it in every cell its
// AABB covers.
func (g *Grid) Insert(id string, pos arena.Vector, radius float64) {
	cells := g.coveredCells(pos, radius)
	for _, c := range cells {
		g.cells[c] = append(g.cells[c], id)
	}
	g.index[id] = entityRecord{position: pos, radius: radius, cells: cells}
}

// Remove strips id from every cell it was recorded in.
func (g *Grid) Remove(id string) {
	rec, ok := g.index[id]
	if !ok {
		return
	}
	for _, c := range rec.cells {
		g.removeFromCell(c, id)
	}
	delete(g.index, id)
}

func (g *Grid) removeFromCell(c cellCoord, id string) {
	bucket := g.cells[c]
	for i, existing := range bucket {
		if existing == id {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(g.cells, c)
	} else {
		g.cells[c] = bucket
	}
}

// Update repositions id, reinserting only if the covered cell set changed.
func (g *Grid) Update(id string, pos arena.Vector, radius float64) {
	rec, ok := g.index[id]
	if !ok {
		g.Insert(id, pos, radius)
		return
	}
	newCells := g.coveredCells(pos, radius)
	if sameCells(rec.cells, newCells) {
		g.index[id] = entityRecord{position: pos, radius: radius, cells: rec.cells}
		return
	}
	g.Remove(id)
	g.Insert(id, pos, radius)
}

func sameCells(a, b []cellCoord) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[cellCoord]struct{}, len(a))
	for _, c := range a {
		set[c] = struct{}{}
	}
	for _, c := range b {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}

// QueryRegion returns the deduplicated set of entity ids whose cells
// intersect rect.
func (g *Grid) QueryRegion(rect Rect) []string {
	lo := cellCoord{int(rect.MinX / g.cellSize), int(rect.MinY / g.cellSize)}
	hi := cellCoord{int(rect.MaxX / g.cellSize), int(rect.MaxY / g.cellSize)}
	seen := make(map[string]struct{})
	var out []string
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for _, id := range g.cells[cellCoord{x, y}] {
				if _, ok := seen[id]; ok {
					continue
				}
				rec := g.index[id]
				if !rect.intersectsCircle(rec.position, rec.radius) {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// Nearby returns the deduplicated set of entity ids sharing a cell with id's
// expanded AABB, excluding id itself.
func (g *Grid) Nearby(id string, expand float64) []string {
	rec, ok := g.index[id]
	if !ok {
		return nil
	}
	lo, hi := g.cellRange(rec.position, rec.radius+expand)
	seen := map[string]struct{}{id: {}}
	var out []string
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for _, other := range g.cells[cellCoord{x, y}] {
				if _, dup := seen[other]; dup {
					continue
				}
				seen[other] = struct{}{}
				out = append(out, other)
			}
		}
	}
	return out
}

// Len reports the number of indexed entities.
func (g *Grid) Len() int {
	return len(g.index)
}

// Clear empties the grid, keeping its configuration.
func (g *Grid) Clear() {
	g.cells = make(map[cellCoord][]string)
	g.index = make(map[string]entityRecord)
}
