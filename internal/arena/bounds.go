package arena

import "math/rand"

// Bounds is the rectangle [0, Width] x [0, Height] with an entity-radius
// inset applied at query/clamp time.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBounds constructs a Bounds for the given arena dimensions.
func NewBounds(width, height float64) Bounds {
	return Bounds{Width: width, Height: height}
}

// Contains reports whether p sits within the bounds once inset by radius.
func (b Bounds) Contains(p Vector, radius float64) bool {
	return p.X >= radius && p.X <= b.Width-radius && p.Y >= radius && p.Y <= b.Height-radius
}

// ClampedAxes records which axis a Clamp call pinned to the boundary.
type ClampedAxes struct {
	X bool
	Y bool
}

// Any reports whether either axis was clamped.
func (c ClampedAxes) Any() bool {
	return c.X || c.Y
}

// Clamp pins p inside the bounds, inset by radius, and reports which axes
// were pinned so the caller can zero the driving velocity component.
func (b Bounds) Clamp(p Vector, radius float64) (Vector, ClampedAxes) {
	var axes ClampedAxes
	out := p
	minX, maxX := radius, b.Width-radius
	minY, maxY := radius, b.Height-radius
	if minX > maxX {
		minX, maxX = b.Width/2, b.Width/2
	}
	if minY > maxY {
		minY, maxY = b.Height/2, b.Height/2
	}
	if out.X < minX {
		out.X = minX
		axes.X = true
	} else if out.X > maxX {
		out.X = maxX
		axes.X = true
	}
	if out.Y < minY {
		out.Y = minY
		axes.Y = true
	} else if out.Y > maxY {
		out.Y = maxY
		axes.Y = true
	}
	return out, axes
}

// RandomSpawn returns a uniformly sampled point inside the bounds, inset by
// radius.
func (b Bounds) RandomSpawn(rng *rand.Rand, radius float64) Vector {
	minX, maxX := radius, b.Width-radius
	minY, maxY := radius, b.Height-radius
	if maxX < minX {
		minX, maxX = b.Width/2, b.Width/2
	}
	if maxY < minY {
		minY, maxY = b.Height/2, b.Height/2
	}
	return Vector{
		X: minX + rng.Float64()*(maxX-minX),
		Y: minY + rng.Float64()*(maxY-minY),
	}
}
