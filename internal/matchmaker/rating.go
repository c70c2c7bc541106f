package matchmaker

import (
	"math"
	"time"
)

// Rating is the skill-rating table entry owned exclusively by the
// Matchmaker; every mutation is serialised through it.
type Rating struct {
	Value      float64
	Volatility float64
	LastSeen   time.Time
}

// NewRating seeds a fresh rating entry at DefaultRating.
func NewRating(now time.Time) *Rating {
	return &Rating{Value: DefaultRating, Volatility: 0.5, LastSeen: now}
}

// ApplyDecay linearly reduces the rating by decayRate per whole day once
// more than decayDays have elapsed since LastSeen, floored at RatingFloor,
// and reports whether any decay was applied. LastSeen advances by the
// whole days just applied (not to now) so a caller that re-checks decay
// moments later on the same idle player doesn't re-subtract for a day
// that was already decayed; a later call still proceeds from the same
// idle clock, it just can't double-count a day still in progress.
func (r *Rating) ApplyDecay(now time.Time, decayDays int, decayRate float64) bool {
	idle := now.Sub(r.LastSeen)
	threshold := time.Duration(decayDays) * 24 * time.Hour
	if idle <= threshold {
		return false
	}
	days := math.Floor((idle - threshold).Hours() / 24)
	if days < 1 {
		return false
	}
	r.Value -= decayRate * days
	if r.Value < RatingFloor {
		r.Value = RatingFloor
	}
	r.LastSeen = r.LastSeen.Add(time.Duration(days) * 24 * time.Hour)
	return true
}
