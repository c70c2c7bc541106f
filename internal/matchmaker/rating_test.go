package matchmaker

import (
	"testing"
	"time"
)

func TestApplyDecayReducesRatingAboveDefault(t *testing.T) {
	now := time.Now()
	r := &Rating{Value: 1400, LastSeen: now.Add(-20 * 24 * time.Hour)}

	applied := r.ApplyDecay(now, 14, 2.0)
	if !applied {
		t.Fatal("expected decay to apply past the threshold")
	}
	if r.Value != 1388 {
		t.Fatalf("expected 1400 - 2*6 = 1388, got %v", r.Value)
	}
}

func TestApplyDecayReducesRatingBelowDefault(t *testing.T) {
	now := time.Now()
	r := &Rating{Value: 1000, LastSeen: now.Add(-20 * 24 * time.Hour)}

	r.ApplyDecay(now, 14, 2.0)
	if r.Value != 988 {
		t.Fatalf("expected decay to reduce a below-default rating too, got %v", r.Value)
	}
}

func TestApplyDecayFloorsAtRatingFloor(t *testing.T) {
	now := time.Now()
	r := &Rating{Value: RatingFloor + 5, LastSeen: now.Add(-365 * 24 * time.Hour)}

	r.ApplyDecay(now, 14, 2.0)
	if r.Value != RatingFloor {
		t.Fatalf("expected rating floored at %v, got %v", RatingFloor, r.Value)
	}
}

func TestApplyDecayNoopBeforeThreshold(t *testing.T) {
	now := time.Now()
	r := &Rating{Value: 1200, LastSeen: now.Add(-time.Hour)}

	if r.ApplyDecay(now, 14, 2.0) {
		t.Fatal("expected no decay within the threshold window")
	}
	if r.Value != 1200 {
		t.Fatalf("expected rating unchanged, got %v", r.Value)
	}
}

func TestApplyDecayDoesNotReapplyOnBackToBackCalls(t *testing.T) {
	now := time.Now()
	r := &Rating{Value: 1400, LastSeen: now.Add(-20 * 24 * time.Hour)}

	r.ApplyDecay(now, 14, 2.0)
	if r.Value != 1388 {
		t.Fatalf("expected first call to decay 1400 - 2*6 = 1388, got %v", r.Value)
	}

	// A second call a second later (as tryPair/Enqueue do every matchmaker
	// tick) must not re-subtract for the same elapsed days.
	r.ApplyDecay(now.Add(time.Second), 14, 2.0)
	if r.Value != 1388 {
		t.Fatalf("expected rapid re-check not to re-apply decay, got %v", r.Value)
	}
}

func TestApplyDecayAppliesOnlyNewlyElapsedDays(t *testing.T) {
	now := time.Now()
	r := &Rating{Value: 1400, LastSeen: now.Add(-20 * 24 * time.Hour)}

	r.ApplyDecay(now, 14, 2.0)
	if r.Value != 1388 {
		t.Fatalf("expected 1400 - 2*6 = 1388, got %v", r.Value)
	}

	// One more day passes; only that single new day should decay.
	r.ApplyDecay(now.Add(24*time.Hour), 14, 2.0)
	if r.Value != 1386 {
		t.Fatalf("expected one additional day of decay (1386), got %v", r.Value)
	}
}
