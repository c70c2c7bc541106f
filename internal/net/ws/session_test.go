package ws

import (
	"testing"
	"time"
)

func TestSessionLatencyZeroBeforeAnyPong(t *testing.T) {
	s := NewSession("p1", "m1", nil)
	if got := s.Latency(); got != 0 {
		t.Fatalf("expected zero latency before any pong, got %v", got)
	}
}

func TestSessionObservePingMeasuresGapSinceLastPong(t *testing.T) {
	s := NewSession("p1", "m1", nil)
	base := time.Now()

	s.MarkPongSent(base)
	got := s.ObservePing(base.Add(42 * time.Millisecond))
	if got != 42*time.Millisecond {
		t.Fatalf("expected 42ms latency, got %v", got)
	}
	if s.Latency() != 42*time.Millisecond {
		t.Fatalf("expected Latency() to report the same value, got %v", s.Latency())
	}
}

func TestSessionLatencyTracksMostRecentRound(t *testing.T) {
	s := NewSession("p1", "m1", nil)
	base := time.Now()

	s.MarkPongSent(base)
	s.ObservePing(base.Add(100 * time.Millisecond))
	s.MarkPongSent(base.Add(110 * time.Millisecond))
	got := s.ObservePing(base.Add(130 * time.Millisecond))

	if got != 20*time.Millisecond {
		t.Fatalf("expected the latest round (20ms) to replace the earlier estimate, got %v", got)
	}
}
