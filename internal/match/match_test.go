package match

import (
	"testing"
	"time"

	"arena-server/internal/arena"
)

func newActiveMatch(t *testing.T, ids ...string) *Match {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MinPlayers = 1
	m := NewMatch("m1", cfg)
	now := time.Now()
	for _, id := range ids {
		m.State.JoinPlayer(arena.NewPlayer(id, id, arena.Vector{}, 100, arena.DefaultWeapon(), now))
	}
	m.State.Commit()
	m.MaybeActivate(now)
	if m.Status != StatusActive {
		t.Fatalf("expected match to activate with %d players, got status=%v", len(ids), m.Status)
	}
	return m
}

// TestCheckFinishOnLastPlayerStanding covers the boundary scenario: a match
// with exactly one alive player (out of several) transitions to finished.
func TestCheckFinishOnLastPlayerStanding(t *testing.T) {
	m := newActiveMatch(t, "p1", "p2", "p3")
	now := time.Now()

	m.State.SetPlayerHealth("p2", 0, now, true)
	m.State.SetPlayerHealth("p3", 0, now, true)

	finished, reason := m.CheckFinish(now)
	if !finished || reason != "last_player_standing" {
		t.Fatalf("expected last_player_standing finish, got finished=%v reason=%q", finished, reason)
	}
	if m.Status != StatusFinished {
		t.Fatalf("expected status=finished, got %v", m.Status)
	}
}

func TestCheckFinishDoesNotFireWithTwoAlivePlayers(t *testing.T) {
	m := newActiveMatch(t, "p1", "p2")
	now := time.Now()

	finished, _ := m.CheckFinish(now)
	if finished {
		t.Fatal("expected no finish while two players remain alive")
	}
	if m.Status != StatusActive {
		t.Fatalf("expected status to remain active, got %v", m.Status)
	}
}

func TestCheckFinishOnScoreLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPlayers = 1
	cfg.ScoreLimit = 5
	m := NewMatch("m1", cfg)
	now := time.Now()
	m.State.JoinPlayer(arena.NewPlayer("p1", "p1", arena.Vector{}, 100, arena.DefaultWeapon(), now))
	m.State.JoinPlayer(arena.NewPlayer("p2", "p2", arena.Vector{}, 100, arena.DefaultWeapon(), now))
	m.State.Commit()
	m.MaybeActivate(now)
	m.Scores["p1"] = 5

	finished, reason := m.CheckFinish(now)
	if !finished || reason != "score_limit" {
		t.Fatalf("expected score_limit finish, got finished=%v reason=%q", finished, reason)
	}
}

func TestCheckFinishOnTimeLimit(t *testing.T) {
	m := newActiveMatch(t, "p1", "p2")
	m.Config.TimeLimit = time.Minute
	m.MatchTime = time.Minute

	finished, reason := m.CheckFinish(time.Now())
	if !finished || reason != "time_limit" {
		t.Fatalf("expected time_limit finish, got finished=%v reason=%q", finished, reason)
	}
}

func TestCheckFinishIsNoopWhenNotActive(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMatch("m1", cfg) // still waiting, never activated

	finished, _ := m.CheckFinish(time.Now())
	if finished {
		t.Fatal("expected CheckFinish to no-op for a match that never activated")
	}
}

func TestMaybeActivateTransitionsAtMinPlayers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPlayers = 2
	m := NewMatch("m1", cfg)
	now := time.Now()
	m.State.JoinPlayer(arena.NewPlayer("p1", "p1", arena.Vector{}, 100, arena.DefaultWeapon(), now))

	m.MaybeActivate(now)
	if m.Status != StatusWaiting {
		t.Fatalf("expected match to stay waiting below min_players, got %v", m.Status)
	}

	m.State.JoinPlayer(arena.NewPlayer("p2", "p2", arena.Vector{}, 100, arena.DefaultWeapon(), now))
	m.MaybeActivate(now)
	if m.Status != StatusActive {
		t.Fatalf("expected match to activate at min_players, got %v", m.Status)
	}
}
