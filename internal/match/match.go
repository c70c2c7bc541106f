package match

import (
	"time"

	"arena-server/internal/arena"
)

// Status enumerates the lifecycle states of a Match.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Config tunes match-wide limits and simulation parameters.
type Config struct {
	TickRate    int
	MinPlayers  int
	MaxPlayers  int
	ScoreLimit  int
	TimeLimit   time.Duration
	WorldWidth  float64
	WorldHeight float64
	Friction    float64
	MaxVel      float64
	RegenDelay  time.Duration
	CellSize    float64
}

// DefaultConfig mirrors the spec's default tuning values.
func DefaultConfig() Config {
	return Config{
		TickRate:    60,
		MinPlayers:  2,
		MaxPlayers:  8,
		ScoreLimit:  0,
		TimeLimit:   10 * time.Minute,
		WorldWidth:  1000,
		WorldHeight: 1000,
		Friction:    0.9,
		MaxVel:      400,
		RegenDelay:  3 * time.Second,
		CellSize:    64,
	}
}

// Match is the authoritative state container owned exclusively by one
// match loop: entities, tick counters, and lifecycle bookkeeping.
type Match struct {
	ID         string
	Status     Status
	Config     Config
	State      *State
	Bounds     arena.Bounds
	Tick       uint64
	StartedAt  time.Time
	LastTick   time.Time
	MatchTime  time.Duration
	Scores     map[string]int
}

// NewMatch constructs a waiting match.
func NewMatch(id string, cfg Config) *Match {
	return &Match{
		ID:     id,
		Status: StatusWaiting,
		Config: cfg,
		State:  NewState(),
		Bounds: arena.NewBounds(cfg.WorldWidth, cfg.WorldHeight),
		Scores: make(map[string]int),
	}
}

// CanJoin reports whether a new player may be added.
func (m *Match) CanJoin() bool {
	return m.Status != StatusFinished && len(m.State.Players) < m.Config.MaxPlayers
}

// MaybeActivate transitions waiting -> active once min_players is reached.
func (m *Match) MaybeActivate(now time.Time) {
	if m.Status == StatusWaiting && len(m.State.Players) >= m.Config.MinPlayers {
		m.Status = StatusActive
		m.StartedAt = now
		m.State.EmitGameEvent("match_started", nil)
	}
}

// CheckFinish evaluates the win/time conditions and transitions to
// finished, returning the reason when it fires.
func (m *Match) CheckFinish(now time.Time) (bool, string) {
	if m.Status != StatusActive {
		return false, ""
	}
	if len(m.State.Players) > 0 && m.State.AliveCount() <= 1 {
		m.finish(now, "last_player_standing")
		return true, "last_player_standing"
	}
	if m.Config.ScoreLimit > 0 {
		for _, score := range m.Scores {
			if score >= m.Config.ScoreLimit {
				m.finish(now, "score_limit")
				return true, "score_limit"
			}
		}
	}
	if m.Config.TimeLimit > 0 && m.MatchTime >= m.Config.TimeLimit {
		m.finish(now, "time_limit")
		return true, "time_limit"
	}
	return false, ""
}

func (m *Match) finish(now time.Time, reason string) {
	m.Status = StatusFinished
	m.State.EmitGameEvent("match_finished", reason)
}
