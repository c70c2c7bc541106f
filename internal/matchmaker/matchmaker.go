// Package matchmaker implements the single long-running queue/pairing
// pipeline of spec section 4.10: per-(mode,region) FIFO queues, a
// wait-widened skill tolerance, a hard latency gate, region policy, and
// Elo rating bookkeeping.
package matchmaker

import (
	"context"
	"sort"
	"sync"
	"time"

	"arena-server/internal/arenaerr"
	"arena-server/logging"
)

// Tunables mirroring spec section 4.10/6 defaults.
const (
	DefaultBaseSkillTol = 100.0
	DefaultMaxSkillTol  = 300.0
	DefaultLatencyTol   = 150 * time.Millisecond
	DefaultPartySize    = 2
	DefaultQueueTimeout = 30 * time.Second
	DefaultTickInterval = 1 * time.Second
)

// QueueKey identifies one (mode, region) queue.
type QueueKey struct {
	Mode   string
	Region string
}

// Entry is one queued player.
type Entry struct {
	PlayerID string
	Mode     string
	Region   string
	Latency  time.Duration
	JoinedAt time.Time
}

// Status reports a queued player's position and timing.
type Status struct {
	Queued   bool
	Position int
	WaitTime time.Duration
	ETA      time.Duration
}

// MatchFound is emitted when the pairing pass collects a full party.
type MatchFound struct {
	GameID  string
	Mode    string
	Region  string
	Players []string
}

// RegionPolicy decides whether two regions may be paired together. The
// zero value only allows same-region pairs.
type RegionPolicy struct {
	allowed map[[2]string]bool
}

// NewRegionPolicy builds a policy from an explicit list of cross-region
// pairs allowed in addition to same-region pairing, which is always
// permitted.
func NewRegionPolicy(pairs ...[2]string) RegionPolicy {
	allowed := make(map[[2]string]bool, len(pairs))
	for _, p := range pairs {
		allowed[p] = true
		allowed[[2]string{p[1], p[0]}] = true
	}
	return RegionPolicy{allowed: allowed}
}

// Allows reports whether a and b's regions may be paired.
func (p RegionPolicy) Allows(a, b string) bool {
	if a == b {
		return true
	}
	return p.allowed[[2]string{a, b}]
}

// CreateMatchFunc is the registry-backed callback the matchmaker calls to
// turn a MatchFound into a live match. A non-nil error fails the creation
// and the players are returned to the head of their queue.
type CreateMatchFunc func(ctx context.Context, found MatchFound) error

// Matchmaker owns the skill-rating table and every mode/region queue.
type Matchmaker struct {
	mu       sync.Mutex
	queues   map[QueueKey][]*Entry
	byPlayer map[string]QueueKey
	ratings  map[string]*Rating

	partySize    map[string]int
	regionPolicy RegionPolicy
	baseTol      float64
	maxTol       float64
	latencyTol   time.Duration
	queueTimeout time.Duration
	decayDays    int
	decayRate    float64

	publisher   logging.Publisher
	onMatchFound func(MatchFound)
	createMatch  CreateMatchFunc
	nextGameID   func() string
}

// Config tunes a Matchmaker; zero values fall back to spec defaults.
type Config struct {
	BaseSkillTol float64
	MaxSkillTol  float64
	LatencyTol   time.Duration
	QueueTimeout time.Duration
	DecayDays    int
	DecayRate    float64
	RegionPolicy RegionPolicy
	PartySize    map[string]int
}

// New constructs a Matchmaker.
func New(cfg Config, createMatch CreateMatchFunc, nextGameID func() string, publisher logging.Publisher) *Matchmaker {
	if cfg.BaseSkillTol <= 0 {
		cfg.BaseSkillTol = DefaultBaseSkillTol
	}
	if cfg.MaxSkillTol <= 0 {
		cfg.MaxSkillTol = DefaultMaxSkillTol
	}
	if cfg.LatencyTol <= 0 {
		cfg.LatencyTol = DefaultLatencyTol
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = DefaultQueueTimeout
	}
	if cfg.DecayDays <= 0 {
		cfg.DecayDays = DefaultDecayDays
	}
	if cfg.DecayRate <= 0 {
		cfg.DecayRate = DefaultDecayRate
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Matchmaker{
		queues:       make(map[QueueKey][]*Entry),
		byPlayer:     make(map[string]QueueKey),
		ratings:      make(map[string]*Rating),
		partySize:    cfg.PartySize,
		regionPolicy: cfg.RegionPolicy,
		baseTol:      cfg.BaseSkillTol,
		maxTol:       cfg.MaxSkillTol,
		latencyTol:   cfg.LatencyTol,
		queueTimeout: cfg.QueueTimeout,
		decayDays:    cfg.DecayDays,
		decayRate:    cfg.DecayRate,
		publisher:    publisher,
		createMatch:  createMatch,
		nextGameID:   nextGameID,
	}
}

func (m *Matchmaker) partySizeFor(mode string) int {
	if n, ok := m.partySize[mode]; ok && n > 0 {
		return n
	}
	return DefaultPartySize
}

// Rating returns the (possibly freshly seeded, decay-applied) rating for
// playerID.
func (m *Matchmaker) Rating(playerID string, now time.Time) *Rating {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratingLocked(playerID, now)
}

func (m *Matchmaker) ratingLocked(playerID string, now time.Time) *Rating {
	r, ok := m.ratings[playerID]
	if !ok {
		r = NewRating(now)
		m.ratings[playerID] = r
		return r
	}
	r.ApplyDecay(now, m.decayDays, m.decayRate)
	return r
}

// Enqueue inserts playerID into its (mode, region) queue, rejecting a
// duplicate enqueue from the same player.
func (m *Matchmaker) Enqueue(playerID, mode, region string, latency time.Duration, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, queued := m.byPlayer[playerID]; queued {
		return arenaerr.New(arenaerr.Duplicate, arenaerr.ReasonAlreadyQueued)
	}
	m.ratingLocked(playerID, now)

	key := QueueKey{Mode: mode, Region: region}
	entry := &Entry{PlayerID: playerID, Mode: mode, Region: region, Latency: latency, JoinedAt: now}
	m.queues[key] = append(m.queues[key], entry)
	m.byPlayer[playerID] = key
	return nil
}

// Dequeue removes playerID if queued; a no-op otherwise.
func (m *Matchmaker) Dequeue(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(playerID)
}

func (m *Matchmaker) removeLocked(playerID string) {
	key, ok := m.byPlayer[playerID]
	if !ok {
		return
	}
	delete(m.byPlayer, playerID)
	entries := m.queues[key]
	for i, e := range entries {
		if e.PlayerID == playerID {
			m.queues[key] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

// StatusOf reports a queued player's position, wait time, and a rough ETA
// (proportional to distance from the head).
func (m *Matchmaker) StatusOf(playerID string, now time.Time) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.byPlayer[playerID]
	if !ok {
		return Status{}
	}
	entries := m.queues[key]
	for i, e := range entries {
		if e.PlayerID == playerID {
			wait := now.Sub(e.JoinedAt)
			return Status{
				Queued:   true,
				Position: i,
				WaitTime: wait,
				ETA:      time.Duration(i+1) * DefaultTickInterval,
			}
		}
	}
	return Status{}
}

// Tick runs one pairing pass across every non-empty queue, in order of
// longest-waiting head entry, and expires entries past QUEUE_TIMEOUT.
// Returns the matches formed this tick.
func (m *Matchmaker) Tick(ctx context.Context, now time.Time) []MatchFound {
	m.mu.Lock()
	keys := m.expireAndOrderQueuesLocked(now)
	m.mu.Unlock()

	var found []MatchFound
	for _, key := range keys {
		if mf, ok := m.tryPair(ctx, key, now); ok {
			found = append(found, mf)
		}
	}
	return found
}

func (m *Matchmaker) expireAndOrderQueuesLocked(now time.Time) []QueueKey {
	var keys []QueueKey
	for key, entries := range m.queues {
		kept := entries[:0:0]
		for _, e := range entries {
			if now.Sub(e.JoinedAt) > m.queueTimeout {
				delete(m.byPlayer, e.PlayerID)
				m.publisher.Publish(context.Background(), logging.Event{
					Type:     "queue_expired",
					Severity: logging.SeverityInfo,
					Category: logging.CategoryMatchmaking,
					Actor:    logging.EntityRef{ID: e.PlayerID, Kind: logging.EntityKindPlayer},
				})
				continue
			}
			kept = append(kept, e)
		}
		m.queues[key] = kept
		if len(kept) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.queues[keys[i]][0].JoinedAt.Before(m.queues[keys[j]][0].JoinedAt)
	})
	return keys
}

func (m *Matchmaker) tryPair(ctx context.Context, key QueueKey, now time.Time) (MatchFound, bool) {
	m.mu.Lock()
	entries := m.queues[key]
	if len(entries) == 0 {
		m.mu.Unlock()
		return MatchFound{}, false
	}
	a := entries[0]
	rest := entries[1:]
	waitSeconds := now.Sub(a.JoinedAt).Seconds()
	tol := m.baseTol + waitSeconds*10
	if tol > m.maxTol {
		tol = m.maxTol
	}

	ratingA := m.ratingLocked(a.PlayerID, now).Value
	party := []*Entry{a}
	size := m.partySizeFor(a.Mode)
	var remaining []*Entry
	for _, b := range rest {
		if len(party) >= size {
			remaining = append(remaining, b)
			continue
		}
		ratingB := m.ratingLocked(b.PlayerID, now).Value
		if absFloat(ratingA-ratingB) > tol {
			remaining = append(remaining, b)
			continue
		}
		if absDuration(a.Latency-b.Latency) > m.latencyTol {
			remaining = append(remaining, b)
			continue
		}
		if !m.regionPolicy.Allows(a.Region, b.Region) {
			remaining = append(remaining, b)
			continue
		}
		party = append(party, b)
	}

	if len(party) < size {
		m.mu.Unlock()
		return MatchFound{}, false
	}

	m.queues[key] = remaining
	for _, e := range party {
		delete(m.byPlayer, e.PlayerID)
	}
	m.mu.Unlock()

	players := make([]string, len(party))
	for i, e := range party {
		players[i] = e.PlayerID
	}
	gameID := "match"
	if m.nextGameID != nil {
		gameID = m.nextGameID()
	}
	mf := MatchFound{GameID: gameID, Mode: key.Mode, Region: key.Region, Players: players}

	if m.createMatch != nil {
		if err := m.createMatch(ctx, mf); err != nil {
			m.requeue(party)
			m.publisher.Publish(ctx, logging.Event{
				Type:     "match_create_failed",
				Severity: logging.SeverityError,
				Category: logging.CategoryMatchmaking,
				Extra:    map[string]any{"mode": key.Mode, "region": key.Region},
			})
			return MatchFound{}, false
		}
	}
	if m.onMatchFound != nil {
		m.onMatchFound(mf)
	}
	return mf, true
}

// requeue returns every entry in party to the head of its queue with
// joined_at preserved, used when match creation fails.
func (m *Matchmaker) requeue(party []*Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range party {
		key := QueueKey{Mode: e.Mode, Region: e.Region}
		m.queues[key] = append([]*Entry{e}, m.queues[key]...)
		m.byPlayer[e.PlayerID] = key
	}
}

// OnMatchFound registers a callback invoked after a successful pairing.
func (m *Matchmaker) OnMatchFound(fn func(MatchFound)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMatchFound = fn
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
