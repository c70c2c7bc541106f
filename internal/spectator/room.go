// Package spectator implements the per-match spectator room and its
// bounded replay ring (spec sections 4.8 and 4.9).
package spectator

import (
	"sync"
	"time"

	"arena-server/internal/arenaerr"
	"arena-server/internal/match"
)

const defaultMaxSpectators = 100

// Subscriber is a spectator's connection handle. It satisfies
// match.Subscriber so the room can register it directly with the match's
// Broadcaster.
type Subscriber interface {
	match.Subscriber
}

// Room serialises spectator join/leave for one match and fans every
// committed broadcast into the replay ring alongside the live subscribers.
type Room struct {
	mu          sync.Mutex
	matchID     string
	broadcaster *match.Broadcaster
	spectators  map[string]Subscriber
	pending     map[string]struct{} // ids with a join/leave in flight, guards reentrancy
	maxSpectators int
	replay      *Replay
}

// NewRoom constructs a Room bound to a match's broadcaster.
func NewRoom(matchID string, broadcaster *match.Broadcaster, replay *Replay, maxSpectators int) *Room {
	if maxSpectators <= 0 {
		maxSpectators = defaultMaxSpectators
	}
	return &Room{
		matchID:       matchID,
		broadcaster:   broadcaster,
		spectators:    make(map[string]Subscriber),
		pending:       make(map[string]struct{}),
		maxSpectators: maxSpectators,
		replay:        replay,
	}
}

// Join registers sub under id, rejecting duplicates and enforcing
// MAX_SPECTATORS. The pending set prevents a reentrant join/leave for the
// same id from racing with this call.
func (r *Room) Join(id string, sub Subscriber) error {
	r.mu.Lock()
	if _, busy := r.pending[id]; busy {
		r.mu.Unlock()
		return arenaerr.New(arenaerr.Transient, arenaerr.ReasonOperationPending)
	}
	if _, exists := r.spectators[id]; exists {
		r.mu.Unlock()
		return arenaerr.New(arenaerr.Duplicate, arenaerr.ReasonAlreadyJoined)
	}
	if len(r.spectators) >= r.maxSpectators {
		r.mu.Unlock()
		return arenaerr.New(arenaerr.Capacity, arenaerr.ReasonSpectatorsFull)
	}
	r.pending[id] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	r.mu.Lock()
	r.spectators[id] = sub
	r.mu.Unlock()
	r.broadcaster.Subscribe(sub)
	return nil
}

// Leave removes id, serialised against a concurrent Join/Leave for the
// same id the same way Join is.
func (r *Room) Leave(id string) {
	r.mu.Lock()
	if _, busy := r.pending[id]; busy {
		r.mu.Unlock()
		return
	}
	if _, ok := r.spectators[id]; !ok {
		r.mu.Unlock()
		return
	}
	r.pending[id] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	r.mu.Lock()
	delete(r.spectators, id)
	r.mu.Unlock()
	r.broadcaster.Unsubscribe(id)
}

// Count reports the current spectator count.
func (r *Room) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spectators)
}

// RecordBroadcast appends a replay snapshot for one committed tick. The
// match loop calls this after every Advance; the room does not forward
// live payloads itself (the broadcaster already did, since spectators are
// Broadcaster subscribers) but it is the sole writer of the replay ring.
func (r *Room) RecordBroadcast(now time.Time, tick uint64, snap match.Snapshot, scores map[string]int, status match.Status) {
	if r.replay == nil {
		return
	}
	r.replay.Append(now, tick, snap, scores, status)
}

// Disband removes every spectator (used on match_ended fan-out).
func (r *Room) Disband() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.spectators))
	for id := range r.spectators {
		ids = append(ids, id)
	}
	r.spectators = make(map[string]Subscriber)
	r.mu.Unlock()
	for _, id := range ids {
		r.broadcaster.Unsubscribe(id)
	}
}
