// Package registry implements the name->handle lookup of spec section
// 4.11: idempotent match creation keyed by game_id, and reaping through
// Reap and ReapFinished. The registry does not watch match loops; a match
// whose loop has stopped stays registered until one of those is called.
package registry

import (
	"sync"

	"arena-server/internal/match"
)

// Handle is everything the registry tracks for one live match: the match
// state/config and the loop driving it, plus the stop channel used to
// terminate it.
type Handle struct {
	Match *match.Match
	Loop  *match.Loop
	Stop  chan struct{}
}

// Registry is a read-mostly map of game_id to Handle, safe for concurrent
// use by the matchmaker, the net layer, and admin iteration.
type Registry struct {
	mu       sync.RWMutex
	handles  map[string]*Handle
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// GetOrCreate returns the existing handle for gameID, or builds one with
// create and stores it. Creation is idempotent: a second call with the
// same id that races a first always returns the same handle.
func (r *Registry) GetOrCreate(gameID string, create func() *Handle) *Handle {
	r.mu.RLock()
	if h, ok := r.handles[gameID]; ok {
		r.mu.RUnlock()
		return h
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[gameID]; ok {
		return h
	}
	h := create()
	r.handles[gameID] = h
	return h
}

// Get looks up a handle without creating one.
func (r *Registry) Get(gameID string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[gameID]
	return h, ok
}

// Reap removes gameID's handle, stopping its loop if not already stopped.
func (r *Registry) Reap(gameID string) {
	r.mu.Lock()
	h, ok := r.handles[gameID]
	if ok {
		delete(r.handles, gameID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-h.Stop:
		// already closed
	default:
		close(h.Stop)
	}
}

// ReapFinished removes every handle whose match has reached the finished
// status, returning the reaped game ids. Intended to be called on a
// periodic sweep by the supervisor that owns the registry.
func (r *Registry) ReapFinished() []string {
	r.mu.Lock()
	var reaped []string
	for id, h := range r.handles {
		if h.Match.Status == match.StatusFinished {
			delete(r.handles, id)
			reaped = append(reaped, id)
		}
	}
	r.mu.Unlock()
	return reaped
}

// Len reports the number of tracked matches.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Each iterates every handle for admin/observability. The callback must
// not mutate the registry.
func (r *Registry) Each(fn func(gameID string, h *Handle)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, h := range r.handles {
		fn(id, h)
	}
}
