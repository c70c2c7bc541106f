package spectator

import (
	"sync"
	"time"

	"arena-server/internal/match"
)

const (
	defaultMaxEvents         = 10000
	defaultRetention         = 30 * time.Minute
	defaultSweepInterval     = 60 * time.Second
	defaultSnapshotInterval  = 100 * time.Millisecond
)

// Entry is one append-only replay record: a full-state snapshot of the
// match at one tick, timestamped relative to the ring's start time.
type Entry struct {
	RelativeTime time.Duration
	Tick         uint64
	Time         time.Time
	Snapshot     match.Snapshot
	Scores       map[string]int
	Status       match.Status
}

// Stats reports replay-ring diagnostics per spec section 4.9.
type Stats struct {
	Count     int
	StartTime time.Time
	Runtime   time.Duration
	Memory    int // approximate size, sum of per-entry serialised entity counts as a proxy
}

// Replay is the bounded, append-only per-match event log backing
// get_replay/snapshot_at/stats.
type Replay struct {
	mu               sync.Mutex
	maxEvents        int
	retention        time.Duration
	snapshotInterval time.Duration
	startTime        time.Time
	lastSampled      time.Time
	entries          []Entry
}

// NewReplay constructs an empty ring with the spec's default tunables,
// overridable via the arguments (zero/negative selects the default).
func NewReplay(maxEvents int, retention, snapshotInterval time.Duration) *Replay {
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	if snapshotInterval <= 0 {
		snapshotInterval = defaultSnapshotInterval
	}
	return &Replay{maxEvents: maxEvents, retention: retention, snapshotInterval: snapshotInterval}
}

// Append records one tick's full-state snapshot, subject to the
// SNAPSHOT_INTERVAL_MS sampling floor: a call within snapshotInterval of
// the last recorded entry is silently discarded.
func (r *Replay) Append(now time.Time, tick uint64, snap match.Snapshot, scores map[string]int, status match.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startTime.IsZero() {
		r.startTime = now
	}
	if !r.lastSampled.IsZero() && now.Sub(r.lastSampled) < r.snapshotInterval {
		return
	}
	r.lastSampled = now

	scoresCopy := make(map[string]int, len(scores))
	for k, v := range scores {
		scoresCopy[k] = v
	}

	r.entries = append(r.entries, Entry{
		RelativeTime: now.Sub(r.startTime),
		Tick:         tick,
		Time:         now,
		Snapshot:     snap,
		Scores:       scoresCopy,
		Status:       status,
	})
	if len(r.entries) > r.maxEvents {
		r.entries = r.entries[len(r.entries)-r.maxEvents:]
	}
	r.pruneLocked(now)
}

// Sweep prunes entries older than the retention window. Call periodically
// (default every 60s) in addition to the retention prune that every Append
// performs.
func (r *Replay) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked(now)
}

func (r *Replay) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.retention)
	i := 0
	for i < len(r.entries) && r.entries[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.entries = r.entries[i:]
	}
}

// GetReplay returns every entry with RelativeTime > from, in chronological
// order. A nil from returns the full retained log.
func (r *Replay) GetReplay(from *time.Duration) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from == nil {
		out := make([]Entry, len(r.entries))
		copy(out, r.entries)
		return out
	}
	var out []Entry
	for _, e := range r.entries {
		if e.RelativeTime > *from {
			out = append(out, e)
		}
	}
	return out
}

// SnapshotAt returns the latest entry with RelativeTime <= relativeMs.
func (r *Replay) SnapshotAt(relativeMs time.Duration) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].RelativeTime <= relativeMs {
			return r.entries[i], true
		}
	}
	return Entry{}, false
}

// ReplayStats reports diagnostics over the currently retained window.
func (r *Replay) ReplayStats(now time.Time) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	memory := 0
	for _, e := range r.entries {
		memory += len(e.Snapshot.Players) + len(e.Snapshot.Projectiles) + len(e.Snapshot.PowerUps)
	}
	var runtime time.Duration
	if !r.startTime.IsZero() {
		runtime = now.Sub(r.startTime)
	}
	return Stats{Count: len(r.entries), StartTime: r.startTime, Runtime: runtime, Memory: memory}
}
