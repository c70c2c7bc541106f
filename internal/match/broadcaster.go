package match

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"sync"
	"time"
)

// compressionThreshold is the encoded payload size above which a delta
// batch is gzipped before send, per spec section 4.7.
const compressionThreshold = 1024

const defaultFullStateInterval = 5 * time.Second

// Outbound is a tick payload handed to a subscriber. Exactly one of
// Snapshot, Deltas or Compressed is populated.
type Outbound struct {
	MatchID    string
	Tick       uint64
	Time       time.Time
	Snapshot   *Snapshot
	Deltas     []Delta
	Compressed []byte // non-nil when the encoded Deltas exceeded compressionThreshold
}

// Snapshot is the full-state payload sent every FULL_STATE_INTERVAL_MS.
type Snapshot struct {
	Players     []PlayerSnapshot     `json:"players"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	PowerUps    []PowerUpSnapshot    `json:"powerUps"`
}

// Subscriber is anything that can receive a tick's Outbound payload. Send
// must not block the caller for long: Broadcaster treats an error, or a
// full queue inside the implementation, as a dead subscriber.
type Subscriber interface {
	ID() string
	Send(Outbound) error
}

// Broadcaster fans out each tick's committed deltas (and periodic full
// snapshots) to every subscriber, reaping dead ones without ever blocking
// the match loop that calls it.
type Broadcaster struct {
	mu                sync.Mutex
	subscribers       map[string]Subscriber
	fullStateInterval time.Duration
	lastFullState     time.Time
	onDead            func(id string)
}

// NewBroadcaster constructs an empty Broadcaster. onDead, if non-nil, is
// invoked (outside the broadcaster's lock) for every subscriber reaped on
// send failure.
func NewBroadcaster(fullStateInterval time.Duration, onDead func(id string)) *Broadcaster {
	if fullStateInterval <= 0 {
		fullStateInterval = defaultFullStateInterval
	}
	return &Broadcaster{
		subscribers:       make(map[string]Subscriber),
		fullStateInterval: fullStateInterval,
		onDead:            onDead,
	}
}

// Subscribe registers sub, replacing any existing subscriber under the
// same id.
func (b *Broadcaster) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[sub.ID()] = sub
}

// Unsubscribe removes a subscriber (no-op if absent).
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Len reports the current subscriber count.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// PublishDeltas forwards one tick's committed delta batch to every
// subscriber, compressing the encoded batch when it exceeds
// compressionThreshold, and reaping any subscriber whose Send fails. It
// never returns an error: reaping a slow/dead consumer is the only
// response available to a hot path that must not stall.
func (b *Broadcaster) PublishDeltas(tick uint64, now time.Time, deltas []Delta) {
	if len(deltas) == 0 {
		return
	}
	out := Outbound{Tick: tick, Time: now, Deltas: deltas}
	if encoded, err := json.Marshal(deltas); err == nil && len(encoded) > compressionThreshold {
		if compressed, err := gzipBytes(encoded); err == nil {
			out.Compressed = compressed
			out.Deltas = nil
		}
	}
	b.fanOut(out)
}

// PublishSnapshot forwards a full-state snapshot to every subscriber on the
// periodic interval and resets the FULL_STATE_INTERVAL_MS timer.
func (b *Broadcaster) PublishSnapshot(tick uint64, now time.Time, snap Snapshot) {
	b.mu.Lock()
	b.lastFullState = now
	b.mu.Unlock()
	b.fanOut(Outbound{Tick: tick, Time: now, Snapshot: &snap})
}

// DueForFullState reports whether FULL_STATE_INTERVAL_MS has elapsed since
// the last full snapshot was sent.
func (b *Broadcaster) DueForFullState(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastFullState) >= b.fullStateInterval
}

func (b *Broadcaster) fanOut(out Outbound) {
	b.mu.Lock()
	snapshot := make([]Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		snapshot = append(snapshot, sub)
	}
	b.mu.Unlock()

	var dead []string
	for _, sub := range snapshot {
		if err := sub.Send(out); err != nil {
			dead = append(dead, sub.ID())
		}
	}
	if len(dead) == 0 {
		return
	}
	b.mu.Lock()
	for _, id := range dead {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
	for _, id := range dead {
		if b.onDead != nil {
			b.onDead(id)
		}
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
