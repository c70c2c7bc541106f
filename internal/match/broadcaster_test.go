package match

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeSubscriber struct {
	id      string
	sends   []Outbound
	failing bool
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(out Outbound) error {
	if f.failing {
		return errors.New("dead connection")
	}
	f.sends = append(f.sends, out)
	return nil
}

func TestBroadcasterFanOutReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster(time.Second, nil)
	s1 := &fakeSubscriber{id: "p1"}
	s2 := &fakeSubscriber{id: "p2"}
	b.Subscribe(s1)
	b.Subscribe(s2)

	b.PublishDeltas(1, time.Now(), []Delta{{Kind: KindPlayerUpdated, EntityID: "p1"}})

	if len(s1.sends) != 1 || len(s2.sends) != 1 {
		t.Fatalf("expected both subscribers to receive the batch, got %d/%d", len(s1.sends), len(s2.sends))
	}
}

func TestBroadcasterReapsDeadSubscriberWithoutBlocking(t *testing.T) {
	var reaped []string
	b := NewBroadcaster(time.Second, func(id string) { reaped = append(reaped, id) })
	dead := &fakeSubscriber{id: "dead", failing: true}
	alive := &fakeSubscriber{id: "alive"}
	b.Subscribe(dead)
	b.Subscribe(alive)

	b.PublishDeltas(1, time.Now(), []Delta{{Kind: KindPlayerUpdated, EntityID: "p1"}})

	if b.Len() != 1 {
		t.Fatalf("expected dead subscriber reaped, Len() = %d", b.Len())
	}
	if len(reaped) != 1 || reaped[0] != "dead" {
		t.Fatalf("expected onDead called with %q, got %v", "dead", reaped)
	}
	if len(alive.sends) != 1 {
		t.Fatal("expected the surviving subscriber to still receive the batch")
	}
}

func TestBroadcasterPublishDeltasNoopOnEmptyBatch(t *testing.T) {
	b := NewBroadcaster(time.Second, nil)
	sub := &fakeSubscriber{id: "p1"}
	b.Subscribe(sub)

	b.PublishDeltas(1, time.Now(), nil)

	if len(sub.sends) != 0 {
		t.Fatal("expected no send for an empty delta batch")
	}
}

func TestBroadcasterCompressesLargeBatches(t *testing.T) {
	b := NewBroadcaster(time.Second, nil)
	sub := &fakeSubscriber{id: "p1"}
	b.Subscribe(sub)

	deltas := make([]Delta, 0, 64)
	for i := 0; i < 64; i++ {
		deltas = append(deltas, Delta{
			Kind:     KindPlayerUpdated,
			EntityID: "player-with-a-long-id-to-pad-the-payload",
			Changes:  map[Field]any{FieldPosition: []float64{1.5, 2.5}, FieldHealth: 80},
		})
	}

	b.PublishDeltas(1, time.Now(), deltas)

	if len(sub.sends) != 1 {
		t.Fatalf("expected one send, got %d", len(sub.sends))
	}
	out := sub.sends[0]
	if out.Compressed == nil {
		t.Fatal("expected a large delta batch to be gzip-compressed")
	}
	if out.Deltas != nil {
		t.Fatal("expected raw Deltas to be cleared once compressed")
	}
}

func TestBroadcasterDueForFullStateTracksInterval(t *testing.T) {
	b := NewBroadcaster(100*time.Millisecond, nil)
	now := time.Now()
	if !b.DueForFullState(now) {
		t.Fatal("expected a fresh broadcaster to be due immediately")
	}

	b.PublishSnapshot(1, now, Snapshot{})
	if b.DueForFullState(now.Add(50 * time.Millisecond)) {
		t.Fatal("expected not due before the interval elapses")
	}
	if !b.DueForFullState(now.Add(200 * time.Millisecond)) {
		t.Fatal("expected due after the interval elapses")
	}
}

func TestBroadcasterSubscribeReplacesExisting(t *testing.T) {
	b := NewBroadcaster(time.Second, nil)
	first := &fakeSubscriber{id: "p1"}
	second := &fakeSubscriber{id: "p1"}
	b.Subscribe(first)
	b.Subscribe(second)

	if b.Len() != 1 {
		t.Fatalf("expected a single subscriber under the shared id, got %d", b.Len())
	}

	b.PublishDeltas(1, time.Now(), []Delta{{Kind: KindPlayerUpdated}})
	if len(first.sends) != 0 {
		t.Fatal("expected the replaced subscriber to receive nothing")
	}
	if len(second.sends) != 1 {
		t.Fatal("expected the replacement subscriber to receive the batch")
	}
}

func TestBroadcasterUnsubscribeIsNoOpWhenAbsent(t *testing.T) {
	b := NewBroadcaster(time.Second, nil)
	b.Unsubscribe("ghost") // must not panic
	if b.Len() != 0 {
		t.Fatal("expected empty broadcaster to stay empty")
	}
}

func TestGzipBytesRoundTripsThroughCompression(t *testing.T) {
	data := []byte(strings.Repeat("x", 2048))
	compressed, err := gzipBytes(data)
	if err != nil {
		t.Fatalf("gzipBytes: %v", err)
	}
	if len(compressed) == 0 {
		t.Fatal("expected non-empty compressed payload")
	}
}
