package registry

import (
	"testing"

	"arena-server/internal/match"
)

func newHandle() *Handle {
	m := match.NewMatch("m1", match.DefaultConfig())
	return &Handle{Match: m, Stop: make(chan struct{})}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	r := New()
	calls := 0
	create := func() *Handle {
		calls++
		return newHandle()
	}

	first := r.GetOrCreate("g1", create)
	second := r.GetOrCreate("g1", create)

	if first != second {
		t.Fatal("expected the same handle on repeated creation")
	}
	if calls != 1 {
		t.Fatalf("expected create to run once, ran %d times", calls)
	}
}

func TestReapClosesStopChannel(t *testing.T) {
	r := New()
	h := r.GetOrCreate("g1", newHandle)

	r.Reap("g1")

	if _, ok := r.Get("g1"); ok {
		t.Fatal("expected handle to be removed")
	}
	select {
	case <-h.Stop:
	default:
		t.Fatal("expected stop channel to be closed")
	}
}

func TestReapFinishedRemovesOnlyFinishedMatches(t *testing.T) {
	r := New()
	active := r.GetOrCreate("active", newHandle)
	finished := r.GetOrCreate("finished", newHandle)
	finished.Match.Status = match.StatusFinished

	reaped := r.ReapFinished()

	if len(reaped) != 1 || reaped[0] != "finished" {
		t.Fatalf("expected only finished to be reaped, got %v", reaped)
	}
	if _, ok := r.Get("active"); !ok {
		t.Fatal("expected active match to remain")
	}
	_ = active
}
