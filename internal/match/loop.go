package match

import (
	"context"
	"sync"
	"time"

	"arena-server/internal/arena"
	"arena-server/internal/arenaerr"
	"arena-server/internal/combat"
	"arena-server/internal/spatial"
	"arena-server/logging"
)

const defaultReapDelay = 30 * time.Second

// LoopHooks lets a caller observe tick boundaries without coupling the
// loop to a specific transport.
type LoopHooks struct {
	AfterTick func(tick uint64, deltas []Delta, overrun bool)
}

// Loop is the single-threaded per-match supervisor: it owns Match, drains
// the input queue, runs the fixed-tick pipeline, commits deltas, and hands
// the batch to the broadcaster.
type Loop struct {
	Match       *Match
	Queue       *InputQueue
	Resolver    *combat.Resolver
	Broadcaster *Broadcaster

	grid *spatial.Grid

	publisher logging.Publisher
	hooks     LoopHooks

	mu            sync.Mutex // guards reap-timer scheduling only
	reapTimer     *time.Timer
	reapDelay     time.Duration
	overrunStreak int

	stopped bool
}

// SetHooks installs the tick-boundary callbacks. Call before Run starts;
// Run reads the field without synchronization, so setting it concurrently
// with an already-running loop is a race.
func (l *Loop) SetHooks(hooks LoopHooks) {
	l.hooks = hooks
}

// NewLoop constructs a Loop around a freshly created Match.
func NewLoop(m *Match, resolver *combat.Resolver, broadcaster *Broadcaster, publisher logging.Publisher) *Loop {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	capacity := 2 * m.Config.TickRate
	l := &Loop{
		Match:       m,
		Resolver:    resolver,
		Broadcaster: broadcaster,
		publisher:   publisher,
		reapDelay:   defaultReapDelay,
	}
	l.Queue = NewInputQueue(capacity, l.onInputDropped)
	l.grid = spatial.New(m.Bounds, m.Config.CellSize)
	return l
}

func (l *Loop) onInputDropped(cmd Command) {
	l.publisher.Publish(context.Background(), logging.Event{
		Type:     "dropped_input",
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Actor:    logging.EntityRef{ID: cmd.PlayerID, Kind: logging.EntityKindPlayer},
		Tick:     l.Match.Tick,
	})
}

// Enqueue stages a command, rejecting it once the match is finished.
func (l *Loop) Enqueue(cmd Command) error {
	if l.Match.Status == StatusFinished {
		return arenaerr.New(arenaerr.State, arenaerr.ReasonMatchFinished)
	}
	if _, ok := l.Match.State.Players[cmd.PlayerID]; !ok {
		return arenaerr.New(arenaerr.NotFound, "unknown_player")
	}
	cmd.EnqueuedAt = time.Now()
	l.Queue.Push(cmd)
	return nil
}

// Join adds a player, activating the match once min_players is reached and
// cancelling any pending empty-match reap.
func (l *Loop) Join(p *arena.Player, now time.Time) error {
	if l.Match.Status == StatusFinished {
		return arenaerr.New(arenaerr.State, arenaerr.ReasonMatchFinished)
	}
	if _, exists := l.Match.State.Players[p.ID]; exists {
		return arenaerr.New(arenaerr.Duplicate, arenaerr.ReasonAlreadyJoined)
	}
	if !l.Match.CanJoin() {
		return arenaerr.New(arenaerr.Capacity, arenaerr.ReasonGameFull)
	}
	l.cancelReap()
	l.Match.State.JoinPlayer(p)
	l.Match.MaybeActivate(now)
	return nil
}

// Leave removes a player and, if the match is now empty, schedules a
// delayed reap.
func (l *Loop) Leave(playerID string, reap func()) {
	if _, ok := l.Match.State.Players[playerID]; !ok {
		return
	}
	l.Match.State.RemovePlayer(playerID)
	if len(l.Match.State.Players) == 0 {
		l.scheduleReap(reap)
	}
}

func (l *Loop) scheduleReap(reap func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reapTimer != nil {
		l.reapTimer.Stop()
	}
	if reap == nil {
		return
	}
	l.reapTimer = time.AfterFunc(l.reapDelay, reap)
}

func (l *Loop) cancelReap() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reapTimer != nil {
		l.reapTimer.Stop()
		l.reapTimer = nil
	}
}

// Advance runs one full tick of the pipeline described in spec section 4.6
// and returns the committed delta batch.
func (l *Loop) Advance(now time.Time, dtSeconds float64) []Delta {
	if l.Match.Status == StatusFinished {
		return nil
	}

	commands := l.Queue.Drain()
	l.applyCommands(commands, now)
	l.integratePhysics(dtSeconds)
	l.advanceProjectiles(dtSeconds)
	l.rebuildGrid()
	l.resolveCollisions(now)
	l.advanceTimers(now)

	if l.Match.Status == StatusActive {
		l.Match.MatchTime += time.Duration(dtSeconds * float64(time.Second))
	}
	l.Match.CheckFinish(now)

	l.Match.Tick++
	l.Match.LastTick = now

	deltas := l.Match.State.Commit()
	if l.Broadcaster != nil {
		if l.Broadcaster.DueForFullState(now) {
			l.Broadcaster.PublishSnapshot(l.Match.Tick, now, l.Match.State.Snapshot())
		}
		l.Broadcaster.PublishDeltas(l.Match.Tick, now, deltas)
	}
	return deltas
}

// Run drives the fixed-tick loop until stop closes. Overrun ticks never
// stack: the next tick is scheduled immediately and consecutive overruns
// are reported as a telemetry event.
func (l *Loop) Run(stop <-chan struct{}) {
	rate := l.Match.Config.TickRate
	if rate <= 0 {
		rate = 60
	}
	budget := time.Second / time.Duration(rate)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			l.stopped = true
			return
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = budget.Seconds()
			}
			last = now

			start := time.Now()
			deltas := l.Advance(now, dt)
			elapsed := time.Since(start)

			overrun := elapsed > budget
			if overrun {
				l.overrunStreak++
			} else {
				l.overrunStreak = 0
			}
			if l.overrunStreak > 0 {
				l.publisher.Publish(context.Background(), logging.Event{
					Type:     "tick_overrun",
					Severity: logging.SeverityWarn,
					Category: logging.CategorySystem,
					Tick:     l.Match.Tick,
					Extra:    map[string]any{"streak": l.overrunStreak, "elapsed_ms": elapsed.Milliseconds()},
				})
			}
			if l.hooks.AfterTick != nil {
				l.hooks.AfterTick(l.Match.Tick, deltas, overrun)
			}
			if l.Match.Status == StatusFinished {
				return
			}
		}
	}
}
