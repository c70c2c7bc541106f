// Package app wires the configuration, logging, matchmaking, registry, and
// websocket transport layers into a running server process.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	nethttp "net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"arena-server/internal/combat"
	"arena-server/internal/config"
	"arena-server/internal/match"
	"arena-server/internal/matchmaker"
	"arena-server/internal/net/proto"
	"arena-server/internal/net/ws"
	"arena-server/internal/registry"
	"arena-server/internal/spectator"
	"arena-server/internal/telemetry"
	"arena-server/logging"
	"arena-server/logging/sinks"
)

// Run loads configuration, wires every subsystem, and serves until ctx is
// cancelled or the HTTP server fails. It returns a non-nil error on fatal
// configuration failure or a listener error; the caller maps that to a
// process exit code of 1.
func Run(ctx context.Context) error {
	fallback := log.New(os.Stderr, "arena-server: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logCfg.Console)},
	}
	var eventLog *os.File
	if path := os.Getenv("EVENT_LOG_PATH"); path != "" {
		eventLog, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open EVENT_LOG_PATH: %w", err)
		}
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(eventLog, logCfg.JSON.FlushInterval),
		})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logCfg, namedSinks)
	if err != nil {
		return fmt.Errorf("start logging router: %w", err)
	}
	defer router.Close(context.Background())
	if eventLog != nil {
		defer eventLog.Close()
	}

	procMetrics := &logging.Metrics{}
	metrics := telemetry.WrapMetrics(procMetrics)
	logger := telemetry.WrapLogger(fallback)

	reg := registry.New()
	spectatorRooms := spectator.NewRooms()

	var gameCounter atomic.Uint64
	nextGameID := func() string {
		n := gameCounter.Add(1)
		return "match-" + strconv.FormatUint(n, 10)
	}

	var handler *ws.Handler

	createMatch := func(ctx context.Context, found matchmaker.MatchFound) error {
		m := match.NewMatch(found.GameID, cfg.Match)
		resolver := combat.NewResolver(rand.New(rand.NewSource(time.Now().UnixNano())), newEventID())
		broadcaster := match.NewBroadcaster(cfg.FullStateInterval, func(id string) {
			fallback.Printf("dropping dead subscriber %s from match %s", id, found.GameID)
		})
		loop := match.NewLoop(m, resolver, broadcaster, router)
		stop := make(chan struct{})

		reg.GetOrCreate(found.GameID, func() *registry.Handle {
			return &registry.Handle{Match: m, Loop: loop, Stop: stop}
		})

		replay := cfg.NewReplay()
		room := spectatorRooms.GetOrCreate(found.GameID, func() *spectator.Room {
			return spectator.NewRoom(found.GameID, broadcaster, replay, cfg.Spectator.MaxSpectators)
		})

		loop.SetHooks(match.LoopHooks{
			AfterTick: func(tick uint64, deltas []match.Delta, overrun bool) {
				room.RecordBroadcast(m.LastTick, tick, m.State.Snapshot(), m.Scores, m.Status)
			},
		})

		go loop.Run(stop)

		for _, playerID := range found.Players {
			if handler != nil {
				handler.Notify(playerID, proto.MatchFoundMessage(found.GameID, "player"))
			}
		}
		return nil
	}

	mm := matchmaker.New(matchmaker.Config{
		BaseSkillTol: cfg.Matchmaker.BaseSkillTol,
		MaxSkillTol:  cfg.Matchmaker.MaxSkillTol,
		LatencyTol:   cfg.Matchmaker.LatencyTol,
		QueueTimeout: cfg.Matchmaker.QueueTimeout,
	}, createMatch, nextGameID, router)

	handler = ws.NewHandler(ws.Dependencies{
		Registry:   reg,
		Matchmaker: mm,
		Spectators: spectatorRooms,
		Publisher:  router,
		Logger:     logger,
		Metrics:    metrics,
	})

	stopMatchmaker := make(chan struct{})
	go runMatchmakerLoop(ctx, mm, stopMatchmaker)
	defer close(stopMatchmaker)

	mux := nethttp.NewServeMux()
	mux.HandleFunc("/ws", handler.Handle)
	mux.HandleFunc("/debug/metrics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(procMetrics.Snapshot())
	})

	if cfg.Observability.EnablePprofTrace {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &nethttp.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != nethttp.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

func runMatchmakerLoop(ctx context.Context, mm *matchmaker.Matchmaker, stop chan struct{}) {
	ticker := time.NewTicker(matchmaker.DefaultTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case now := <-ticker.C:
			mm.Tick(ctx, now)
		}
	}
}

func newEventID() func() string {
	var counter atomic.Uint64
	return func() string {
		n := counter.Add(1)
		return "evt-" + strconv.FormatUint(n, 10)
	}
}

