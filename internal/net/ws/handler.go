package ws

import (
	"context"
	"log"
	"math/rand"
	nethttp "net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"arena-server/internal/arena"
	"arena-server/internal/arenaerr"
	"arena-server/internal/matchmaker"
	"arena-server/internal/net/proto"
	"arena-server/internal/registry"
	"arena-server/internal/spectator"
	"arena-server/internal/telemetry"
	"arena-server/logging"
)

const defaultPlayerHealth = 100

// Handler upgrades inbound connections and multiplexes the client message
// vocabulary of spec section 6 onto the match registry, matchmaker, and
// spectator rooms.
type Handler struct {
	registry   *registry.Registry
	matchmaker *matchmaker.Matchmaker
	spectators *spectator.Rooms
	publisher  logging.Publisher
	logger     telemetry.Logger
	metrics    telemetry.Metrics
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
	rng      *rand.Rand

	nextSpectatorID func() string
}

// Dependencies wires a Handler to the rest of the running server.
type Dependencies struct {
	Registry   *registry.Registry
	Matchmaker *matchmaker.Matchmaker
	Spectators *spectator.Rooms
	Publisher  logging.Publisher
	Logger     telemetry.Logger
	Metrics    telemetry.Metrics
}

// NewHandler constructs a Handler from its Dependencies.
func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = telemetry.WrapMetrics(nil)
	}
	var counter atomic.Uint64
	h := &Handler{
		registry:   deps.Registry,
		matchmaker: deps.Matchmaker,
		spectators: deps.Spectators,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:   make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *nethttp.Request) bool { return true },
		},
	}
	h.nextSpectatorID = func() string {
		n := counter.Add(1)
		return "spectator-" + strconv.FormatUint(n, 10)
	}
	return h
}

// Notify delivers a server-initiated push (e.g. match_found) to the
// connection registered under id, if still live.
func (h *Handler) Notify(id string, msg proto.ServerMessage) error {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return arenaerr.New(arenaerr.NotFound, arenaerr.ReasonNotFound)
	}
	return sess.WriteJSON(msg)
}

// Handle upgrades the connection and serves it until the client disconnects.
// The connecting id (player or spectator id) is supplied as a query
// parameter, e.g. /ws?id=p1.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", id, err)
		return
	}
	defer conn.Close()

	h.metrics.Add("connections_opened", 1)
	defer h.metrics.Add("connections_closed", 1)

	sess := NewSession(id, "", conn)
	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, id)
		h.mu.Unlock()
	}()

	var (
		joinedMatchID string
		role          string // "player" or "spectator"
		roomID        string // playerID for role=="player", server-assigned spectator id otherwise
	)
	defer func() { h.cleanupConnection(id, roomID, joinedMatchID, role) }()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", id, err)
			continue
		}

		switch msg.Type {
		case proto.TypeJoinMatch:
			if err := h.handleJoinMatch(sess, id, msg.MatchID); err != nil {
				sess.WriteJSON(proto.Error(arenaerr.ReasonOf(err)))
				continue
			}
			sess.Rebind(id, msg.MatchID)
			joinedMatchID, role, roomID = msg.MatchID, "player", id
			sess.WriteJSON(proto.Joined(msg.MatchID))

		case proto.TypeInput:
			h.handleInput(sess, id, msg)

		case proto.TypeSpectate:
			spectatorID := h.nextSpectatorID()
			sess.Rebind(spectatorID, msg.MatchID)
			if err := h.handleSpectate(sess, spectatorID, msg.MatchID); err != nil {
				sess.WriteJSON(proto.Error(arenaerr.ReasonOf(err)))
				continue
			}
			joinedMatchID, role, roomID = msg.MatchID, "spectator", spectatorID

		case proto.TypePing:
			now := time.Now()
			sess.ObservePing(now)
			sess.WriteJSON(proto.Pong(msg.TS, now.UnixMilli()))
			sess.MarkPongSent(now)

		case proto.TypeQueueJoin:
			h.handleQueueJoin(sess, id, msg)

		case proto.TypeQueueLeave:
			h.matchmaker.Dequeue(id)
			sess.WriteJSON(proto.ServerMessage{Type: proto.TypeLeft})

		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, id)
		}
	}
}

func (h *Handler) handleJoinMatch(sess *Session, playerID, matchID string) error {
	handle, ok := h.registry.Get(matchID)
	if !ok {
		return arenaerr.New(arenaerr.NotFound, arenaerr.ReasonNotFound)
	}

	h.mu.Lock()
	spawn := handle.Match.Bounds.RandomSpawn(h.rng, arena.DefaultPlayerRadius)
	h.mu.Unlock()

	now := time.Now()
	player := arena.NewPlayer(playerID, playerID, spawn, defaultPlayerHealth, arena.DefaultWeapon(), now)
	if err := handle.Loop.Join(player, now); err != nil {
		return err
	}
	handle.Loop.Broadcaster.Subscribe(sess)
	return nil
}

func (h *Handler) handleInput(sess *Session, playerID string, msg proto.ClientMessage) {
	if sess.matchID == "" {
		return
	}
	handle, ok := h.registry.Get(sess.matchID)
	if !ok {
		return
	}
	cmd, ok := msg.ToCommand(playerID)
	if !ok {
		return
	}
	if err := handle.Loop.Enqueue(cmd); err != nil {
		h.metrics.Add("rejected_input", 1)
		h.publisher.Publish(context.Background(), logging.Event{
			Type:     "dropped_input",
			Severity: logging.SeverityWarn,
			Category: logging.CategorySystem,
			Actor:    logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
		})
	}
}

func (h *Handler) handleSpectate(sess *Session, spectatorID, matchID string) error {
	handle, ok := h.registry.Get(matchID)
	if !ok {
		return arenaerr.New(arenaerr.NotFound, arenaerr.ReasonNotFound)
	}
	room, ok := h.spectators.Get(matchID)
	if !ok {
		return arenaerr.New(arenaerr.NotFound, arenaerr.ReasonNotFound)
	}
	if err := room.Join(spectatorID, sess); err != nil {
		return err
	}
	sess.WriteJSON(proto.Welcome(spectatorID, matchID))
	sess.WriteJSON(proto.StateFull(matchID, handle.Match.Tick, time.Now().UnixMilli(), handle.Match.State.Snapshot()))
	return nil
}

func (h *Handler) handleQueueJoin(sess *Session, playerID string, msg proto.ClientMessage) {
	latency := sess.Latency()
	now := time.Now()
	if err := h.matchmaker.Enqueue(playerID, msg.Mode, msg.Region, latency, now); err != nil {
		sess.WriteJSON(proto.Error(arenaerr.ReasonOf(err)))
		return
	}
	status := h.matchmaker.StatusOf(playerID, now)
	sess.WriteJSON(proto.Queued(status.Position))
}

func (h *Handler) cleanupConnection(connID, roomID, matchID, role string) {
	if matchID != "" {
		switch role {
		case "player":
			if handle, ok := h.registry.Get(matchID); ok {
				handle.Loop.Broadcaster.Unsubscribe(roomID)
				handle.Loop.Leave(roomID, func() { h.registry.Reap(matchID) })
			}
		case "spectator":
			if room, ok := h.spectators.Get(matchID); ok {
				room.Leave(roomID)
			}
		}
	}
	h.matchmaker.Dequeue(connID)
}
