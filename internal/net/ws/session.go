// Package ws implements the websocket transport: a Handler that serves each
// inbound connection, dispatching the client message vocabulary of spec section 6
// onto the registry, matchmaker, and spectator rooms, and a Session type
// that satisfies match.Subscriber so the broadcaster can push ticks
// straight to a live connection.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arena-server/internal/match"
	"arena-server/internal/net/proto"
)

// Session wraps one websocket connection. Writes are serialised: the
// broadcaster may call Send concurrently with the handler's own replies to
// inbound messages.
type Session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex

	matchID string

	pingMu     sync.Mutex
	latency    time.Duration
	lastPongAt time.Time
}

// NewSession constructs a Session bound to id and matchID (used to stamp
// state_full/state_delta pushes).
func NewSession(id, matchID string, conn *websocket.Conn) *Session {
	return &Session{id: id, matchID: matchID, conn: conn}
}

// ID satisfies match.Subscriber.
func (s *Session) ID() string { return s.id }

// Rebind retargets the Session's Subscriber identity and stamped match id,
// used when the same connection is registered as a spectator under a
// server-assigned id distinct from its connection id.
func (s *Session) Rebind(id, matchID string) {
	s.id = id
	s.matchID = matchID
}

// Send satisfies match.Subscriber, translating an Outbound tick payload
// into the wire protocol's state_full/state_delta frame. Game-lifecycle
// deltas (match_started, match_finished, ...) of an uncompressed batch are
// additionally fanned out as their own match_event pushes per spec section
// 6; a compressed batch carries no separate match_event pushes.
func (s *Session) Send(out match.Outbound) error {
	var msg proto.ServerMessage
	if out.Snapshot != nil {
		msg = proto.StateFull(s.matchID, out.Tick, out.Time.UnixMilli(), *out.Snapshot)
	} else {
		msg = proto.StateDelta(s.matchID, out.Tick, out.Time.UnixMilli(), out.Deltas, out.Compressed)
	}
	if err := s.WriteJSON(msg); err != nil {
		return err
	}
	for _, d := range out.Deltas {
		if d.Kind != match.KindGameEvent {
			continue
		}
		if payload, ok := d.Payload.(match.GameEventPayload); ok {
			if err := s.WriteJSON(proto.MatchEvent(payload.Name, payload.Data)); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteJSON encodes and writes one server message, serialised against
// concurrent writers.
func (s *Session) WriteJSON(msg proto.ServerMessage) error {
	data, err := proto.Encode(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// ObservePing updates the session's round-trip estimate from the gap
// between the pong we last sent and this new ping arriving, and returns
// the refreshed estimate. With no prior pong (the connection's first
// ping, or a pong not yet sent) it returns whatever was last observed,
// zero if none. Call MarkPongSent after writing the reply so the next
// ping measures against it.
func (s *Session) ObservePing(now time.Time) time.Duration {
	s.pingMu.Lock()
	defer s.pingMu.Unlock()
	if !s.lastPongAt.IsZero() && now.After(s.lastPongAt) {
		s.latency = now.Sub(s.lastPongAt)
	}
	return s.latency
}

// MarkPongSent records when a pong reply went out, the baseline the next
// ObservePing measures against.
func (s *Session) MarkPongSent(now time.Time) {
	s.pingMu.Lock()
	defer s.pingMu.Unlock()
	s.lastPongAt = now
}

// Latency reports the most recently observed round-trip estimate.
func (s *Session) Latency() time.Duration {
	s.pingMu.Lock()
	defer s.pingMu.Unlock()
	return s.latency
}
