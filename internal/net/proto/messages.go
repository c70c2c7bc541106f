// Package proto defines the JSON wire messages exchanged over the
// websocket connection, per spec section 6: client-issued requests and
// the server-pushed state/event stream.
package proto

import (
	"encoding/json"

	"arena-server/internal/arena"
	"arena-server/internal/combat"
	"arena-server/internal/match"
)

// Client message type identifiers.
const (
	TypeJoinMatch  = "join_match"
	TypeInput      = "input"
	TypeSpectate   = "spectate"
	TypePing       = "ping"
	TypeQueueJoin  = "queue_join"
	TypeQueueLeave = "queue_leave"
)

// Server message type identifiers.
const (
	TypeJoined      = "joined"
	TypeError       = "error"
	TypeWelcome     = "welcome"
	TypePong        = "pong"
	TypeQueued      = "queued"
	TypeLeft        = "left"
	TypeStateFull   = "state_full"
	TypeStateDelta  = "state_delta"
	TypeMatchEvent  = "match_event"
	TypeMatchFound  = "match_found"
)

// ClientMessage is the envelope for every inbound websocket message; only
// the fields relevant to Type are populated.
type ClientMessage struct {
	Type string `json:"type"`

	// join_match
	MatchID  string `json:"match_id,omitempty"`
	PlayerID string `json:"player_id,omitempty"`

	// input
	Action      string           `json:"action,omitempty"`
	Params      InputParams      `json:"params,omitempty"`
	ClientTS    int64            `json:"client_ts,omitempty"`

	// ping
	TS int64 `json:"ts,omitempty"`

	// queue_join
	Mode   string `json:"mode,omitempty"`
	Region string `json:"region,omitempty"`
}

// InputParams carries the action-specific payload of an input message.
type InputParams struct {
	DX          float64             `json:"dx,omitempty"`
	DY          float64             `json:"dy,omitempty"`
	Target      string              `json:"target,omitempty"`
	TargetX     *float64            `json:"targetX,omitempty"`
	TargetY     *float64            `json:"targetY,omitempty"`
	Ability     string              `json:"ability,omitempty"`
	HitLocation combat.HitLocation  `json:"hitLocation,omitempty"`
}

// DecodeClientMessage parses one inbound websocket frame.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	err := json.Unmarshal(payload, &msg)
	return msg, err
}

// ToCommand maps a decoded input message onto the match package's Command,
// returning false for message types that do not produce a command (the
// caller should not enqueue in that case).
func (msg ClientMessage) ToCommand(playerID string) (match.Command, bool) {
	if msg.Type != TypeInput {
		return match.Command{}, false
	}
	cmd := match.Command{
		PlayerID: playerID,
		Action:   match.ActionType(msg.Action),
		Target:   msg.Params.Target,
		Ability:  msg.Params.Ability,
		ClientTS: msg.ClientTS,
	}
	switch cmd.Action {
	case match.ActionMove:
		cmd.Move = &match.MoveParams{DX: msg.Params.DX, DY: msg.Params.DY}
	case match.ActionAttack:
		cmd.HitLocation = msg.Params.HitLocation
	}
	if msg.Params.TargetX != nil && msg.Params.TargetY != nil {
		cmd.TargetPos = &arena.Vector{X: *msg.Params.TargetX, Y: *msg.Params.TargetY}
	}
	return cmd, true
}

// ServerMessage is the envelope for every outbound websocket message.
type ServerMessage struct {
	Type string `json:"type"`

	MatchID string `json:"match_id,omitempty"`
	Reason  string `json:"reason,omitempty"`

	SpectatorID string `json:"spectator_id,omitempty"`

	TS       int64 `json:"ts,omitempty"`
	ServerTS int64 `json:"server_ts,omitempty"`

	Position int `json:"position,omitempty"`

	Tick       uint64          `json:"tick,omitempty"`
	Time       int64           `json:"ts_ms,omitempty"`
	Snapshot   *match.Snapshot `json:"snapshot,omitempty"`
	Deltas     []match.Delta   `json:"deltas,omitempty"`
	Compressed []byte          `json:"compressed,omitempty"`

	EventType string `json:"eventType,omitempty"`
	Payload   any    `json:"payload,omitempty"`

	Role string `json:"role,omitempty"`
}

// Encode renders msg as a JSON frame.
func Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// Error builds an {type: "error", reason} frame.
func Error(reason string) ServerMessage {
	return ServerMessage{Type: TypeError, Reason: reason}
}

// Joined builds a {type: "joined", match_id} frame.
func Joined(matchID string) ServerMessage {
	return ServerMessage{Type: TypeJoined, MatchID: matchID}
}

// Welcome builds a spectate acceptance frame.
func Welcome(spectatorID, matchID string) ServerMessage {
	return ServerMessage{Type: TypeWelcome, SpectatorID: spectatorID, MatchID: matchID}
}

// Pong echoes a ping, including the server's own timestamp.
func Pong(clientTS, serverTS int64) ServerMessage {
	return ServerMessage{Type: TypePong, TS: clientTS, ServerTS: serverTS}
}

// Queued builds a queue_join acceptance frame.
func Queued(position int) ServerMessage {
	return ServerMessage{Type: TypeQueued, Position: position}
}

// Left builds a queue_leave acknowledgement frame.
func Left() ServerMessage {
	return ServerMessage{Type: TypeLeft}
}

// StateFull builds a full-snapshot push.
func StateFull(matchID string, tick uint64, ts int64, snap match.Snapshot) ServerMessage {
	return ServerMessage{Type: TypeStateFull, MatchID: matchID, Tick: tick, Time: ts, Snapshot: &snap}
}

// StateDelta builds a delta-batch push, optionally carrying a
// gzip-compressed payload instead of the raw deltas.
func StateDelta(matchID string, tick uint64, ts int64, deltas []match.Delta, compressed []byte) ServerMessage {
	return ServerMessage{Type: TypeStateDelta, MatchID: matchID, Tick: tick, Time: ts, Deltas: deltas, Compressed: compressed}
}

// MatchEvent builds a {type: "match_event"} push.
func MatchEvent(eventType string, payload any) ServerMessage {
	return ServerMessage{Type: TypeMatchEvent, EventType: eventType, Payload: payload}
}

// MatchFoundMessage builds a {type: "match_found"} push.
func MatchFoundMessage(matchID, role string) ServerMessage {
	return ServerMessage{Type: TypeMatchFound, MatchID: matchID, Role: role}
}
