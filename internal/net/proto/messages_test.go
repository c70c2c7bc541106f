package proto

import (
	"encoding/json"
	"testing"

	"arena-server/internal/combat"
	"arena-server/internal/match"
)

func TestDecodeClientMessageJoinMatch(t *testing.T) {
	raw := `{"type":"join_match","match_id":"m1"}`
	msg, err := DecodeClientMessage([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypeJoinMatch || msg.MatchID != "m1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestDecodeClientMessageMalformedPayload(t *testing.T) {
	if _, err := DecodeClientMessage([]byte("not json")); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestToCommandMapsMoveAction(t *testing.T) {
	msg := ClientMessage{
		Type:     TypeInput,
		Action:   "move",
		Params:   InputParams{DX: 0.5, DY: -1},
		ClientTS: 1234,
	}
	cmd, ok := msg.ToCommand("p1")
	if !ok {
		t.Fatal("expected ToCommand to accept an input message")
	}
	if cmd.PlayerID != "p1" || cmd.Action != match.ActionMove {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if cmd.Move == nil || cmd.Move.DX != 0.5 || cmd.Move.DY != -1 {
		t.Fatalf("unexpected move params: %+v", cmd.Move)
	}
	if cmd.ClientTS != 1234 {
		t.Fatalf("expected client_ts preserved, got %d", cmd.ClientTS)
	}
}

func TestToCommandMapsAttackHitLocation(t *testing.T) {
	msg := ClientMessage{
		Type:   TypeInput,
		Action: "attack",
		Params: InputParams{HitLocation: combat.HitHead},
	}
	cmd, ok := msg.ToCommand("p1")
	if !ok {
		t.Fatal("expected ToCommand to accept an input message")
	}
	if cmd.Action != match.ActionAttack || cmd.HitLocation != combat.HitHead {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestToCommandCarriesOptionalTargetPosition(t *testing.T) {
	x, y := 10.0, 20.0
	msg := ClientMessage{
		Type:   TypeInput,
		Action: "cast",
		Params: InputParams{TargetX: &x, TargetY: &y},
	}
	cmd, ok := msg.ToCommand("p1")
	if !ok {
		t.Fatal("expected ToCommand to accept an input message")
	}
	if cmd.TargetPos == nil || cmd.TargetPos.X != x || cmd.TargetPos.Y != y {
		t.Fatalf("expected target position carried through, got %+v", cmd.TargetPos)
	}
}

func TestToCommandRejectsNonInputMessage(t *testing.T) {
	msg := ClientMessage{Type: TypePing}
	if _, ok := msg.ToCommand("p1"); ok {
		t.Fatal("expected ToCommand to reject a non-input message type")
	}
}

func TestEncodeErrorMessage(t *testing.T) {
	data, err := Encode(Error("game_full"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != TypeError || decoded["reason"] != "game_full" {
		t.Fatalf("unexpected encoded message: %v", decoded)
	}
}

func TestStateFullCarriesSnapshot(t *testing.T) {
	snap := match.Snapshot{Players: []match.PlayerSnapshot{{ID: "p1"}}}
	msg := StateFull("m1", 42, 1000, snap)
	if msg.Type != TypeStateFull || msg.MatchID != "m1" || msg.Tick != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Snapshot == nil || len(msg.Snapshot.Players) != 1 {
		t.Fatalf("expected snapshot carried through, got %+v", msg.Snapshot)
	}
}

func TestStateDeltaCarriesCompressedPayload(t *testing.T) {
	compressed := []byte{0x1f, 0x8b}
	msg := StateDelta("m1", 1, 1000, nil, compressed)
	if msg.Type != TypeStateDelta || msg.Deltas != nil {
		t.Fatalf("expected raw deltas nil when compressed is set, got %+v", msg)
	}
	if len(msg.Compressed) != 2 {
		t.Fatalf("expected compressed payload carried through, got %v", msg.Compressed)
	}
}
