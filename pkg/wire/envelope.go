package wire

import "encoding/json"

// Envelope is the framing for every message in either direction:
// a type tag plus a type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound message types.
const (
	TypeMove      = "move"
	TypeCharacter = "character"
	TypeChat      = "chat"
	TypeSignal    = "signal"
)

// Outbound event types.
const (
	EventRoomState       = "room-state"
	EventPlayerJoined    = "player-joined"
	EventPlayerMoved     = "player-moved"
	EventPlayerCharacter = "player-character"
	EventPlayerLeft      = "player-left"
	EventChat            = "chat"
	EventSignal          = "signal"
)

// Event is an outbound envelope before encoding.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
