package wire

// PlayerState is one occupant's presence as seen by other occupants.
type PlayerState struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	Rotation      float64 `json:"rotation"`
	CharacterPath string  `json:"characterPath"`
	CharacterFile string  `json:"characterFile"`
}

// ChatMessage is a canonical chat record: id and timestamp are assigned
// server-side, the sender name is resolved at receive time.
type ChatMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// RoomState is the snapshot sent once to a new joiner. Players holds
// every other occupant registered at the moment of join.
type RoomState struct {
	RoomID  string        `json:"roomId"`
	You     PlayerState   `json:"you"`
	Players []PlayerState `json:"players"`
	Chat    []ChatMessage `json:"chat,omitempty"`
}

// PlayerMoved is broadcast to other occupants after an accepted move.
type PlayerMoved struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
}

// PlayerCharacter is broadcast after an accepted character change and
// carries the combined resulting character state.
type PlayerCharacter struct {
	ID            string `json:"id"`
	CharacterPath string `json:"characterPath"`
	CharacterFile string `json:"characterFile"`
}

// PlayerLeft is broadcast when an occupant leaves or is evicted.
type PlayerLeft struct {
	ID string `json:"id"`
}

// SignalEvent is delivered to exactly one target session.
type SignalEvent struct {
	From    string `json:"from"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}
