package wire

// MoveData is the payload of an inbound "move" message.
type MoveData struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
}

// CharacterData is the payload of an inbound "character" message.
// Both fields are independently optional; nil means "leave unchanged".
type CharacterData struct {
	Path *string `json:"path,omitempty"`
	File *string `json:"file,omitempty"`
}

// ChatData is the payload of an inbound "chat" message.
type ChatData struct {
	Message string `json:"message"`
}

// SignalData is the payload of an inbound "signal" message. Payload is
// an opaque blob handed to the target as-is.
type SignalData struct {
	Target  string `json:"target"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}
