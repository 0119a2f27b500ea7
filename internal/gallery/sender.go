package gallery

import (
	"context"
	"time"

	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

// CloseReplaced is the close code delivered to a session evicted in
// favor of a newer connection carrying the same identity.
const CloseReplaced = 4000

// Sender delivers events to connected sessions. Implemented by the
// transport; rooms treat every send as fire-and-forget, so a failure
// for one recipient never affects the others.
type Sender interface {
	Send(sessionID string, event wire.Event) error
	// Close terminates a session's connection with a close code and
	// reason. Returns an error when the connection handle is gone;
	// callers treat that as already disconnected.
	Close(sessionID string, code int, reason string) error
}

// ChatSink receives accepted chat messages for out-of-band retention
// (moderation, audit). Best-effort; rooms never read it back.
type ChatSink interface {
	AppendChat(ctx context.Context, roomID string, msg wire.ChatMessage) error
}

// Visit is one completed stay in a room.
type Visit struct {
	RoomID    string
	SessionID string
	UserID    string
	DeviceID  string
	Name      string
	JoinedAt  time.Time
	LeftAt    time.Time
}

// VisitSink records completed visits. Best-effort, fire-and-forget.
type VisitSink interface {
	SaveVisit(ctx context.Context, v Visit) error
}
