package gallery

import (
	"math"
	"strings"
	"time"

	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

// Defaults applied when a joiner supplies no avatar of its own.
const (
	DefaultCharacterPath = "/models/characters/"
	DefaultCharacterFile = "worker.glb"
)

// Session is one connected participant's state for the lifetime of a
// single connection. It is owned by its Room and mutated only under the
// room's handler step.
type Session struct {
	ID       string
	UserID   string
	DeviceID string
	Name     string

	X        float64
	Y        float64
	Z        float64
	Rotation float64

	CharacterPath string
	CharacterFile string

	JoinedAt time.Time
}

// JoinOptions carries the caller-supplied, unauthenticated join fields.
// All strings are opaque; identity fields are used for duplicate
// detection only.
type JoinOptions struct {
	GalleryID     string
	UserID        string
	DeviceID      string
	Name          string
	CharacterPath string
	CharacterFile string

	X        float64
	Y        float64
	Z        float64
	Rotation float64
}

func newSession(id string, opts JoinOptions, exts []string, now time.Time) *Session {
	s := &Session{
		ID:            id,
		UserID:        strings.TrimSpace(opts.UserID),
		DeviceID:      strings.TrimSpace(opts.DeviceID),
		Name:          strings.TrimSpace(opts.Name),
		CharacterPath: DefaultCharacterPath,
		CharacterFile: DefaultCharacterFile,
		JoinedAt:      now,
	}
	if s.Name == "" {
		s.Name = guestName(id)
	}
	if p := opts.CharacterPath; validCharacterPath(p) {
		s.CharacterPath = p
	}
	if f := opts.CharacterFile; validCharacterFile(f, exts) {
		s.CharacterFile = f
	}
	if finite(opts.X, opts.Y, opts.Z, opts.Rotation) {
		s.X, s.Y, s.Z, s.Rotation = opts.X, opts.Y, opts.Z, opts.Rotation
	}
	return s
}

// guestName derives a stable display name from the session id.
func guestName(sessionID string) string {
	tail := sessionID
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return "Guest-" + tail
}

func (s *Session) state() wire.PlayerState {
	return wire.PlayerState{
		ID:            s.ID,
		Name:          s.Name,
		X:             s.X,
		Y:             s.Y,
		Z:             s.Z,
		Rotation:      s.Rotation,
		CharacterPath: s.CharacterPath,
		CharacterFile: s.CharacterFile,
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// validCharacterPath rejects anything that could escape the asset tree:
// parent-directory segments and home-directory shorthand.
func validCharacterPath(p string) bool {
	if strings.TrimSpace(p) == "" {
		return false
	}
	if strings.Contains(p, "..") || strings.Contains(p, "~") {
		return false
	}
	return true
}

// validCharacterFile accepts only allow-listed model extensions.
func validCharacterFile(f string, exts []string) bool {
	if strings.TrimSpace(f) == "" {
		return false
	}
	if strings.Contains(f, "..") || strings.Contains(f, "/") {
		return false
	}
	lower := strings.ToLower(f)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
