package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

var (
	ErrRoomDisposed = errors.New("room disposed")
	ErrRoomFull     = errors.New("room full")
)

// Room is one isolated instance of the shared space. Every handler
// runs as a single run-to-completion step under the room mutex, so
// registry, limiter and presence state need no further locking; rooms
// are independent of each other.
type Room struct {
	id     string
	cfg    Config
	sender Sender
	logger *zap.Logger
	clock  func() time.Time

	chatSink  ChatSink
	visitSink VisitSink
	onEmpty   func(*Room)

	mu       sync.Mutex
	reg      *Registry
	limiter  *RateLimiter
	history  *chatHistory
	disposed bool
}

type RoomOption func(*Room)

func WithRoomLogger(l *zap.Logger) RoomOption {
	return func(r *Room) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithChatSink(s ChatSink) RoomOption {
	return func(r *Room) { r.chatSink = s }
}

func WithVisitSink(s VisitSink) RoomOption {
	return func(r *Room) { r.visitSink = s }
}

// WithClock overrides the room's time source.
func WithClock(now func() time.Time) RoomOption {
	return func(r *Room) {
		if now != nil {
			r.clock = now
		}
	}
}

func withOnEmpty(fn func(*Room)) RoomOption {
	return func(r *Room) { r.onEmpty = fn }
}

func NewRoom(id string, cfg Config, sender Sender, opts ...RoomOption) *Room {
	cfg = cfg.withDefaults()
	r := &Room{
		id:      id,
		cfg:     cfg,
		sender:  sender,
		logger:  zap.NewNop(),
		clock:   time.Now,
		reg:     NewRegistry(),
		history: newChatHistory(cfg.ChatHistory),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("room", id))
	r.limiter = NewRateLimiter(map[Channel]RateLimit{
		ChannelChat:   cfg.Chat,
		ChannelSignal: cfg.Signal,
	})
	return r
}

func (r *Room) ID() string { return r.id }

// Join admits a session: duplicate resolution, registration and the
// snapshot handoff happen within one uninterrupted step, so the
// snapshot can never include a just-evicted duplicate.
func (r *Room) Join(sessionID string, opts JoinOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return ErrRoomDisposed
	}

	// Last-writer-wins: any prior session sharing either identity
	// string is evicted before the newcomer is registered. User and
	// device matches can be two distinct sessions. Eviction runs
	// before the capacity check so a reconnect always reclaims its
	// own slot in a full room.
	if prior, ok := r.reg.FindByIdentity(strings.TrimSpace(opts.UserID), ""); ok {
		r.evictLocked(prior)
	}
	if prior, ok := r.reg.FindByIdentity("", strings.TrimSpace(opts.DeviceID)); ok {
		r.evictLocked(prior)
	}

	if r.reg.Len() >= r.cfg.MaxClients {
		return ErrRoomFull
	}

	now := r.clock()

	s := newSession(sessionID, opts, r.cfg.CharacterExts, now)
	r.reg.Insert(s)

	others := make([]wire.PlayerState, 0, r.reg.Len()-1)
	for _, o := range r.reg.All() {
		if o.ID == sessionID {
			continue
		}
		others = append(others, o.state())
	}
	r.send(sessionID, wire.Event{Type: wire.EventRoomState, Data: wire.RoomState{
		RoomID:  r.id,
		You:     s.state(),
		Players: others,
		Chat:    r.history.Messages(),
	}})
	r.broadcastLocked(sessionID, wire.Event{Type: wire.EventPlayerJoined, Data: s.state()})

	r.logger.Info("session joined",
		zap.String("session", sessionID),
		zap.String("user", s.UserID),
		zap.Int("occupants", r.reg.Len()))
	return nil
}

// evictLocked terminates a duplicate session. When the connection
// handle is already gone the registry removal alone suffices.
func (r *Room) evictLocked(sessionID string) {
	s, ok := r.reg.Get(sessionID)
	if !ok {
		return
	}
	r.reg.Remove(sessionID)
	r.limiter.Forget(sessionID)
	if err := r.sender.Close(sessionID, CloseReplaced, "replaced"); err != nil {
		r.logger.Debug("evicted session had no live connection",
			zap.String("session", sessionID), zap.Error(err))
	}
	r.broadcastLocked("", wire.Event{Type: wire.EventPlayerLeft, Data: wire.PlayerLeft{ID: sessionID}})
	r.recordVisit(s)
	r.logger.Info("duplicate session evicted",
		zap.String("session", sessionID), zap.String("user", s.UserID))
}

// Leave removes a session after a disconnect, consented or not.
// Unknown sessions (already evicted) are a no-op.
func (r *Room) Leave(sessionID string) {
	r.mu.Lock()
	s, ok := r.reg.Get(sessionID)
	if !ok {
		r.mu.Unlock()
		return
	}
	r.reg.Remove(sessionID)
	r.limiter.Forget(sessionID)
	r.broadcastLocked("", wire.Event{Type: wire.EventPlayerLeft, Data: wire.PlayerLeft{ID: sessionID}})
	r.recordVisit(s)
	empty := r.reg.Len() == 0
	r.logger.Info("session left",
		zap.String("session", sessionID), zap.Int("occupants", r.reg.Len()))
	r.mu.Unlock()

	if empty && r.onEmpty != nil {
		r.onEmpty(r)
	}
}

// Dispatch routes one inbound message. A panic in a handler is
// confined to that message: the dispatch boundary recovers and treats
// it as a dropped message.
func (r *Room) Dispatch(sessionID string, env wire.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic, message dropped",
				zap.String("session", sessionID),
				zap.String("type", env.Type),
				zap.Any("panic", rec))
		}
	}()

	switch env.Type {
	case wire.TypeMove:
		var d wire.MoveData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			r.logger.Debug("malformed move payload", zap.String("session", sessionID), zap.Error(err))
			return
		}
		r.HandleMove(sessionID, d.X, d.Y, d.Z, d.Rotation)
	case wire.TypeCharacter:
		var d wire.CharacterData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			r.logger.Debug("malformed character payload", zap.String("session", sessionID), zap.Error(err))
			return
		}
		r.HandleCharacter(sessionID, d)
	case wire.TypeChat:
		var d wire.ChatData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			r.logger.Debug("malformed chat payload", zap.String("session", sessionID), zap.Error(err))
			return
		}
		r.HandleChat(sessionID, d.Message)
	case wire.TypeSignal:
		var d wire.SignalData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			r.logger.Debug("malformed signal payload", zap.String("session", sessionID), zap.Error(err))
			return
		}
		r.HandleSignal(sessionID, d)
	default:
		r.logger.Debug("unknown message type", zap.String("session", sessionID), zap.String("type", env.Type))
	}
}

// HandleMove applies a position update and republishes it to every
// other occupant. Non-finite values and unknown sessions are dropped
// silently; the sender keeps its authoritative local state either way.
func (r *Room) HandleMove(sessionID string, x, y, z, rotation float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	s, ok := r.reg.Get(sessionID)
	if !ok {
		return
	}
	if !finite(x, y, z, rotation) {
		r.logger.Debug("non-finite move dropped", zap.String("session", sessionID))
		return
	}

	s.X, s.Y, s.Z, s.Rotation = x, y, z, rotation
	r.broadcastLocked(sessionID, wire.Event{Type: wire.EventPlayerMoved, Data: wire.PlayerMoved{
		ID: sessionID, X: x, Y: y, Z: z, Rotation: rotation,
	}})
}

// HandleCharacter validates each field independently: an invalid path
// does not discard a valid file, and vice versa. The combined result
// is broadcast when at least one field applied.
func (r *Room) HandleCharacter(sessionID string, d wire.CharacterData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	s, ok := r.reg.Get(sessionID)
	if !ok {
		return
	}

	changed := false
	if d.Path != nil {
		if validCharacterPath(*d.Path) {
			s.CharacterPath = *d.Path
			changed = true
		} else {
			r.logger.Debug("character path rejected", zap.String("session", sessionID))
		}
	}
	if d.File != nil {
		if validCharacterFile(*d.File, r.cfg.CharacterExts) {
			s.CharacterFile = *d.File
			changed = true
		} else {
			r.logger.Debug("character file rejected", zap.String("session", sessionID))
		}
	}
	if !changed {
		return
	}

	r.broadcastLocked(sessionID, wire.Event{Type: wire.EventPlayerCharacter, Data: wire.PlayerCharacter{
		ID:            sessionID,
		CharacterPath: s.CharacterPath,
		CharacterFile: s.CharacterFile,
	}})
}

// HandleChat validates, rate-limits and broadcasts a chat message to
// every occupant including the sender, which needs the canonical echo
// with the assigned id and timestamp.
func (r *Room) HandleChat(sessionID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	s, ok := r.reg.Get(sessionID)
	if !ok {
		return
	}

	message = strings.TrimSpace(message)
	if message == "" || len(message) > r.cfg.ChatMaxLength {
		r.logger.Debug("chat message rejected",
			zap.String("session", sessionID), zap.Int("length", len(message)))
		return
	}

	now := r.clock()
	if !r.limiter.Allow(sessionID, ChannelChat, now) {
		r.logger.Debug("chat rate limited", zap.String("session", sessionID))
		return
	}

	msg := wire.ChatMessage{
		ID:         fmt.Sprintf("%s-%d", sessionID, now.UnixMilli()),
		SenderID:   sessionID,
		SenderName: s.Name,
		Message:    message,
		Timestamp:  now.UnixMilli(),
	}
	r.history.Append(msg)
	r.broadcastLocked("", wire.Event{Type: wire.EventChat, Data: msg})
	r.archiveChat(msg)
}

// HandleSignal relays one peer-connection handshake message to the
// target session. The payload is never inspected. Denials and unknown
// targets drop the message with no feedback; the peer layer retries.
func (r *Room) HandleSignal(sessionID string, d wire.SignalData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	if _, ok := r.reg.Get(sessionID); !ok {
		return
	}

	switch d.Type {
	case "offer", "answer", "ice":
	default:
		r.logger.Debug("unknown signal kind dropped",
			zap.String("session", sessionID), zap.String("kind", d.Type))
		return
	}

	if !r.limiter.Allow(sessionID, ChannelSignal, r.clock()) {
		r.logger.Debug("signal rate limited", zap.String("session", sessionID))
		return
	}

	if _, ok := r.reg.Get(d.Target); !ok {
		r.logger.Debug("signal target not found",
			zap.String("session", sessionID), zap.String("target", d.Target))
		return
	}

	r.send(d.Target, wire.Event{Type: wire.EventSignal, Data: wire.SignalEvent{
		From:    sessionID,
		Type:    d.Type,
		Payload: d.Payload,
	}})
}

// Dispose clears all per-room state. Idempotent; a disposed room
// accepts no further joins or messages.
func (r *Room) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	r.disposed = true
	r.reg = NewRegistry()
	r.limiter = NewRateLimiter(nil)
	r.history = newChatHistory(r.cfg.ChatHistory)
	r.logger.Info("room disposed")
}

func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg.Len() == 0
}

// Occupancy returns the current session count.
func (r *Room) Occupancy() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg.Len()
}

// broadcastLocked fans an event out to every session except `exclude`.
// Send failures are logged and isolated per recipient.
func (r *Room) broadcastLocked(exclude string, ev wire.Event) {
	for _, s := range r.reg.All() {
		if s.ID == exclude {
			continue
		}
		r.send(s.ID, ev)
	}
}

func (r *Room) send(sessionID string, ev wire.Event) {
	if err := r.sender.Send(sessionID, ev); err != nil {
		r.logger.Warn("send failed",
			zap.String("session", sessionID),
			zap.String("event", ev.Type),
			zap.Error(err))
	}
}

func (r *Room) archiveChat(msg wire.ChatMessage) {
	if r.chatSink == nil {
		return
	}
	roomID := r.id
	sink := r.chatSink
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.AppendChat(ctx, roomID, msg); err != nil {
			r.logger.Warn("chat archive failed", zap.Error(err))
		}
	}()
}

func (r *Room) recordVisit(s *Session) {
	if r.visitSink == nil {
		return
	}
	v := Visit{
		RoomID:    r.id,
		SessionID: s.ID,
		UserID:    s.UserID,
		DeviceID:  s.DeviceID,
		Name:      s.Name,
		JoinedAt:  s.JoinedAt,
		LeftAt:    r.clock(),
	}
	sink := r.visitSink
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.SaveVisit(ctx, v); err != nil {
			r.logger.Warn("visit log failed", zap.Error(err))
		}
	}()
}
