package gallery

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager matches join requests to rooms by gallery key, creating a
// room on first use and disposing it once it empties out. Rooms are
// independent; the manager lock covers only the room table.
type Manager struct {
	cfg       Config
	sender    Sender
	logger    *zap.Logger
	chatSink  ChatSink
	visitSink VisitSink
	clock     func() time.Time

	mu    sync.Mutex
	rooms map[string]*Room
}

type ManagerOption func(*Manager)

func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithManagerChatSink(s ChatSink) ManagerOption {
	return func(m *Manager) { m.chatSink = s }
}

func WithManagerVisitSink(s VisitSink) ManagerOption {
	return func(m *Manager) { m.visitSink = s }
}

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.clock = now
		}
	}
}

func NewManager(cfg Config, sender Sender, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg.withDefaults(),
		sender: sender,
		logger: zap.NewNop(),
		clock:  time.Now,
		rooms:  make(map[string]*Room),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Join routes a session to the room named by its galleryId, creating
// the room if needed. A missing galleryId gets a generated key. The
// retry loop covers the window where a looked-up room disposes before
// the join lands.
func (m *Manager) Join(sessionID string, opts JoinOptions) (*Room, error) {
	key := opts.GalleryID
	if key == "" {
		key = uuid.NewString()
	}
	for {
		room := m.resolve(key)
		err := room.Join(sessionID, opts)
		if errors.Is(err, ErrRoomDisposed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return room, nil
	}
}

func (m *Manager) resolve(key string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[key]; ok {
		return r
	}
	r := NewRoom(key, m.cfg, m.sender,
		WithRoomLogger(m.logger),
		WithChatSink(m.chatSink),
		WithVisitSink(m.visitSink),
		WithClock(m.clock),
		withOnEmpty(m.release),
	)
	m.rooms[key] = r
	m.logger.Info("room created", zap.String("room", key))
	return r
}

// release disposes a room that reported itself empty, unless a join
// slipped in since.
func (m *Manager) release(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rooms[r.ID()]
	if !ok || cur != r {
		return
	}
	if !r.Empty() {
		return
	}
	delete(m.rooms, r.ID())
	r.Dispose()
}

// RoomStats is one room's occupancy for the ops surface.
type RoomStats struct {
	ID       string `json:"id"`
	Sessions int    `json:"sessions"`
}

// Stats returns per-room occupancy, sorted by room id.
func (m *Manager) Stats() []RoomStats {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	out := make([]RoomStats, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomStats{ID: r.ID(), Sessions: r.Occupancy()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
