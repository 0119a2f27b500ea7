package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mpoapostolis/galerra-game-server/internal/gallery"
	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

// Close code for a join the room refused (full).
const closeJoinRejected = 4001

// Handler accepts websocket connections, assigns each a session id,
// routes it into a room via the manager and pumps inbound messages to
// the room's dispatcher until the connection drops.
type Handler struct {
	manager *gallery.Manager
	conns   *ConnTable
	logger  *zap.Logger

	originPatterns []string
	pingInterval   time.Duration
}

type HandlerOption func(*Handler)

// WithOriginPatterns restricts accepted handshake origins.
func WithOriginPatterns(patterns []string) HandlerOption {
	return func(h *Handler) { h.originPatterns = patterns }
}

func WithPingInterval(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func NewHandler(manager *gallery.Manager, conns *ConnTable, logger *zap.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		manager:      manager,
		conns:        conns,
		logger:       logger,
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Debug("accept failed", zap.Error(err))
		return
	}

	sessionID := uuid.NewString()
	opts := joinOptionsFromQuery(r.URL.Query())

	c := h.conns.register(sessionID, ws)

	room, err := h.manager.Join(sessionID, opts)
	if err != nil {
		h.conns.unregister(sessionID, c)
		_ = ws.Close(closeJoinRejected, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.pingLoop(ctx, ws)

	for {
		var env wire.Envelope
		if err := wsjson.Read(ctx, ws, &env); err != nil {
			status := websocket.CloseStatus(err)
			if status == -1 && !errors.Is(err, context.Canceled) {
				h.logger.Debug("read failed", zap.String("session", sessionID), zap.Error(err))
			}
			break
		}
		room.Dispatch(sessionID, env)
	}

	room.Leave(sessionID)
	h.conns.unregister(sessionID, c)
	_ = ws.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) pingLoop(ctx context.Context, ws *websocket.Conn) {
	t := time.NewTicker(h.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := ws.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// joinOptionsFromQuery reads the handshake query string. All values
// are optional opaque strings; coordinates that fail to parse stay at
// the origin.
func joinOptionsFromQuery(q url.Values) gallery.JoinOptions {
	opts := gallery.JoinOptions{
		GalleryID:     q.Get("galleryId"),
		UserID:        q.Get("userId"),
		DeviceID:      q.Get("deviceId"),
		Name:          q.Get("name"),
		CharacterPath: q.Get("characterPath"),
		CharacterFile: q.Get("characterFile"),
	}
	opts.X = parseCoord(q.Get("x"))
	opts.Y = parseCoord(q.Get("y"))
	opts.Z = parseCoord(q.Get("z"))
	opts.Rotation = parseCoord(q.Get("rotation"))
	return opts
}

func parseCoord(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
