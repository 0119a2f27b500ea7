package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

const sendBuffer = 64

var errNoConnection = errors.New("no live connection for session")

// ConnTable maps session ids to live websocket connections and
// implements the room layer's Sender. Each connection gets a buffered
// egress queue drained by its own writer goroutine, so a slow or dead
// recipient never blocks a room handler or another recipient.
type ConnTable struct {
	logger *zap.Logger

	mu    sync.RWMutex
	conns map[string]*conn
}

type conn struct {
	ws     *websocket.Conn
	sendCh chan wire.Event
	done   chan struct{}
	once   sync.Once
}

func NewConnTable(logger *zap.Logger) *ConnTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnTable{
		logger: logger,
		conns:  make(map[string]*conn),
	}
}

func (t *ConnTable) register(sessionID string, ws *websocket.Conn) *conn {
	c := &conn{
		ws:     ws,
		sendCh: make(chan wire.Event, sendBuffer),
		done:   make(chan struct{}),
	}
	t.mu.Lock()
	t.conns[sessionID] = c
	t.mu.Unlock()

	go t.writeLoop(sessionID, c)
	return c
}

func (t *ConnTable) unregister(sessionID string, c *conn) {
	t.mu.Lock()
	if cur, ok := t.conns[sessionID]; ok && cur == c {
		delete(t.conns, sessionID)
	}
	t.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// Send enqueues an event for a session. Fire-and-forget: a missing
// connection or a full egress queue drops the event and reports it.
func (t *ConnTable) Send(sessionID string, event wire.Event) error {
	t.mu.RLock()
	c, ok := t.conns[sessionID]
	t.mu.RUnlock()
	if !ok {
		return errNoConnection
	}
	// Checked before enqueue: the buffered channel would otherwise
	// accept events no writer loop will ever drain.
	select {
	case <-c.done:
		return errNoConnection
	default:
	}
	select {
	case c.sendCh <- event:
		return nil
	default:
		return errors.New("egress queue full, event dropped")
	}
}

// Close terminates a session's connection with the given close code.
// Fire-and-forget like Send: the conn is marked dead immediately and
// the close handshake, which waits for the peer's close frame, runs
// on its own goroutine so a slow peer never stalls the caller.
func (t *ConnTable) Close(sessionID string, code int, reason string) error {
	t.mu.RLock()
	c, ok := t.conns[sessionID]
	t.mu.RUnlock()
	if !ok {
		return errNoConnection
	}
	c.once.Do(func() { close(c.done) })
	go func() {
		if err := c.ws.Close(websocket.StatusCode(code), reason); err != nil {
			t.logger.Debug("close handshake failed",
				zap.String("session", sessionID), zap.Error(err))
		}
	}()
	return nil
}

func (t *ConnTable) writeLoop(sessionID string, c *conn) {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.sendCh:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := wsjson.Write(ctx, c.ws, ev)
			cancel()
			if err != nil {
				t.logger.Debug("write failed",
					zap.String("session", sessionID),
					zap.String("event", ev.Type),
					zap.Error(err))
			}
		}
	}
}
