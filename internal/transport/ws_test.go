package transport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mpoapostolis/galerra-game-server/internal/gallery"
	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	conns := NewConnTable(zap.NewNop())
	manager := gallery.NewManager(gallery.Config{}, conns)
	h := NewHandler(manager, conns, zap.NewNop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return c
}

func readEvent(t *testing.T, ctx context.Context, c *websocket.Conn) wire.Envelope {
	t.Helper()
	var env wire.Envelope
	if err := wsjson.Read(ctx, c, &env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestJoinDeliversSnapshot(t *testing.T) {
	url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, url+"/?galleryId=g7&name=Ada&x=1&y=0&z=2&rotation=0.5")
	defer c.Close(websocket.StatusNormalClosure, "")

	env := readEvent(t, ctx, c)
	if env.Type != wire.EventRoomState {
		t.Fatalf("first event = %s, want %s", env.Type, wire.EventRoomState)
	}
	var st wire.RoomState
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if st.RoomID != "g7" || st.You.Name != "Ada" || st.You.X != 1 || st.You.Z != 2 {
		t.Fatalf("snapshot = %+v", st)
	}
	if len(st.Players) != 0 {
		t.Fatalf("first joiner sees %d others", len(st.Players))
	}
}

func TestDuplicateUserConnectionReplaced(t *testing.T) {
	url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c1 := dial(t, ctx, url+"/?galleryId=g&userId=u1")
	readEvent(t, ctx, c1)

	c2 := dial(t, ctx, url+"/?galleryId=g&userId=u1")
	defer c2.Close(websocket.StatusNormalClosure, "")
	readEvent(t, ctx, c2)

	// the first connection is force-closed with the replacement code
	var env wire.Envelope
	err := wsjson.Read(ctx, c1, &env)
	if err == nil {
		t.Fatalf("evicted connection still readable, got %s", env.Type)
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusCode(gallery.CloseReplaced) {
		t.Fatalf("close status = %d, want %d", status, gallery.CloseReplaced)
	}
}

func TestChatRoundTrip(t *testing.T) {
	url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c1 := dial(t, ctx, url+"/?galleryId=g&name=Ada")
	defer c1.Close(websocket.StatusNormalClosure, "")
	readEvent(t, ctx, c1)

	c2 := dial(t, ctx, url+"/?galleryId=g&name=Bo")
	defer c2.Close(websocket.StatusNormalClosure, "")
	readEvent(t, ctx, c2)

	if env := readEvent(t, ctx, c1); env.Type != wire.EventPlayerJoined {
		t.Fatalf("c1 expected player-joined, got %s", env.Type)
	}

	chat := wire.Envelope{Type: wire.TypeChat, Data: mustRaw(t, wire.ChatData{Message: "hello"})}
	if err := wsjson.Write(ctx, c1, chat); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	for name, c := range map[string]*websocket.Conn{"sender": c1, "peer": c2} {
		env := readEvent(t, ctx, c)
		if env.Type != wire.EventChat {
			t.Fatalf("%s expected chat, got %s", name, env.Type)
		}
		var msg wire.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			t.Fatalf("decode chat: %v", err)
		}
		if msg.Message != "hello" || msg.SenderName != "Ada" || msg.ID == "" {
			t.Fatalf("%s chat record = %+v", name, msg)
		}
	}
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}
