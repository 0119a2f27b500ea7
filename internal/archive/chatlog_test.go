package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

func newTestChatLog(t *testing.T) (*ChatLog, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	l, err := NewChatLog(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewChatLog: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestChatLogAppendAndRecent(t *testing.T) {
	l, _ := newTestChatLog(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		msg := wire.ChatMessage{
			ID:       fmt.Sprintf("s1-%d", i),
			SenderID: "s1",
			Message:  fmt.Sprintf("msg-%d", i),
		}
		if err := l.AppendChat(ctx, "gallery-7", msg); err != nil {
			t.Fatalf("AppendChat: %v", err)
		}
	}

	got, err := l.Recent(ctx, "gallery-7", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent len = %d, want 3", len(got))
	}
	if got[0].Message != "msg-2" || got[2].Message != "msg-0" {
		t.Fatalf("Recent order wrong: %+v", got)
	}
}

func TestChatLogTrimsToCap(t *testing.T) {
	l, _ := newTestChatLog(t)
	l.cap = 5
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		msg := wire.ChatMessage{ID: fmt.Sprintf("s1-%d", i), Message: fmt.Sprintf("m%d", i)}
		if err := l.AppendChat(ctx, "g", msg); err != nil {
			t.Fatalf("AppendChat: %v", err)
		}
	}

	got, err := l.Recent(ctx, "g", 100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("trail len = %d, want cap 5", len(got))
	}
	if got[0].Message != "m11" || got[4].Message != "m7" {
		t.Fatalf("trail kept the wrong end: %+v", got)
	}
}

func TestChatLogExpires(t *testing.T) {
	l, mr := newTestChatLog(t)
	ctx := context.Background()

	if err := l.AppendChat(ctx, "g", wire.ChatMessage{ID: "x"}); err != nil {
		t.Fatalf("AppendChat: %v", err)
	}
	mr.FastForward(25 * time.Hour)

	got, err := l.Recent(ctx, "g", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("trail survived past TTL: %+v", got)
	}
}

func TestChatLogRoomsIsolated(t *testing.T) {
	l, _ := newTestChatLog(t)
	ctx := context.Background()

	_ = l.AppendChat(ctx, "g1", wire.ChatMessage{ID: "a", Message: "in g1"})
	_ = l.AppendChat(ctx, "g2", wire.ChatMessage{ID: "b", Message: "in g2"})

	got, err := l.Recent(ctx, "g1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Message != "in g1" {
		t.Fatalf("rooms share a trail: %+v", got)
	}
}
