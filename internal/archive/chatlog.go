package archive

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

const (
	chatLogTTL = 24 * time.Hour
	chatLogCap = 500
)

// ChatLog keeps a capped, expiring per-room chat trail in Redis for
// moderation and audit. Rooms write it fire-and-forget and never read
// it back; losing entries is acceptable.
type ChatLog struct {
	rdb *redis.Client
	cap int64
	ttl time.Duration
}

func NewChatLog(redisURL string) (*ChatLog, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, err
	}
	return &ChatLog{rdb: redis.NewClient(opt), cap: chatLogCap, ttl: chatLogTTL}, nil
}

func (l *ChatLog) key(roomID string) string { return "gallery:" + strings.TrimSpace(roomID) + ":chat" }

// AppendChat pushes one message onto the room's trail, trimming to the
// cap and refreshing the TTL.
func (l *ChatLog) AppendChat(ctx context.Context, roomID string, msg wire.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := l.key(roomID)
	if err := l.rdb.LPush(ctx, key, raw).Err(); err != nil {
		return err
	}
	if err := l.rdb.LTrim(ctx, key, 0, l.cap-1).Err(); err != nil {
		return err
	}
	return l.rdb.Expire(ctx, key, l.ttl).Err()
}

// Recent returns up to n messages, newest first.
func (l *ChatLog) Recent(ctx context.Context, roomID string, n int64) ([]wire.ChatMessage, error) {
	raws, err := l.rdb.LRange(ctx, l.key(roomID), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]wire.ChatMessage, 0, len(raws))
	for _, raw := range raws {
		var m wire.ChatMessage
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (l *ChatLog) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
