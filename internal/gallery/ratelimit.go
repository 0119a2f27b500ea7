package gallery

import "time"

// Channel names a rate-limited message class.
type Channel string

const (
	ChannelChat   Channel = "chat"
	ChannelSignal Channel = "signal"
)

type limiterKey struct {
	session string
	channel Channel
}

// RateLimiter is a sliding-window counter keyed by (session, channel).
// Unlike a fixed bucket, it bounds the allowed count over any trailing
// window, so bursts straddling a boundary cannot double the budget.
// Not safe for concurrent use; the owning room serializes access.
type RateLimiter struct {
	limits  map[Channel]RateLimit
	windows map[limiterKey][]time.Time
}

func NewRateLimiter(limits map[Channel]RateLimit) *RateLimiter {
	return &RateLimiter{
		limits:  limits,
		windows: make(map[limiterKey][]time.Time),
	}
}

// Allow reports whether an event on the channel may proceed at `now`,
// recording it when allowed. Denials leave the window untouched.
// Channels with no configured limit are unrestricted.
func (rl *RateLimiter) Allow(sessionID string, ch Channel, now time.Time) bool {
	limit, ok := rl.limits[ch]
	if !ok || limit.Limit <= 0 {
		return true
	}

	key := limiterKey{session: sessionID, channel: ch}
	window := rl.windows[key]

	cutoff := now.Add(-limit.Window)
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit.Limit {
		rl.windows[key] = kept
		return false
	}

	rl.windows[key] = append(kept, now)
	return true
}

// Forget drops all window state for a session, on leave or eviction.
func (rl *RateLimiter) Forget(sessionID string) {
	for key := range rl.windows {
		if key.session == sessionID {
			delete(rl.windows, key)
		}
	}
}
