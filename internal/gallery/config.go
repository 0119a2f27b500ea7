package gallery

import "time"

// RateLimit is one channel's sliding-window budget: at most Limit
// allowed events within any trailing Window.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Config tunes a room's admission, chat and signaling behavior. Zero
// values are replaced by the defaults below at room creation.
type Config struct {
	MaxClients int

	Chat          RateLimit
	ChatMaxLength int
	ChatHistory   int

	Signal RateLimit

	CharacterExts []string
}

// DefaultConfig mirrors the settings the production deployment shipped
// with: a sixteen-person lobby, human-scale chat pacing and room for a
// bursty ICE exchange on the signal channel.
func DefaultConfig() Config {
	return Config{
		MaxClients:    16,
		Chat:          RateLimit{Limit: 5, Window: 10 * time.Second},
		ChatMaxLength: 500,
		ChatHistory:   50,
		Signal:        RateLimit{Limit: 60, Window: 10 * time.Second},
		CharacterExts: []string{".glb", ".gltf"},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxClients <= 0 {
		c.MaxClients = d.MaxClients
	}
	if c.Chat.Limit <= 0 || c.Chat.Window <= 0 {
		c.Chat = d.Chat
	}
	if c.ChatMaxLength <= 0 {
		c.ChatMaxLength = d.ChatMaxLength
	}
	if c.ChatHistory <= 0 {
		c.ChatHistory = d.ChatHistory
	}
	if c.Signal.Limit <= 0 || c.Signal.Window <= 0 {
		c.Signal = d.Signal
	}
	if len(c.CharacterExts) == 0 {
		c.CharacterExts = d.CharacterExts
	}
	return c
}
