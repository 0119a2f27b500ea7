package tuning

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/mpoapostolis/galerra-game-server/internal/gallery"
)

//go:embed tuning.yaml
var defaultFiles embed.FS

type channelTuning struct {
	Limit     int `yaml:"limit"`
	WindowMs  int `yaml:"window_ms"`
	MaxLength int `yaml:"max_length"`
	History   int `yaml:"history"`
}

type fileTuning struct {
	MaxClients int           `yaml:"max_clients"`
	Chat       channelTuning `yaml:"chat"`
	Signal     channelTuning `yaml:"signal"`
	Character  struct {
		Extensions []string `yaml:"extensions"`
	} `yaml:"character"`
}

// Load reads the embedded room tuning and applies an optional override
// file on top. Keys absent from the override keep their defaults.
func Load(overridePath string) (gallery.Config, error) {
	var t fileTuning

	raw, err := fs.ReadFile(defaultFiles, "tuning.yaml")
	if err != nil {
		return gallery.Config{}, fmt.Errorf("read embedded tuning: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return gallery.Config{}, fmt.Errorf("parse embedded tuning: %w", err)
	}

	if p := strings.TrimSpace(overridePath); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			return gallery.Config{}, fmt.Errorf("read tuning override: %w", err)
		}
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return gallery.Config{}, fmt.Errorf("parse tuning override: %w", err)
		}
	}

	return gallery.Config{
		MaxClients: t.MaxClients,
		Chat: gallery.RateLimit{
			Limit:  t.Chat.Limit,
			Window: time.Duration(t.Chat.WindowMs) * time.Millisecond,
		},
		ChatMaxLength: t.Chat.MaxLength,
		ChatHistory:   t.Chat.History,
		Signal: gallery.RateLimit{
			Limit:  t.Signal.Limit,
			Window: time.Duration(t.Signal.WindowMs) * time.Millisecond,
		},
		CharacterExts: t.Character.Extensions,
	}, nil
}
