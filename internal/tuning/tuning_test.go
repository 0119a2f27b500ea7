package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxClients != 16 {
		t.Fatalf("MaxClients = %d, want 16", cfg.MaxClients)
	}
	if cfg.Chat.Limit != 5 || cfg.Chat.Window != 10*time.Second {
		t.Fatalf("chat limit = %+v", cfg.Chat)
	}
	if cfg.ChatMaxLength != 500 || cfg.ChatHistory != 50 {
		t.Fatalf("chat tuning = %d/%d", cfg.ChatMaxLength, cfg.ChatHistory)
	}
	if cfg.Signal.Limit != 60 {
		t.Fatalf("signal limit = %+v", cfg.Signal)
	}
	if len(cfg.CharacterExts) != 2 || cfg.CharacterExts[0] != ".glb" {
		t.Fatalf("extensions = %v", cfg.CharacterExts)
	}
}

func TestLoadOverrideKeepsUnsetDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	override := `
chat:
  limit: 3
  window_ms: 1000
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chat.Limit != 3 || cfg.Chat.Window != time.Second {
		t.Fatalf("override not applied: %+v", cfg.Chat)
	}
	if cfg.MaxClients != 16 {
		t.Fatalf("untouched key lost its default: %d", cfg.MaxClients)
	}
}

func TestLoadMissingOverrideFails(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing override file")
	}
}
