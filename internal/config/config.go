package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string
	OpsAddr    string

	AllowedOrigins []string

	RedisURL    string
	DatabaseURL string

	TuningPath string

	PingInterval time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:   ":2567",
		OpsAddr:      ":8081",
		PingInterval: 30 * time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("GALLERY_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("OPS_ADDR")); v != "" {
		cfg.OpsAddr = v
	}

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		parts := strings.Split(v, ",")
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.TuningPath = strings.TrimSpace(os.Getenv("GALLERY_TUNING"))

	if v := strings.TrimSpace(os.Getenv("PING_INTERVAL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PingInterval = time.Duration(n) * time.Second
		}
	}

	return cfg, nil
}
