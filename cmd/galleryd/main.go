package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mpoapostolis/galerra-game-server/internal/archive"
	appcfg "github.com/mpoapostolis/galerra-game-server/internal/config"
	"github.com/mpoapostolis/galerra-game-server/internal/gallery"
	"github.com/mpoapostolis/galerra-game-server/internal/obslog"
	"github.com/mpoapostolis/galerra-game-server/internal/ops"
	"github.com/mpoapostolis/galerra-game-server/internal/transport"
	"github.com/mpoapostolis/galerra-game-server/internal/tuning"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	roomCfg, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		logger.Fatal("tuning load error", zap.Error(err))
	}

	managerOpts := []gallery.ManagerOption{gallery.WithLogger(logger)}

	// Optional archival sinks; the rooms run fine without either.
	var chatLog *archive.ChatLog
	if cfg.RedisURL != "" {
		chatLog, err = archive.NewChatLog(cfg.RedisURL)
		if err != nil {
			logger.Fatal("chat log init error", zap.Error(err))
		}
		managerOpts = append(managerOpts, gallery.WithManagerChatSink(chatLog))
	}
	var visits *archive.VisitRepository
	if cfg.DatabaseURL != "" {
		visits, err = archive.NewVisitRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("visit repository init error", zap.Error(err))
		}
		managerOpts = append(managerOpts, gallery.WithManagerVisitSink(visits))
	}

	conns := transport.NewConnTable(logger)
	manager := gallery.NewManager(roomCfg, conns, managerOpts...)

	wsHandler := transport.NewHandler(manager, conns, logger,
		transport.WithOriginPatterns(cfg.AllowedOrigins),
		transport.WithPingInterval(cfg.PingInterval),
	)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("gallery server listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	opsSrv := ops.NewServer(manager, logger)
	go func() {
		if err := opsSrv.ListenAndServe(cfg.OpsAddr); err != nil {
			logger.Error("ops server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	_ = opsSrv.Shutdown()
	_ = chatLog.Close()
	_ = visits.Close()
}
