package ops

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/mpoapostolis/galerra-game-server/internal/gallery"
)

// Server exposes the operator-facing HTTP surface: a health check and
// a room occupancy listing. It runs on its own listener, away from the
// websocket port.
type Server struct {
	manager *gallery.Manager
	logger  *zap.Logger
	srv     *fasthttp.Server
}

func NewServer(manager *gallery.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{manager: manager, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:     s.handle,
		Name:        "galerra-ops",
		Concurrency: 256,
	}
	return s
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	case "/rooms":
		stats := s.manager.Stats()
		body, err := json.Marshal(stats)
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBody(body)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("ops server listening", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}
