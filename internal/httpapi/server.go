// Package httpapi exposes the command processor to the CLI, the TUI and the
// tray over a loopback HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/eventbus"
	"github.com/julianstephens/skillpulse/internal/logger"
)

type Server struct {
	ln  net.Listener
	srv *http.Server
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(proc *engine.Processor, hub *eventbus.Hub) *gin.Engine {
	h := &handler{proc: proc, hub: hub, startedAt: time.Now()}

	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.POST("/command", h.command)
	api.GET("/state", h.state)
	api.GET("/timer", h.timer)
	api.GET("/achievements", h.achievements)
	api.GET("/badge", h.badge)
	api.GET("/events", h.events)

	return r
}

// Start listens on addr and serves until ctx ends.
func Start(ctx context.Context, addr string, proc *engine.Processor, hub *eventbus.Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln: ln,
		srv: &http.Server{
			Handler:           NewRouter(proc, hub),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
		}
	}()

	logger.Info("HTTP API listening", "addr", s.Addr())
	return s, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s == nil || s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
