// Package server exposes the gang sheet engine over HTTP.
//
// The API accepts design uploads or source URLs, packs them into sheets,
// and stores the rendered document as a downloadable job:
//
//	POST /api/v1/gangsheets     generate a document as pdf, zip or json
//	POST /api/v1/quotes         price a layout without rendering
//	GET  /api/v1/pricing        the active tier table
//	GET  /api/v1/jobs/:id       download the rendered PDF or ZIP
//	GET  /api/v1/jobs/:id/result job metadata and layout result
//	GET  /healthz               liveness probe
//
// Finished jobs are held in a Store (in-process memory or Redis) until
// their TTL runs out.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"

	"github.com/ramonerose/dtfgangsheet/internal/config"
	"github.com/ramonerose/dtfgangsheet/pkg/api"
)

// Server wires the HTTP router, the job store and the layout engine
// together under one configuration.
type Server struct {
	cfg         *config.Config
	log         *log.Logger
	store       Store
	baseOptions api.Options
	router      *gin.Engine
	httpServer  *http.Server
}

// New builds a Server from the configuration. The job store backend is
// opened here so a bad Redis URL fails at startup, not on first upload.
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         cfg,
		log:         logger,
		store:       store,
		baseOptions: cfg.Options(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes()
	router.Use(s.requestLogger(), gin.Recovery(), s.bodyLimit())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/gangsheets", s.handleGenerate)
		v1.POST("/quotes", s.handleQuote)
		v1.GET("/pricing", s.handlePricing)
		v1.GET("/jobs/:id", s.handleDownload)
		v1.GET("/jobs/:id/result", s.handleJobResult)
	}
	router.GET("/healthz", s.handleHealth)

	s.router = router
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}
	return s, nil
}

func newStore(cfg *config.Config) (Store, error) {
	if cfg.Storage.Backend == "redis" {
		return NewRedisStore(cfg.Storage.RedisURL, cfg.Storage.JobTTL())
	}
	return NewMemoryStore(cfg.Storage.JobTTL()), nil
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until SIGINT or
// SIGTERM, then drains in-flight requests before returning.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	if max := s.cfg.Server.MaxConnections; max > 0 {
		ln = netutil.LimitListener(ln, max)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.Info("server listening",
		"addr", s.httpServer.Addr,
		"storage", s.cfg.Storage.Backend,
		"sheetWidth", s.cfg.Sheet.WidthInches)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		s.store.Close()
		return err
	case sig := <-quit:
		s.log.Info("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := s.store.Close(); err != nil {
		s.log.Error("failed to close job store", "error", err)
	}
	return nil
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	}
}

// bodyLimit caps request bodies at the configured upload limit so a
// runaway upload cannot exhaust memory.
func (s *Server) bodyLimit() gin.HandlerFunc {
	limit := s.cfg.Server.MaxUploadBytes()
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
