// Package server provides the HTTP API for grantseek.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/chat"
	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/search"
	"github.com/hyperjump/grantseek/internal/storage"
	"github.com/hyperjump/grantseek/pkg/utils"
)

// ReloadFunc opens a fresh engine from the artifacts on disk.
type ReloadFunc func(ctx context.Context) (*search.Engine, error)

// Server is the HTTP server for the grantseek API. The engine sits behind an atomic
// pointer so a reload can swap it while requests are served.
type Server struct {
	engine    atomic.Pointer[search.Engine]
	catalog   storage.Catalog
	chatModel chat.Model
	reload    ReloadFunc
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	// closeDelay lets in-flight queries on a replaced engine finish before it is closed.
	closeDelay time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog enables the record listing and index run status backed by catalog.
func WithCatalog(c storage.Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithChatModel enables POST /api/v1/chat.
func WithChatModel(m chat.Model) Option {
	return func(s *Server) { s.chatModel = m }
}

// WithReload sets the function Reload uses to open a replacement engine.
func WithReload(fn ReloadFunc) Option {
	return func(s *Server) { s.reload = fn }
}

// WithCloseDelay sets how long a replaced engine stays open after a swap.
func WithCloseDelay(d time.Duration) Option {
	return func(s *Server) { s.closeDelay = d }
}

// NewServer creates a server answering queries with engine.
func NewServer(engine *search.Engine, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		config:     cfg,
		logger:     utils.OrNop(logger),
		closeDelay: 5 * time.Second,
	}
	s.engine.Store(engine)
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: s.Router(),
	}
	return s
}

// Engine returns the engine currently serving queries.
func (s *Server) Engine() *search.Engine {
	return s.engine.Load()
}

// Reload opens a new engine and swaps it in. When the new artifacts fail to load or
// align, the current engine keeps serving and the error is returned.
func (s *Server) Reload(ctx context.Context) error {
	if s.reload == nil {
		return fmt.Errorf("reload is not configured")
	}
	next, err := s.reload(ctx)
	if err != nil {
		s.logger.Warn("reload failed, keeping current index", zap.Error(err))
		return err
	}
	old := s.engine.Swap(next)
	s.logger.Info("index reloaded",
		zap.Int("records", next.Size()),
		zap.String("index_type", next.IndexType()))
	if old != nil {
		time.AfterFunc(s.closeDelay, func() {
			if err := old.Close(); err != nil {
				s.logger.Warn("failed to close replaced engine", zap.Error(err))
			}
		})
	}
	return nil
}

// Router returns the HTTP handler with the middleware stack and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/records", s.handleListRecords)
	r.Get("/api/v1/records/{id}", s.handleGetRecord)
	r.Post("/api/v1/chat", s.handleChat)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and closes the current engine.
// It is safe to call before or concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if e := s.engine.Swap(nil); e != nil {
		if closeErr := e.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}
