// Package server provides the HTTP API for umekomi.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/catalog"
	"github.com/kotoba-ml/umekomi/internal/config"
	"github.com/kotoba-ml/umekomi/internal/embedder"
	"github.com/kotoba-ml/umekomi/internal/store"
)

// Server is the HTTP server for the umekomi API. Model instances are opened
// lazily on first request and reused; each instance is serialized behind its
// own mutex because a session handles one request at a time.
type Server struct {
	opts   embedder.Options
	cache  *store.Cache
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server

	mu        sync.Mutex
	instances map[string]*instanceEntry
}

type instanceEntry struct {
	mu   sync.Mutex
	inst *embedder.Instance
}

// NewServer creates a server with the given dependencies. cache may be nil
// to disable embedding caching.
func NewServer(cfg *config.ServerConfig, cache *store.Cache, opts embedder.Options, logger *zap.Logger) *Server {
	return &Server{
		opts:      opts,
		cache:     cache,
		config:    cfg,
		logger:    logger,
		instances: make(map[string]*instanceEntry),
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and closes all open model instances.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, entry := range s.instances {
		entry.mu.Lock()
		if cerr := entry.inst.Close(); cerr != nil {
			s.logger.Warn("failed to close model instance", zap.String("model", name), zap.Error(cerr))
		}
		entry.mu.Unlock()
		delete(s.instances, name)
	}
	return err
}

// Routes builds the chi router. Exposed for tests that drive the handlers
// without binding a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/embed", s.handleEmbed)
	r.Get("/api/v1/models", s.handleModels)
	r.Get("/health", s.handleHealth)
	return r
}

// instance returns the entry for the requested model, opening it on first
// use. Aliases resolve to one shared entry. Opening happens under the
// registry lock so concurrent first requests for the same model load it once.
func (s *Server) instance(ctx context.Context, model string) (*instanceEntry, error) {
	spec, err := catalog.Resolve(model)
	if err != nil {
		return nil, embedder.Errorf(embedder.CodeInitializationFailed, "initialization failed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.instances[spec.Name]; ok {
		return entry, nil
	}

	inst, err := embedder.Open(ctx, spec.Name, s.opts)
	if err != nil {
		return nil, err
	}
	entry := &instanceEntry{inst: inst}
	s.instances[spec.Name] = entry
	return entry, nil
}
