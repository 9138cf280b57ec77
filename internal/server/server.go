// Package server exposes log sessions over HTTP.
//
// Clients create a session from a text log or from a repository below the
// configured root, then page through its print cells and change concealment.
// Every session lives in a [session.Registry] and is evicted after it has
// been idle for the registry's TTL.
//
//	GET    /ping
//	GET    /api/sessions
//	POST   /api/sessions
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/rows?from=&to=
//	GET    /api/sessions/{id}/rows/{row}
//	GET    /api/sessions/{id}/rows/{row}/arrows/{arrow}
//	GET    /api/sessions/{id}/nodes/{node}
//	GET    /api/sessions/{id}/dump
//	GET    /api/sessions/{id}/updates (WebSocket)
//	POST   /api/sessions/{id}/append
//	POST   /api/sessions/{id}/more?limit=
//	POST   /api/sessions/{id}/conceal
//	POST   /api/sessions/{id}/expand
//	POST   /api/sessions/{id}/expand/{node}
//	POST   /api/sessions/{id}/collapse
//	POST   /api/sessions/{id}/collapse/{node}
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/loggraph/internal/config"
	"github.com/matzehuels/loggraph/pkg/cache"
	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/session"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 32 << 20

	cleanupInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server holds the sessions and their record sources.
type Server struct {
	cfg       *config.Config
	reg       *session.Registry
	rc        *cache.RecordCache
	logger    *log.Logger
	pingEvery time.Duration

	mu      sync.Mutex
	sources map[uuid.UUID]source
}

// source is the producer a repository-backed session loads from.
type source struct {
	src    session.RecordSource
	labels map[graph.Hash][]string
}

// New creates a server. rc may be nil to disable record caching.
func New(cfg *config.Config, reg *session.Registry, rc *cache.RecordCache, logger *log.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = session.NewRegistry(0)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:       cfg,
		reg:       reg,
		rc:        rc,
		logger:    logger,
		pingEvery: pingInterval,
		sources:   make(map[uuid.UUID]source),
	}
}

// Router returns the HTTP handler with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/ping", s.ping)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)

			r.Get("/rows", s.getRows)
			r.Get("/rows/{row}", s.getRow)
			r.Get("/rows/{row}/arrows/{arrow}", s.followArrow)
			r.Get("/nodes/{node}", s.getNode)
			r.Get("/dump", s.getDump)
			r.Get("/updates", s.streamUpdates)

			r.Post("/append", s.appendRecords)
			r.Post("/more", s.loadMore)
			r.Post("/conceal", s.conceal)
			r.Post("/expand", s.expandAll)
			r.Post("/expand/{node}", s.expand)
			r.Post("/collapse", s.collapseAll)
			r.Post("/collapse/{node}", s.collapse)
		})
	})
	return r
}

// Run serves on the configured address until ctx is done, then shuts
// down gracefully. Idle sessions are evicted in the background.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.reg.Run(ctx, cleanupInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type sessionKey struct{}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.reg.Lookup(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionKey{}).(*session.Session)
}

func (s *Server) sourceOf(id uuid.UUID) (source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	return src, ok
}

func (s *Server) setSource(id uuid.UUID, src source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = src
}

func (s *Server) dropSource(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
}

// pruneSources forgets the sources of sessions the registry evicted.
func (s *Server) pruneSources() {
	live := make(map[uuid.UUID]bool)
	for _, info := range s.reg.List() {
		live[info.ID] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.sources {
		if !live[id] {
			delete(s.sources, id)
		}
	}
}
