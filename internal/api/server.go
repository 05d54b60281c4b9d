// Package api serves launchpad over HTTP: spawning agents, inspecting and
// killing their processes, approval checks and a live event stream.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/mattjoyce/launchpad/internal/approval"
	"github.com/mattjoyce/launchpad/internal/auth"
	"github.com/mattjoyce/launchpad/internal/env"
	"github.com/mattjoyce/launchpad/internal/events"
	"github.com/mattjoyce/launchpad/internal/process"
	"github.com/mattjoyce/launchpad/internal/profile"
	"github.com/mattjoyce/launchpad/internal/spawn"
)

// Spawner launches agents. *spawn.Dispatcher implements it.
type Spawner interface {
	Dispatch(ctx context.Context, req spawn.Request, baseDir string, approvals approval.Service, baseEnv *env.ExecutionEnv) (*agent.SpawnedChild, error)
}

// ProcessTable tracks spawned children. *process.Table implements it.
type ProcessTable interface {
	Track(child *agent.SpawnedChild, profile string, opts ...process.TrackOption) process.Snapshot
	Get(id string) (process.Snapshot, error)
	List() []process.Snapshot
	Kill(id string) error
	Running() int
}

// ProfileLister describes the configured profiles. *profile.Registry
// implements it.
type ProfileLister interface {
	Describe() []profile.Descriptor
}

// ApprovalLog reads recorded decisions. *approval.Store implements it.
type ApprovalLog interface {
	Recent(ctx context.Context, processID string, limit int) ([]approval.Response, error)
}

// EventSource is the read side of the event hub.
type EventSource interface {
	SnapshotSince(lastID int64, filter events.Filter) []events.Event
	Subscribe(filter events.Filter) (<-chan events.Event, func())
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// Keyring authenticates bearer tokens. A nil keyring rejects every
	// authenticated route.
	Keyring *auth.Keyring
	// BaseDir is where agents run; request working_dir values are joined to it.
	BaseDir                 string
	AllowEscapingWorkingDir bool
	MaxBodyBytes            int64
	ShutdownTimeout         time.Duration
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Spawner   Spawner
	Processes ProcessTable
	Profiles  ProfileLister
	Approvals approval.Service
	// ApprovalLog is nil when approval logging is disabled.
	ApprovalLog ApprovalLog
	BaseEnv     *env.ExecutionEnv
	Events      EventSource
	// Metrics serves /metrics; nil disables the route.
	Metrics http.Handler
}

// Server represents the HTTP API server.
type Server struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance.
func New(config Config, deps Deps, logger *slog.Logger) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		config:    config,
		deps:      deps,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: /events streams indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoints.
	r.Get("/healthz", s.handleHealthz)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireScopes(auth.ScopeSpawn)).Post("/spawn", s.handleSpawn)
		r.With(s.requireScopes(auth.ScopeProfilesRead, auth.ScopeSpawn)).Get("/profiles", s.handleListProfiles)
		r.With(s.requireScopes(auth.ScopeProfilesRead, auth.ScopeSpawn)).Get("/openapi.json", s.handleOpenAPI)
		r.With(s.requireScopes(auth.ScopeProcessRead)).Get("/processes", s.handleListProcesses)
		r.With(s.requireScopes(auth.ScopeProcessRead)).Get("/processes/{id}", s.handleGetProcess)
		r.With(s.requireScopes(auth.ScopeProcessWrite)).Delete("/processes/{id}", s.handleKillProcess)
		r.With(s.requireScopes(auth.ScopeApprovalRead)).Get("/approvals", s.handleListApprovals)
		r.With(s.requireScopes(auth.ScopeApprovalRW)).Post("/approvals/check", s.handleCheckApproval)
		r.With(s.requireScopes(auth.ScopeEventsRead)).Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
