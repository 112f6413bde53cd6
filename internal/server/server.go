// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/matthewbaird/infraview/internal/client"
	"github.com/matthewbaird/infraview/internal/columns"
	"github.com/matthewbaird/infraview/internal/display"
	"github.com/matthewbaird/infraview/internal/eventbus"
	"github.com/matthewbaird/infraview/internal/handler"
	"github.com/matthewbaird/infraview/internal/logging"
	"github.com/matthewbaird/infraview/internal/schema"
	"github.com/matthewbaird/infraview/internal/session"
	"github.com/matthewbaird/infraview/internal/snapshot"
	"github.com/matthewbaird/infraview/internal/wire"
	"github.com/matthewbaird/infraview/internal/worker"
)

const (
	sessionMaxAge      = 24 * time.Hour
	sessionIdleTimeout = 30 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

// Config holds server configuration.
type Config struct {
	Port          int
	DefaultBranch string
	PageSize      int
	SchemaFile    string

	// SchemaRefreshInterval re-reads the schema source; zero disables it.
	SchemaRefreshInterval time.Duration

	// Backend is nil when no backend address is configured.
	Backend   *client.Client
	Snapshots snapshot.Store
	Logger    zerolog.Logger

	// Display controls how the objects endpoint renders values.
	Display display.Options
}

// App is the wired service: registry, bus, loader and router.
type App struct {
	Registry *schema.Registry
	Bus      *eventbus.Bus
	Loader   *Loader
	Sessions *session.Manager
	Router   http.Handler

	cfg Config
}

// New wires every component but starts nothing.
func New(cfg Config) *App {
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = "main"
	}
	if cfg.Snapshots == nil {
		cfg.Snapshots = snapshot.NewMemoryStore()
	}
	log := cfg.Logger

	registry := schema.NewRegistry()
	bus := eventbus.New(256, logging.Component(log, "eventbus"))
	sessions := session.NewManager(cfg.DefaultBranch, sessionMaxAge, sessionIdleTimeout)
	rules := columns.DefaultRules()

	var source SchemaSource
	opts := []handler.Option{
		handler.WithPageSize(cfg.PageSize),
		handler.WithDisplayOptions(cfg.Display),
	}
	if cfg.Backend != nil {
		source = cfg.Backend
		opts = append(opts, handler.WithBackend(cfg.Backend))
	}
	loader := NewLoader(registry, bus, source, cfg.Snapshots, cfg.SchemaFile, logging.Component(log, "loader"))
	opts = append(opts, handler.WithRefresher(loader))

	ws := wire.NewHandler(sessions, registry, rules, cfg.PageSize, logging.Component(log, "wire"))
	bus.Subscribe("log", eventbus.NewLogConsumer(logging.Component(log, "schema")))
	bus.Subscribe("snapshot", eventbus.NewSnapshotConsumer(cfg.Snapshots))
	bus.Subscribe("wire", ws)

	r := chi.NewRouter()
	// The websocket endpoint hijacks the connection, so it stays outside the
	// response-wrapping middleware.
	r.Handle("/api/ws", ws)

	r.Group(func(r chi.Router) {
		r.Use(handler.Logging(log), handler.Recovery)

		// Health check
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"status":      "ok",
				"connections": ws.Connections(),
				"sessions":    sessions.Len(),
			})
		})

		handler.NewConsoleHandler(registry, rules, cfg.DefaultBranch, opts...).Routes(r)
	})

	return &App{
		Registry: registry,
		Bus:      bus,
		Loader:   loader,
		Sessions: sessions,
		Router:   r,
		cfg:      cfg,
	}
}

// Run bootstraps the default branch and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	log := a.cfg.Logger

	a.Bus.Start(ctx)
	defer a.Bus.Stop()

	src := a.Loader.Bootstrap(ctx, a.cfg.DefaultBranch)
	set := a.Registry.Set(a.cfg.DefaultBranch)
	log.Info().
		Str("branch", a.cfg.DefaultBranch).
		Str("source", string(src)).
		Int("kinds", set.Len()).
		Str("hash", set.Hash()).
		Msg("schema bootstrapped")

	go a.reapSessions(ctx)
	if a.cfg.SchemaRefreshInterval > 0 && (a.cfg.SchemaFile != "" || a.cfg.Backend != nil) {
		syncer := worker.NewSchemaSyncWorker(a.Loader, a.Registry, a.cfg.SchemaRefreshInterval, logging.Component(log, "worker"))
		done := make(chan struct{})
		go func() {
			defer close(done)
			syncer.Run(ctx)
		}()
		// Deferred calls run last-in first-out: the worker is joined before
		// the bus stops.
		defer func() { <-done }()
	}

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// In-flight requests may still publish; wait for them before the bus stops.
	<-stopped
	return nil
}

func (a *App) reapSessions(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Sessions.Cleanup()
		}
	}
}

// Run starts the HTTP server with all routes registered.
func Run(ctx context.Context, cfg Config) error {
	return New(cfg).Run(ctx)
}
