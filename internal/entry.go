// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/tinywiki/internal/api"
	"github.com/starford/tinywiki/internal/index"
	"github.com/starford/tinywiki/internal/mcpserver"
	"github.com/starford/tinywiki/internal/pathkey"
	"github.com/starford/tinywiki/internal/render"
	"github.com/starford/tinywiki/internal/storage"
	"github.com/starford/tinywiki/internal/web"
	"github.com/starford/tinywiki/internal/wiki"
)

// components are the services shared by the HTTP and MCP front ends.
type components struct {
	logger *slog.Logger
	store  storage.Provider
	db     *index.DB
	svc    *wiki.Service
}

func (c *components) Close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Warn("close index failed", slog.String("error", err.Error()))
		}
	}
}

func setup(opts []Option) (*application, *components, error) {
	app := &application{version: "dev", logOut: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("wiki_root", cfg.Wiki.Root),
		slog.String("home_page", cfg.Wiki.HomePage),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure wiki root exists.
	if err := os.MkdirAll(cfg.Wiki.Root, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create wiki root: %w", err)
	}

	store, err := storage.NewFS(cfg.Wiki.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	renderer := render.New(render.Config{HighlightStyle: cfg.Wiki.HighlightStyle})

	c := &components{logger: logger, store: store}

	// The link index stays a nil interface when disabled.
	var links index.LinkIndex
	if cfg.Index.Enabled {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init index: %w", err)
		}
		if err := index.Sync(db, store, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		c.db = db
		links = db
	}

	c.svc = wiki.NewService(store, renderer, links)
	return app, c, nil
}

// NewRouter builds the HTTP handler serving the wiki, the JSON API and health checks.
func NewRouter(svc *wiki.Service, cfg *Config) (http.Handler, error) {
	pages, err := web.NewHandler(svc, web.Config{
		HomePage: cfg.Wiki.HomePage,
		Session: web.SessionConfig{
			Secret:       cfg.Session.Secret,
			SecureCookie: cfg.Session.SecureCookie,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init web handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)

	// Health check endpoints.
	r.Get("/_health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/_health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount JSON API routes under /_api.
	r.Mount("/_api", api.NewRouter(svc))

	pages.Register(r)

	return r, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := app.config
	logger := c.logger

	handler, err := NewRouter(c.svc, cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the link graph current when pages are edited outside the server.
	if c.db != nil {
		g.Go(func() error {
			if err := index.Watch(gCtx, c.db, c.store, logger, logExternalEdit(logger)); err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// logExternalEdit records pages created, changed or removed on disk by
// something other than the server.
func logExternalEdit(logger *slog.Logger) index.EventCallback {
	return func(kind string, key pathkey.Key) {
		logger.Info("Page changed on disk",
			slog.String("op", kind),
			slog.String("key", key.String()))
	}
}

// errShutdown cancels the group context so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the wiki tools over stdio until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app, c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	c.logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
