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

	"github.com/starford/daybook/internal/api"
	"github.com/starford/daybook/internal/catalog"
	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/mcpserver"
	"github.com/starford/daybook/internal/service"
	"github.com/starford/daybook/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := app.logger()

	// SSE broker.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	svc, closeFn, err := app.service(logger, broker)
	if err != nil {
		return err
	}
	defer closeFn()

	// Ensure journal directories exist.
	for _, s := range svc.Layout.Scopes() {
		if err := os.MkdirAll(s.Base, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	// Run initial sync.
	if svc.Catalog != nil {
		if _, err := svc.Sync(ctx); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the journal tools over stdio until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger()

	svc, closeFn, err := app.service(logger, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("Starting MCP server", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}

// OpenService builds the journal service for one-shot commands. The returned
// func releases the catalog.
func OpenService(opts ...Option) (*service.Service, func(), error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	return app.service(app.logger(), nil)
}

// logger builds the structured JSON logger and installs it as the default.
func (app *application) logger() *slog.Logger {
	cfg := app.config
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.Int("scopes", len(cfg.Journal.ScopeList())),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return logger
}

// service opens the catalog when configured and wires the journal service.
// broker may be nil.
func (app *application) service(logger *slog.Logger, broker *sse.Broker) (*service.Service, func(), error) {
	cfg := app.config
	setup := service.Setup{
		Ext:       cfg.Journal.Ext,
		Scopes:    cfg.Journal.ScopeList(),
		Templates: cfg.Journal.Templates,
		Rules:     cfg.Journal.Rules(),
		Logger:    logger,
	}

	closeFn := func() {}
	if cfg.Catalog.Enabled() {
		db, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init catalog: %w", err)
		}
		setup.Catalog = db
		closeFn = func() { _ = db.Close() }
	}

	var svc *service.Service
	if broker != nil {
		setup.Events = broker
		setup.OnCreate = func(doc *document.Document) {
			broker.PublishEntryCreated(doc.Path, svc.Layout.ScopeOf(doc.Path))
		}
	}

	svc, err := service.Build(setup)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("init journal: %w", err)
	}
	return svc, closeFn, nil
}
