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

	"github.com/starford/adrbook/internal/adr"
	"github.com/starford/adrbook/internal/adrservice"
	"github.com/starford/adrbook/internal/api"
	"github.com/starford/adrbook/internal/enhancer"
	"github.com/starford/adrbook/internal/index"
	"github.com/starford/adrbook/internal/mcpserver"
	"github.com/starford/adrbook/internal/project"
	"github.com/starford/adrbook/internal/sse"
	"github.com/starford/adrbook/internal/storage"
)

// Runtime holds the components shared by every command: the loaded
// project, its ADR repository and the search index behind one service.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	Project *project.Project
	Service *adrservice.Service

	root string
	db   *index.DB
}

// NewRuntime loads the project under cfg.Project.Root, opens the index and
// syncs it with the ADRs on disk. events may be nil.
func NewRuntime(ctx context.Context, cfg *Config, logger *slog.Logger, events adrservice.Publisher) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewFS(cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	projCfg, err := project.LoadConfig(store.Root())
	if err != nil {
		return nil, err
	}
	proj, err := project.Load(store, projCfg)
	if err != nil {
		return nil, err
	}

	repo, err := adr.Open(ctx, store, proj,
		adr.WithEnhancer(enhancer.NewGoldmark(enhancer.WithLinkPrefix(cfg.Render.LinkPrefix))),
		adr.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("load adrs: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	svc := adrservice.NewService(repo, db, events, logger)
	if err := svc.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	logger.Debug("Project loaded",
		slog.String("project", proj.Name),
		slog.String("root", store.Root()),
		slog.Int("packages", len(proj.Packages())),
		slog.Int("adrs", repo.Len()))

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Project: proj,
		Service: svc,
		root:    store.Root(),
		db:      db,
	}, nil
}

// Close releases the index.
func (rt *Runtime) Close() error {
	return rt.db.Close()
}

// Watch reloads the service whenever ADR files change, until ctx is done.
func (rt *Runtime) Watch(ctx context.Context) error {
	folders := make([]string, 0, len(rt.Project.Folders()))
	for _, f := range rt.Project.Folders() {
		folders = append(folders, f)
	}
	return index.Watch(ctx, rt.root, folders, rt.Config.Watch.Debounce, rt.Logger,
		func(ctx context.Context, paths []string) {
			rt.Logger.Info("watcher: changes detected", slog.Int("files", len(paths)))
			if err := rt.Service.Reload(ctx); err != nil {
				rt.Logger.Error("watcher: reload failed", slog.String("error", err.Error()))
			}
		})
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("project_root", cfg.Project.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := NewRuntime(ctx, cfg, logger, broker)
	if err != nil {
		return err
	}
	defer rt.Close()

	apiRouter := api.NewRouter(rt.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload on ADR file changes.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			if err := rt.Watch(gCtx); err != nil {
				return fmt.Errorf("watcher error: %w", err)
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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the ADR tools over stdio. Logs go to stderr, stdout belongs
// to the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	rt, err := NewRuntime(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Watch.Enabled {
		go func() {
			if err := rt.Watch(ctx); err != nil {
				logger.Error("watcher error", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(rt.Service, app.version).ServeStdio()
}
