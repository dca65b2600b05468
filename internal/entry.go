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

	"github.com/starford/sovra/internal/api"
	"github.com/starford/sovra/internal/blobstore"
	"github.com/starford/sovra/internal/identity"
	"github.com/starford/sovra/internal/inbox"
	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/mcpserver"
	"github.com/starford/sovra/internal/network"
	"github.com/starford/sovra/internal/policy"
	"github.com/starford/sovra/internal/sse"
	"github.com/starford/sovra/internal/vaultservice"
)

// buildService wires the vault core from configuration. The returned close
// function releases the SQLite index.
func buildService(cfg *Config) (*vaultservice.Service, func(), error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create vault dir: %w", err)
	}

	blobs, err := blobstore.New(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init blob store: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	ident := identity.NewManager(db, blobs.Root())
	svc := vaultservice.New(blobs, db, ident, policy.NewGate(db), network.DefaultRegistry())
	return svc, func() { db.Close() }, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, closeDB, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	// Create the vault identity eagerly so first use is logged at startup.
	vault, err := svc.Vault(ctx)
	if err != nil {
		return fmt.Errorf("init vault identity: %w", err)
	}
	logger.Info("Vault ready", slog.String("did", vault.DID))

	// SSE broker, fed by service events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	svc.SetEventFunc(func(e vaultservice.Event) {
		broker.PublishVaultEvent(e.Type, e.DataID, e.Network)
	})

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Start the inbox importer when a drop-folder is configured.
	if cfg.Vault.Inbox != "" {
		g.Go(func() error {
			return inbox.Watch(gCtx, svc, cfg.Vault.Inbox, logger, nil)
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

// RunMCP starts the vault as an MCP stdio server. Logs go to stderr so
// stdout stays clean for the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, closeDB, err := buildService(app.config)
	if err != nil {
		return err
	}
	defer closeDB()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}
