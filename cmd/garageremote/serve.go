package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/garage-remote/internal/api"
	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/i18n"
	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
	"github.com/nerrad567/garage-remote/internal/infrastructure/database"
	"github.com/nerrad567/garage-remote/internal/infrastructure/logging"
	"github.com/nerrad567/garage-remote/internal/metrics"
	"github.com/nerrad567/garage-remote/internal/settings"
	"github.com/nerrad567/garage-remote/migrations"
)

// startupTimeout bounds database setup at startup.
const startupTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and WebSocket API for the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd)
		},
	}
}

func (a *app) serve(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	return a.runServe(cmd.Context(), cfg)
}

// runServe starts every component and blocks until ctx is cancelled.
func (a *app) runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Logging, version)
	log.Info("garage remote starting", "commit", commit, "build_date", date)

	setupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := openDatabase(setupCtx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if err := db.Migrate(setupCtx, migrations.FS, migrations.Dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Resolve UI language
	resolver := i18n.NewResolver(settings.NewSQLiteStore(db.DB), log.With("component", "i18n"))
	locale := resolver.ResolveInitial(setupCtx, cfg.Locale.Default)
	log.Info("locale resolved", "locale", locale)

	// Metrics
	var (
		m              *metrics.Metrics
		recorder       garage.Recorder
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		m = metrics.New(true)
		recorder = m
		metricsHandler = m.Handler()
	}

	manager, err := a.newManager(cfg, log, recorder)
	if err != nil {
		return err
	}
	if m != nil {
		defer manager.Subscribe(m.Observe)()
	}
	defer manager.Subscribe(statusLogger(log.With("component", "garage")))()

	// Start API server
	server, err := api.New(api.Deps{
		Config:         cfg.API,
		WS:             cfg.WebSocket,
		Metrics:        cfg.Metrics,
		Logger:         log,
		Garage:         manager,
		Locales:        resolver,
		MetricsHandler: metricsHandler,
		Database:       db,
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if cfg.Device.AutoConnect {
		if err := manager.Connect(cfg.ConnectionParams()); err != nil {
			return fmt.Errorf("auto-connecting: %w", err)
		}
	}

	log.Info("garage remote started", "address", server.Addr())
	if a.serving != nil {
		a.serving(server.Addr())
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	manager.Disconnect()
	return nil
}

// openDatabase opens the configured SQLite file.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close() //nolint:errcheck // Already failing
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)
	return db, nil
}

// statusLogger logs connection status transitions.
func statusLogger(log *logging.Logger) garage.Observer {
	last := garage.StatusDisconnected
	return func(s garage.Snapshot) {
		if s.Status == last {
			return
		}
		last = s.Status
		if s.Status == garage.StatusError {
			log.Warn("connection status changed", "status", s.Status, "error", s.Error)
			return
		}
		log.Info("connection status changed", "status", s.Status)
	}
}
