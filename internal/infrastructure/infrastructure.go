// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies (logging, storage, persistence, the model
// registry, rule tables and experiment tracking) that commands and domain
// systems require.
package infrastructure

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/config"
	"github.com/JaimeStill/soilguardian/internal/metrics"
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/internal/tracking"
	"github.com/JaimeStill/soilguardian/pkg/database"
	"github.com/JaimeStill/soilguardian/pkg/lifecycle"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

// Infrastructure holds the core systems shared by every command.
// Database is nil unless the configured store needs one.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Store     store.Store
	Registry  *classifier.Registry
	Tables    *agronomy.Tables
	Tracker   tracking.Tracker
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := cfg.Logging.NewLogger(os.Stderr)

	tables, err := agronomy.Default()
	if err != nil {
		return nil, fmt.Errorf("agronomy tables init failed: %w", err)
	}

	artifacts, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	var (
		db   database.System
		conn *sql.DB
	)
	if cfg.Store.UsesDatabase() {
		db, err = database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		conn = db.Connection()
	}

	st, err := store.New(&cfg.Store, conn, cfg.API.Pagination, logger)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   artifacts,
		Store:     st,
		Registry:  classifier.NewRegistry(artifacts, cfg.Model.Version, logger),
		Tables:    tables,
		Tracker:   tracking.New(&cfg.Tracking, logger),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// The served model is loaded during startup; a missing model is logged and
// retried on first use.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	i.Lifecycle.OnStartup(func() {
		m, err := i.Registry.Model(i.Lifecycle.Context())
		if err != nil {
			metrics.SetModelLoaded(i.Registry.Version(), false)
			i.Logger.Warn("model not loaded at startup", "version", i.Registry.Version(), "error", err)
			return
		}
		metrics.SetModelLoaded(m.Version, true)
	})
	return nil
}

// Checkers returns the readiness checks of the started systems.
func (i *Infrastructure) Checkers() []lifecycle.ReadinessChecker {
	checkers := []lifecycle.ReadinessChecker{i.Lifecycle}
	if i.Database != nil {
		checkers = append(checkers, i.Database)
	}
	return checkers
}
