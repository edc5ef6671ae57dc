package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/soilguardian/internal/config"
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/pkg/database"
)

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		dsn        string
	)

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the SoilGuardian PostgreSQL schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ./config.toml)")
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "database URL (overrides config)")

	open := func() (*database.Migrator, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if dsn != "" {
			cfg.Database.URL = dsn
		}
		if err := cfg.FinalizeDatabase(); err != nil {
			return nil, err
		}

		logger := cfg.Logging.NewLogger(os.Stderr)
		return database.NewMigrator(&cfg.Database, store.Migrations, store.MigrationsDir, logger)
	}

	with := func(fn func(*database.Migrator, []string) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(m, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: with(func(m *database.Migrator, _ []string) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all migrations",
			Args:  cobra.NoArgs,
			RunE: with(func(m *database.Migrator, _ []string) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations (negative N reverts)",
			Args:  cobra.ExactArgs(1),
			RunE: with(func(m *database.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the recorded schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: with(func(m *database.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: with(func(m *database.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version: %d, dirty: %v\n", v, dirty)
				return nil
			}),
		},
	)
	return root
}
