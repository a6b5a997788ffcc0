package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
	"github.com/nerrad567/garage-remote/migrations"
)

// Migration actions accepted by runMigrate.
const (
	migrateUp     = "up"
	migrateDown   = "down"
	migrateStatus = "status"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the local database schema",
		Args:  cobra.NoArgs,
	}

	sub := func(action, short string) *cobra.Command {
		return &cobra.Command{
			Use:   action,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				return a.runMigrate(cmd.Context(), cfg, action)
			},
		}
	}
	cmd.AddCommand(
		sub(migrateUp, "Apply pending migrations"),
		sub(migrateDown, "Revert the most recent migration"),
		sub(migrateStatus, "List applied and pending migrations"),
	)
	return cmd
}

// runMigrate runs one migration action against the configured database.
func (a *app) runMigrate(ctx context.Context, cfg *config.Config, action string) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	log := consoleLogger(cfg)
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	switch action {
	case migrateUp:
		if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	case migrateDown:
		if err := db.MigrateDown(ctx, migrations.FS, migrations.Dir); err != nil {
			return fmt.Errorf("reverting migration: %w", err)
		}
	case migrateStatus:
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}

	applied, pending, err := db.MigrationStatus(ctx, migrations.FS, migrations.Dir)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, r := range applied {
		fmt.Fprintf(w, "applied\t%s\t%s\n", r.Version, r.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Fprintf(w, "pending\t%s\t%s\n", m.Version, m.Name)
	}
	return w.Flush()
}
