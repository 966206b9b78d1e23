package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peopledesk/peopledesk/internal/dbmigrate"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		a.migrateCommand("up", "Apply all pending migrations", dbmigrate.Up),
		a.migrateCommand("down", "Roll back all migrations", dbmigrate.Down),
		a.migrateCommand("version", "Print the current schema version", dbmigrate.Version),
	)
	return cmd
}

type migrateFunc func(db *sql.DB, dialect string) (dbmigrate.Result, error)

func (a *app) migrateCommand(use, short string, run migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.migrate(cmd.Context(), run)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", result.Version, result.Dirty)
			return nil
		},
	}
}

func (a *app) migrate(ctx context.Context, run migrateFunc) (dbmigrate.Result, error) {
	be, err := openBackend(ctx, a.cfg)
	if err != nil {
		return dbmigrate.Result{}, err
	}
	defer be.Close()
	if be.db == nil {
		return dbmigrate.Result{}, fmt.Errorf("backend %q has no schema to migrate", a.cfg.Backend)
	}
	if err := be.db.PingContext(ctx); err != nil {
		return dbmigrate.Result{}, fmt.Errorf("connecting to %s: %w", a.cfg.Backend, err)
	}
	return run(be.db, be.dialect)
}
