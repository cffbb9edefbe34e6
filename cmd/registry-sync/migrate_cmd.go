package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieo/orgregistry/pkg/configuration"
	"github.com/fieo/orgregistry/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status",
		Short:     "Apply, roll back or inspect the registry schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(database.Up), string(database.Down), string(database.Status)},
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := useConfig()
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), conf, database.Direction(args[0]))
		},
	}
}

func runMigrate(ctx context.Context, conf *configuration.Configuration, dir database.Direction) error {
	db, err := database.Open(ctx, conf.Database)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(ctx, db, conf.MigrationsTable, dir); err != nil {
		return withCode(exitDB, fmt.Errorf("migrate %s: %w", dir, err))
	}
	conf.Logger().WithField("direction", dir).Info("migrations done")
	return nil
}
