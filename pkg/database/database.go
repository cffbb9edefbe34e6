// Package database opens the registry store and applies its schema migrations.
package database

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/fieo/orgregistry/migrations"
	"github.com/fieo/orgregistry/pkg/configuration"
)

// DriverName is the database/sql driver registered by pgx/v5/stdlib.
const DriverName = "pgx"

// Open connects to the store and verifies the connection.
func Open(ctx context.Context, opts configuration.DatabaseOptions) (*sqlx.DB, error) {
	dsn := opts.Opts
	if dsn == "" {
		dsn = opts.ConnectionString()
	}
	db, err := sqlx.ConnectContext(ctx, DriverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
		db.SetMaxIdleConns(opts.MaxConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)
	return db, nil
}

// Direction selects the goose operation run by Migrate.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Status Direction = "status"
)

// Migrate runs the embedded registry migrations in the given direction.
func Migrate(ctx context.Context, db *sqlx.DB, table string, dir Direction) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	if table != "" {
		goose.SetTableName(table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch dir {
	case Up:
		return goose.UpContext(ctx, db.DB, migrations.Dir)
	case Down:
		return goose.DownContext(ctx, db.DB, migrations.Dir)
	case Status:
		return goose.StatusContext(ctx, db.DB, migrations.Dir)
	default:
		return errors.Errorf("unknown migration direction %q", dir)
	}
}
