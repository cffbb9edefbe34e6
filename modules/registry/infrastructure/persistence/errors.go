package persistence

import (
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
)

const pgUndefinedTable = "42P01"

// classify tags storage errors the sync engine handles per stage.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return errors.Wrap(entities.ErrMissingTable, pgErr.Message)
	}
	return err
}
