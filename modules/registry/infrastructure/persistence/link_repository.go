package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
	"github.com/fieo/orgregistry/pkg/composables"
)

type linkRow struct {
	ID      int64   `db:"id"`
	Ref     *string `db:"ref"`
	Current *int64  `db:"current"`
}

func linkTable(field schema.LinkField) (schema.Definition, error) {
	def, ok := schema.Lookup(field.Kind)
	if !ok {
		return schema.Definition{}, errors.Errorf("unknown link kind %q", field.Kind)
	}
	return def, nil
}

// LinkRows lists every visible row of the field's table with its stored
// reference and current link.
func (g *PgRegistryRepository) LinkRows(ctx context.Context, field schema.LinkField) ([]entities.LinkRow, error) {
	def, err := linkTable(field)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	query := fmt.Sprintf("SELECT id, %s AS ref, %s AS current FROM %s", field.RefColumn, field.IDColumn, def.Table)
	if def.SoftDelete {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY id"

	var rows []linkRow
	if err := sqlx.SelectContext(ctx, tx, &rows, query); err != nil {
		return nil, errors.Wrapf(classify(err), "failed to load %s links", field)
	}
	out := make([]entities.LinkRow, len(rows))
	for i, r := range rows {
		out[i] = entities.LinkRow{ID: r.ID, Ref: r.Ref, Current: r.Current}
	}
	return out, nil
}

// ApplyLinks writes the given link changes in one transaction.
func (g *PgRegistryRepository) ApplyLinks(ctx context.Context, field schema.LinkField, updates []entities.LinkUpdate, at time.Time) error {
	if len(updates) == 0 {
		return nil
	}
	def, err := linkTable(field)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET %s = $1, updated_at = $2 WHERE id = $3", def.Table, field.IDColumn)

	return composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return errors.Wrap(err, "failed to get transaction")
		}
		for _, u := range updates {
			if _, err := tx.ExecContext(txCtx, query, u.Target, at, u.ID); err != nil {
				return errors.Wrapf(classify(err), "failed to link %s of row %d", field, u.ID)
			}
		}
		return nil
	})
}
