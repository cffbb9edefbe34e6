// Package persistence is the PostgreSQL side of the registry sync: natural-key
// upserts per kind, key indexes, link rows and role grants.
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

const tableExistsQuery = `SELECT to_regclass($1) IS NOT NULL`

type PgRegistryRepository struct {
	bcryptCost int
}

func NewRegistryRepository(bcryptCost int) *PgRegistryRepository {
	return &PgRegistryRepository{bcryptCost: bcryptCost}
}

func (g *PgRegistryRepository) TableExists(ctx context.Context, table string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	var exists bool
	if err := sqlx.GetContext(ctx, tx, &exists, tableExistsQuery, table); err != nil {
		return false, errors.Wrapf(err, "failed to check table %s", table)
	}
	return exists, nil
}

type keyRow struct {
	ID  int64  `db:"id"`
	Key string `db:"key"`
}

// KeyIndex loads business key -> id for every visible row of kind.
func (g *PgRegistryRepository) KeyIndex(ctx context.Context, kind schema.Kind) (*entities.KeyIndex, error) {
	def, ok := schema.Lookup(kind)
	if !ok {
		return nil, errors.Errorf("unknown kind %q", kind)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	query := fmt.Sprintf("SELECT id, %s AS key FROM %s", def.Key, def.Table)
	if def.SoftDelete {
		query += " WHERE deleted_at IS NULL"
	}
	var rows []keyRow
	if err := sqlx.SelectContext(ctx, tx, &rows, query); err != nil {
		return nil, errors.Wrapf(classify(err), "failed to load %s keys", def.Table)
	}

	idx := entities.NewKeyIndex(len(rows))
	for _, r := range rows {
		idx.Add(r.Key, r.ID)
	}
	return idx, nil
}

func (g *PgRegistryRepository) UpsertOffices(ctx context.Context, rows []entities.Office, at time.Time) (entities.UpsertResult, error) {
	args := make([][]any, len(rows))
	for i, r := range rows {
		args[i] = officeArgs(r)
	}
	return officeUpsert.exec(ctx, args, at)
}

func (g *PgRegistryRepository) UpsertDesignations(ctx context.Context, rows []entities.Designation, at time.Time) (entities.UpsertResult, error) {
	args := make([][]any, len(rows))
	for i, r := range rows {
		args[i] = designationArgs(r)
	}
	return designationUpsert.exec(ctx, args, at)
}

func (g *PgRegistryRepository) UpsertDepartments(ctx context.Context, rows []entities.Department, at time.Time) (entities.UpsertResult, error) {
	args := make([][]any, len(rows))
	for i, r := range rows {
		args[i] = departmentArgs(r)
	}
	return departmentUpsert.exec(ctx, args, at)
}

func (g *PgRegistryRepository) UpsertEmployees(ctx context.Context, rows []entities.Employee, at time.Time) (entities.UpsertResult, error) {
	args := make([][]any, len(rows))
	for i, r := range rows {
		args[i] = employeeArgs(r)
	}
	return employeeUpsert.exec(ctx, args, at)
}
