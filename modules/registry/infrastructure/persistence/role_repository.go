package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fieo/orgregistry/pkg/composables"
)

const (
	roleEnsureQuery = `
        INSERT INTO roles (name, created_at, updated_at)
        SELECT name, now(), now() FROM unnest($1::text[]) AS n(name)
        ON CONFLICT (name) DO NOTHING`

	roleListQuery = `SELECT id, name FROM roles`

	roleGrantQuery = `
        INSERT INTO user_roles (user_id, role_id)
        SELECT u.id, $1::bigint FROM unnest($2::bigint[]) AS u(id)
        ON CONFLICT (user_id, role_id) DO NOTHING`
)

type roleRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// EnsureRoles creates the named roles that do not exist yet.
func (g *PgRegistryRepository) EnsureRoles(ctx context.Context, names []string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.ExecContext(ctx, roleEnsureQuery, pq.Array(names)); err != nil {
		return errors.Wrap(classify(err), "failed to ensure roles")
	}
	return nil
}

// Roles returns the stored role registry, name -> id.
func (g *PgRegistryRepository) Roles(ctx context.Context) (map[string]int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var rows []roleRow
	if err := sqlx.SelectContext(ctx, tx, &rows, roleListQuery); err != nil {
		return nil, errors.Wrap(classify(err), "failed to list roles")
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Name] = r.ID
	}
	return out, nil
}

// GrantRole grants roleID to every user in userIDs and returns how many of
// those grants did not exist before.
func (g *PgRegistryRepository) GrantRole(ctx context.Context, roleID int64, userIDs []int64) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	res, err := tx.ExecContext(ctx, roleGrantQuery, roleID, pq.Array(userIDs))
	if err != nil {
		return 0, errors.Wrap(classify(err), "failed to grant role")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count granted roles")
	}
	return int(n), nil
}
