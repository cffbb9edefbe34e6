package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/pkg/composables"
)

// maxBindParams is the PostgreSQL limit of bind parameters per statement.
const maxBindParams = 65535

// upsertStatement is a natural-key insert-or-update over one table. Rows are
// matched on lower(key) among non-deleted rows; conflicting rows are rewritten
// only when one of the columns differs, so unchanged rows keep their
// updated_at and come back without a RETURNING row. created_at is written on
// insert only.
type upsertStatement struct {
	table      string
	key        string
	softDelete bool
	// columns are the written columns, created_at and updated_at excluded.
	columns []string
}

func (s upsertStatement) width() int { return len(s.columns) + 2 }

// maxRows is the largest row count one statement can carry.
func (s upsertStatement) maxRows() int { return maxBindParams / s.width() }

func (s upsertStatement) sql(rows int) string {
	var b strings.Builder
	cols := append(append([]string{}, s.columns...), "created_at", "updated_at")

	fmt.Fprintf(&b, "INSERT INTO %s AS t (%s) VALUES ", s.table, strings.Join(cols, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteByte(')')
	}

	fmt.Fprintf(&b, " ON CONFLICT (lower(%s))", s.key)
	if s.softDelete {
		b.WriteString(" WHERE deleted_at IS NULL")
	}

	sets := make([]string, 0, len(s.columns)+1)
	current := make([]string, 0, len(s.columns))
	incoming := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		current = append(current, "t."+c)
		incoming = append(incoming, "EXCLUDED."+c)
	}
	sets = append(sets, "updated_at = EXCLUDED.updated_at")
	fmt.Fprintf(&b, " DO UPDATE SET %s", strings.Join(sets, ", "))
	fmt.Fprintf(&b, " WHERE ROW(%s) IS DISTINCT FROM ROW(%s)", strings.Join(current, ", "), strings.Join(incoming, ", "))
	b.WriteString(" RETURNING id, (xmax = 0) AS inserted")
	return b.String()
}

type upsertedRow struct {
	ID       int64 `db:"id"`
	Inserted bool  `db:"inserted"`
}

// exec writes rows (one argument slice per row, timestamps excluded) in one
// transaction. Statements are split at the bind parameter limit.
func (s upsertStatement) exec(ctx context.Context, rows [][]any, at time.Time) (entities.UpsertResult, error) {
	var res entities.UpsertResult
	if len(rows) == 0 {
		return res, nil
	}
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		for start := 0; start < len(rows); start += s.maxRows() {
			end := min(start+s.maxRows(), len(rows))
			part, err := s.execPart(txCtx, tx, rows[start:end], at)
			if err != nil {
				return err
			}
			res.Add(part)
		}
		return nil
	})
	if err != nil {
		return entities.UpsertResult{}, errors.Wrapf(classify(err), "upsert %s", s.table)
	}
	return res, nil
}

func (s upsertStatement) execPart(ctx context.Context, q sqlx.QueryerContext, rows [][]any, at time.Time) (entities.UpsertResult, error) {
	args := make([]any, 0, len(rows)*s.width())
	for _, r := range rows {
		if len(r) != len(s.columns) {
			return entities.UpsertResult{}, errors.Errorf("%s: row has %d values, want %d", s.table, len(r), len(s.columns))
		}
		args = append(args, r...)
		args = append(args, at, at)
	}

	var out []upsertedRow
	if err := sqlx.SelectContext(ctx, q, &out, s.sql(len(rows)), args...); err != nil {
		return entities.UpsertResult{}, err
	}

	res := entities.UpsertResult{Unchanged: len(rows) - len(out)}
	for _, r := range out {
		if r.Inserted {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
