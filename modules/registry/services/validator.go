package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
	"github.com/fieo/orgregistry/modules/registry/infrastructure/source"
)

// References are the valid-id sets rows are checked against, loaded once per
// run before the stage that needs them.
type References struct {
	Users        *entities.KeyIndex
	Designations *entities.KeyIndex
	Departments  *entities.KeyIndex
	Offices      *entities.KeyIndex
}

// rowMapper performs the kind-specific checks of one row and converts it.
// A non-nil Skip rejects the row.
type rowMapper[T any] func(cols *source.ColumnMap, rec source.Record) (T, *Skip)

type validatedRow[T any] struct {
	Line  int
	Key   string
	Value T
	Skip  *Skip
}

// validateRows classifies every record on a pool of at most workers
// goroutines. The result keeps the order of records.
func validateRows[T any](ctx context.Context, workers int, cols *source.ColumnMap, records []source.Record, mapRow rowMapper[T]) ([]validatedRow[T], error) {
	out := make([]validatedRow[T], len(records))
	key := cols.Definition().Key

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(workers, 1))
	for i, rec := range records {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out[i] = validateRow(cols, key, rec, mapRow)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func validateRow[T any](cols *source.ColumnMap, key string, rec source.Record, mapRow rowMapper[T]) validatedRow[T] {
	row := validatedRow[T]{Line: rec.Line}
	if len(rec.Cells) < cols.MinCells() {
		row.Skip = &Skip{
			Line:   rec.Line,
			Reason: ReasonMalformed,
			Detail: fmt.Sprintf("expected at least %d cells, got %d", cols.MinCells(), len(rec.Cells)),
		}
		return row
	}
	row.Key = cols.Get(rec, key)
	if row.Key == "" {
		row.Skip = &Skip{Line: rec.Line, Reason: ReasonMalformed, Fields: []string{key}, Detail: "empty business key"}
		return row
	}
	if fields := cols.Definition().OutOfBounds(func(f string) string { return cols.Get(rec, f) }); len(fields) > 0 {
		row.Skip = &Skip{Line: rec.Line, Key: row.Key, Reason: ReasonMalformed, Fields: fields, Detail: "value does not fit column"}
		return row
	}
	v, skip := mapRow(cols, rec)
	if skip != nil {
		skip.Line = rec.Line
		skip.Key = row.Key
		row.Skip = skip
		return row
	}
	row.Value = v
	return row
}

// dedupe keeps the last row of every business key. Earlier rows come back as
// duplicate skips. Accepted rows keep their source order.
func dedupe[T any](rows []validatedRow[T]) ([]T, []Skip) {
	last := make(map[string]int, len(rows))
	for i, r := range rows {
		if r.Skip == nil {
			last[schema.NormalizeKey(r.Key)] = i
		}
	}

	accepted := make([]T, 0, len(last))
	var skips []Skip
	for i, r := range rows {
		switch {
		case r.Skip != nil:
			skips = append(skips, *r.Skip)
		case last[schema.NormalizeKey(r.Key)] != i:
			winner := rows[last[schema.NormalizeKey(r.Key)]]
			skips = append(skips, Skip{
				Line:   r.Line,
				Key:    r.Key,
				Reason: ReasonDuplicate,
				Detail: fmt.Sprintf("superseded by line %d", winner.Line),
			})
		default:
			accepted = append(accepted, r.Value)
		}
	}
	return accepted, skips
}
