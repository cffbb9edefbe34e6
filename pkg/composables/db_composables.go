package composables

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/fieo/orgregistry/pkg/constants"
)

var ErrNoPool = errors.New("no database pool found in context")

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
}

func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, constants.TxKey, tx)
}

// UseTx returns the transaction carried by ctx, falling back to the pool.
func UseTx(ctx context.Context) (Querier, error) {
	if tx, ok := ctx.Value(constants.TxKey).(*sqlx.Tx); ok && tx != nil {
		return tx, nil
	}
	return UsePool(ctx)
}

func WithPool(ctx context.Context, pool *sqlx.DB) context.Context {
	return context.WithValue(ctx, constants.PoolKey, pool)
}

func UsePool(ctx context.Context) (*sqlx.DB, error) {
	pool, ok := ctx.Value(constants.PoolKey).(*sqlx.DB)
	if !ok || pool == nil {
		return nil, ErrNoPool
	}
	return pool, nil
}

// InTx runs fn in a transaction. An enclosing transaction on ctx is reused.
func InTx(ctx context.Context, fn func(context.Context) error) error {
	if existing, ok := ctx.Value(constants.TxKey).(*sqlx.Tx); ok && existing != nil {
		return fn(ctx)
	}

	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(WithTx(ctx, tx)); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}
	return tx.Commit()
}

func InTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}
