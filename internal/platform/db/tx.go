package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// RunInTx executes fn inside a single database transaction. The transaction
// is stashed in the context so that repositories participating in the same
// operation share it; a state change and its audit append either both commit
// or both roll back.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TxRunner is the transaction boundary services depend on. Production code
// wires NewTxRunner(pool); tests substitute a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// NewTxRunner binds RunInTx to a pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return RunInTx(ctx, pool, fn)
	}
}

// TxFromContext retrieves the ambient transaction, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}
