package postgres

import (
	"context"
	"database/sql"
	"time"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner runs a function inside a SQL transaction. The transaction is
// injected into the context, so every tx-aware store touched by fn runs its
// statements on the same transaction.
type TxRunner struct {
	db      *sql.DB
	timeout time.Duration
	withTx  func(context.Context, *sql.Tx) context.Context
}

// NewTxRunner constructs a TxRunner over db. withTx is the context
// injection function (pkg/platform/tx.WithTx in production).
func NewTxRunner(db *sql.DB, withTx func(context.Context, *sql.Tx) context.Context) *TxRunner {
	return &TxRunner{db: db, timeout: defaultTxTimeout, withTx: withTx}
}

// RunInTx begins a transaction, runs fn with the transaction in context and
// commits. Any error from fn rolls the transaction back and is returned
// unchanged.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback() }()

	if err := fn(r.withTx(ctx, dbTx)); err != nil {
		return err
	}
	return dbTx.Commit()
}
