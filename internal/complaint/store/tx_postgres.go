package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dErrors "redressal/pkg/domain-errors"
	"redressal/pkg/platform/sentinel"
	txcontext "redressal/pkg/platform/tx"
)

const defaultPostgresTxTimeout = 5 * time.Second

// PostgresTx runs units of work as serializable database transactions. The
// scope key is unused here: postgres itself detects conflicting writers and
// aborts one of them, which surfaces as a retryable CodeConflict.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultPostgresTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if translated := translatePQ(err); errors.Is(translated, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent update detected, retry the operation")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
