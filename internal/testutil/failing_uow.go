package testutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/insession/internal/db"
)

// ErrInjectedWrite is returned by FailOnNthExecUoW when Err is unset.
var ErrInjectedWrite = errors.New("injected write failure")

// FailOnNthExecUoW runs transactions against DB but fails the FailOn-th
// ExecContext (1-based) inside each one. Reads are never counted. Use it to
// check that a multi-row write leaves nothing behind when a later row fails.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	injectErr := u.Err
	if injectErr == nil {
		injectErr = ErrInjectedWrite
	}
	counted := &countingExec{DBTX: tx, failOn: u.FailOn, err: injectErr}
	if fnErr := fn(ctx, counted); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type countingExec struct {
	db.DBTX
	execs  atomic.Int32
	failOn int32
	err    error
}

func (c *countingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.execs.Add(1) == c.failOn {
		return nil, c.err
	}
	return c.DBTX.ExecContext(ctx, query, args...)
}
