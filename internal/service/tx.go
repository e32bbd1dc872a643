// internal/service/tx.go
package service

import (
	"context"
	"fmt"

	"wager-market/internal/repository"
	"wager-market/pkg/db"
)

// txRunner executes a unit of work inside one database transaction using the
// injected begin/commit/rollback functions.
type txRunner struct {
	dbBeginner db.DBTxBeginner
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// TxFuncs groups the transaction dependencies shared by the services.
type TxFuncs struct {
	Beginner db.DBTxBeginner
	Begin    db.BeginTxFunc
	Commit   db.CommitTxFunc
	Rollback db.RollbackTxFunc
}

// DefaultTxFuncs wires the pkg/db helpers around a real connection.
func DefaultTxFuncs(beginner db.DBTxBeginner) TxFuncs {
	return TxFuncs{Beginner: beginner, Begin: db.BeginTx, Commit: db.CommitTx, Rollback: db.RollbackTx}
}

func newTxRunner(f TxFuncs) txRunner {
	return txRunner{dbBeginner: f.Beginner, beginTx: f.Begin, commitTx: f.Commit, rollbackTx: f.Rollback}
}

// run commits when fn returns nil and rolls back otherwise. Errors from fn are
// returned unchanged so their client-facing messages survive.
func (r txRunner) run(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	txController, err := r.beginTx(ctx, r.dbBeginner)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer r.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if err := fn(txExecutor); err != nil {
		return err
	}

	if err := r.commitTx(txController); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}
