package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Transact runs fn with a repository bound to a new transaction. The
// transaction commits when fn returns nil and rolls back when it returns an
// error or panics.
func (r *Repository[T]) Transact(ctx context.Context, fn func(tx *Repository[T]) error) error {
	if r.tx != nil {
		return fmt.Errorf("cannot start a new transaction from an existing transactional repository")
	}

	startTime := time.Now()
	r.events.emit(createEvent(TransactionStart, "transaction", r.table(), nil, nil, nil, nil, startTime))

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		return fn(r.withTx(tx))
	})
	if err != nil {
		r.events.emit(createEvent(TransactionFailed, "transaction", r.table(), nil, nil, nil, err, startTime))
		return err
	}
	r.events.emit(createEvent(TransactionSuccess, "transaction", r.table(), nil, nil, nil, nil, startTime))
	return nil
}

// withTx returns a copy of the repository scoped to tx. The copy shares the
// event emitter, so subscriptions see transactional commands too.
func (r *Repository[T]) withTx(tx *sql.Tx) *Repository[T] {
	cp := *r
	cp.tx = tx
	return &cp
}

func (r *Repository[T]) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return runInTx(ctx, r.db, r.logger, fn)
}

// runInTx begins a transaction on db, commits it when fn succeeds and rolls
// it back when fn fails or panics.
func runInTx(ctx context.Context, db *sql.DB, logger *zap.Logger, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	logger.Debug("Transaction initiated")

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		logger.Debug("Rolling back transaction", zap.Error(err))
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	logger.Debug("Committing transaction")
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
