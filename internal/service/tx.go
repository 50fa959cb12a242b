package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// maxTxAttempts bounds retries of a transaction that lost a serialization conflict.
const maxTxAttempts = 3

// TxBeginner starts a new database transaction.
// Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// runInTx executes fn inside a serializable transaction and commits it.
// Serialization failures and deadlocks are retried up to maxTxAttempts times;
// after that, and for any other store failure, the caller sees ErrUnavailable.
// Domain errors returned by fn abort the transaction and are returned as is.
func runInTx(ctx context.Context, pool TxBeginner, op string, fn func(tx pgx.Tx) error) error {
	return runInTxWith(ctx, pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, op, fn)
}

func runInTxWith(ctx context.Context, pool TxBeginner, opts pgx.TxOptions, op string, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := attemptTx(ctx, pool, opts, fn)
		if err == nil {
			return nil
		}
		err = mapPgError(err)
		if isDomainError(err) {
			return err
		}
		if isRetryable(err) && ctx.Err() == nil {
			lastErr = err
			continue
		}
		return unavailable(op, err)
	}
	return unavailable(op, fmt.Errorf("gave up after %d attempts: %w", maxTxAttempts, lastErr))
}

func attemptTx(ctx context.Context, pool TxBeginner, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
