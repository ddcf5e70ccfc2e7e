package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// softDeleteLive marks every live row in table as deleted at now and returns how many rows changed.
func softDeleteLive(ctx context.Context, db execer, table string, now time.Time) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET deleted_at = ? WHERE deleted_at IS NULL", table)

	result, err := db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to soft-delete %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
