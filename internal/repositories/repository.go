package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// =============== Errors ===============
type ErrNotFound struct{ Message string }

func (e ErrNotFound) Error() string { return e.Message }

// ErrConflict dipakai kalau unique constraint kena (race di atas pengecekan service).
type ErrConflict struct{ Field, Message string }

func (e ErrConflict) Error() string { return e.Message }

// ErrStockExhausted: conditional decrement tidak menemukan baris dengan stock > 0.
var ErrStockExhausted = errors.New("voucher stock exhausted")

// DBTX adalah interface minimal untuk *sql.DB dan *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
}

// Transactor menjalankan fn di dalam satu transaksi DB. fn menerima tx yang
// harus diteruskan ke method repo yang menulis.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx DBTX) error) error
}

type sqlTransactor struct{ db *sql.DB }

func NewTransactor(db *sql.DB) Transactor { return &sqlTransactor{db: db} }

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// pick: pakai tx kalau ada, kalau nil jatuh ke pool.
func pick(db *sql.DB, tx DBTX) DBTX {
	if tx == nil {
		return db
	}
	return tx
}

func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound{Message: msg}
	}
	return err
}

// uniqueViolation memetakan pq 23505 ke ErrConflict.
func uniqueViolation(err error, field, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrConflict{Field: field, Message: msg}
	}
	return err
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
