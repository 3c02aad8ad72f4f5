package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a transaction bound to the store dialect.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *Tx) Dialect() Dialect { return t.dialect }

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, Rebind(t.dialect, query), args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, Rebind(t.dialect, query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, Rebind(t.dialect, query), args...)
}

// InTx runs fn in a transaction, committing on success and rolling back when
// fn returns an error or panics. Uniqueness violations are reported as ErrConflict.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	tx := &Tx{tx: sqlTx, dialect: s.dialect}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return conflict(err)
	}
	if err = sqlTx.Commit(); err != nil {
		return conflict(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// ActivateNextVersion prepares a new active row for name in a versioned table:
// it serializes writers for the name, deactivates the current active version
// and returns max(version)+1. The caller inserts the row with is_active = 1
// in the same transaction.
func ActivateNextVersion(ctx context.Context, tx *Tx, table, name string) (int, error) {
	if !versionedTables[table] {
		return 0, fmt.Errorf("table %s is not versioned", table)
	}
	if tx.dialect == DialectPostgres {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext(?))`, table+":"+name); err != nil {
			return 0, fmt.Errorf("lock %s %s: %w", table, name, err)
		}
	}
	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM `+table+` WHERE name = ?`, name).Scan(&next); err != nil {
		return 0, fmt.Errorf("next version %s %s: %w", table, name, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET is_active = 0 WHERE name = ? AND is_active = 1`, name); err != nil {
		return 0, fmt.Errorf("deactivate %s %s: %w", table, name, err)
	}
	return next, nil
}

func conflict(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
