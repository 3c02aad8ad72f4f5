package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/viant/edicheck/db/sqliteutil"
	"github.com/viant/sqlite-vec/engine"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Dialect identifies the SQL flavour of the backing database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ResolveDialect maps a driver name to a dialect, sqlite is the default.
func ResolveDialect(driver string) Dialect {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pq", "pgx":
		return DialectPostgres
	default:
		return DialectSQLite
	}
}

// Queryer is implemented by Store and Tx. Queries use '?' placeholders and are
// rebound for the active dialect.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

// Store wraps the relational database holding documents, versioned
// artifacts, knowledge entries and analysis results.
type Store struct {
	db      *sql.DB
	dialect Dialect
	owned   bool
}

// New wraps an existing handle; the caller keeps ownership.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, dialect: ResolveDialect(driver)}
}

// Open opens a database for driver and dsn.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("store dsn required")
	}
	dialect := ResolveDialect(driver)
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open("postgres", dsn)
	default:
		dsn = sqliteutil.EnsureImmediateTx(sqliteutil.EnsurePragmas(dsn, true, 5000))
		db, err = engine.Open(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		if sqliteutil.IsMemory(dsn) {
			// each connection would see a separate in-memory database
			db.SetMaxOpenConns(1)
		} else {
			db.SetMaxOpenConns(4)
			db.SetMaxIdleConns(4)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return &Store{db: db, dialect: dialect, owned: true}, nil
}

// Close releases an owned DB connection (if any).
func (s *Store) Close() error {
	if s.db != nil && s.owned {
		return s.db.Close()
	}
	return nil
}

// Dialect returns the active SQL dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, Rebind(s.dialect, query), args...)
}

func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, Rebind(s.dialect, query), args...)
}

func (s *Store) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, Rebind(s.dialect, query), args...)
}

// Rebind converts '?' placeholders to $n for postgres.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
