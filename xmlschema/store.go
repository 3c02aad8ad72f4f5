package xmlschema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/edicheck/store"
)

// ErrInvalidSchema is returned when schema content does not compile.
var ErrInvalidSchema = errors.New("invalid schema")

// Schema is one version of a named validation schema.
type Schema struct {
	ID        int64
	Name      string
	Version   int
	Content   string
	Active    bool
	CreatedAt time.Time
}

// Store manages versioned validation schemas.
type Store struct {
	store *store.Store
}

func NewStore(s *store.Store) *Store {
	return &Store{store: s}
}

// CreateVersion stores content as the new active version of name.
func (s *Store) CreateVersion(ctx context.Context, name, content string) (*Schema, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("schema name required")
	}
	if _, err := Compile(content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	schema := &Schema{Name: name, Content: content, Active: true, CreatedAt: time.Now().UTC()}
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		version, err := store.ActivateNextVersion(ctx, tx, store.TableValidationSchema, name)
		if err != nil {
			return err
		}
		schema.Version = version
		return tx.QueryRowContext(ctx, `INSERT INTO validation_schema(name, version, content, is_active, created_at)
VALUES(?,?,?,1,?) RETURNING id`, name, version, content, schema.CreatedAt).Scan(&schema.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("create schema %s: %w", name, err)
	}
	return schema, nil
}

// Active returns the active version of name or store.ErrNotFound.
func (s *Store) Active(ctx context.Context, name string) (*Schema, error) {
	row := s.store.QueryRowContext(ctx, `SELECT id, name, version, content, is_active, created_at
FROM validation_schema WHERE name = ? AND is_active = 1`, name)
	schema, err := scanSchema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schema %s: %w", name, store.ErrNotFound)
	}
	return schema, err
}

// Versions lists all versions of name, oldest first.
func (s *Store) Versions(ctx context.Context, name string) ([]*Schema, error) {
	rows, err := s.store.QueryContext(ctx, `SELECT id, name, version, content, is_active, created_at
FROM validation_schema WHERE name = ? ORDER BY version`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Schema
	for rows.Next() {
		schema, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, schema)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchema(row scanner) (*Schema, error) {
	var (
		schema Schema
		active int
	)
	if err := row.Scan(&schema.ID, &schema.Name, &schema.Version, &schema.Content, &active, &schema.CreatedAt); err != nil {
		return nil, err
	}
	schema.Active = active == 1
	return &schema, nil
}
