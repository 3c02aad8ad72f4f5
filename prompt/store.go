package prompt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/edicheck/store"
)

// Template is one version of a named prompt template.
type Template struct {
	ID          int64
	Name        string
	Version     int
	Text        string
	Description string
	Config      Config
	Active      bool
	CreatedAt   time.Time
}

// Render renders the template with bindings.
func (t *Template) Render(b Bindings) (string, error) {
	return Render(t.Text, b.Values())
}

// Store manages versioned prompt templates.
type Store struct {
	store *store.Store
}

func NewStore(s *store.Store) *Store {
	return &Store{store: s}
}

// CreateVersion validates text and config, then stores them as the new
// active version of name. Prior versions are deactivated in the same
// transaction.
func (s *Store) CreateVersion(ctx context.Context, name, text, description string, cfg Config) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ConfigError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ConfigError{Field: "template", Reason: "is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := Compile(text); err != nil {
		return nil, err
	}
	encoded, err := cfg.Encode()
	if err != nil {
		return nil, err
	}
	tpl := &Template{Name: name, Text: text, Description: description, Config: cfg, Active: true, CreatedAt: time.Now().UTC()}
	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		version, err := store.ActivateNextVersion(ctx, tx, store.TablePromptTemplate, name)
		if err != nil {
			return err
		}
		tpl.Version = version
		return tx.QueryRowContext(ctx, `INSERT INTO prompt_template(name, version, template_text, description, config, is_active, created_at)
VALUES(?,?,?,?,?,1,?) RETURNING id`, name, version, text, description, encoded, tpl.CreatedAt).Scan(&tpl.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("create template %s: %w", name, err)
	}
	return tpl, nil
}

// Active returns the active version of name or store.ErrNotFound.
func (s *Store) Active(ctx context.Context, name string) (*Template, error) {
	row := s.store.QueryRowContext(ctx, `SELECT id, name, version, template_text, description, config, is_active, created_at
FROM prompt_template WHERE name = ? AND is_active = 1`, name)
	tpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", name, store.ErrNotFound)
	}
	return tpl, err
}

// Versions lists all versions of name, oldest first.
func (s *Store) Versions(ctx context.Context, name string) ([]*Template, error) {
	rows, err := s.store.QueryContext(ctx, `SELECT id, name, version, template_text, description, config, is_active, created_at
FROM prompt_template WHERE name = ? ORDER BY version`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*Template, error) {
	var (
		tpl    Template
		config string
		active int
	)
	if err := row.Scan(&tpl.ID, &tpl.Name, &tpl.Version, &tpl.Text, &tpl.Description, &config, &active, &tpl.CreatedAt); err != nil {
		return nil, err
	}
	cfg, err := DecodeConfig([]byte(config))
	if err != nil {
		return nil, fmt.Errorf("template %s v%d: %w", tpl.Name, tpl.Version, err)
	}
	tpl.Config = cfg
	tpl.Active = active == 1
	return &tpl, nil
}
