package store

import (
	"context"
	"fmt"
	"strings"
)

// Table names.
const (
	TableDocument         = "document"
	TableValidationSchema = "validation_schema"
	TableKnowledgeEntry   = "knowledge_entry"
	TablePromptTemplate   = "prompt_template"
	TableAnalysisResult   = "analysis_result"
)

var versionedTables = map[string]bool{
	TableValidationSchema: true,
	TablePromptTemplate:   true,
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS document (
		id {{id}},
		filename TEXT NOT NULL DEFAULT '',
		doc_type TEXT NOT NULL DEFAULT 'Invoice',
		markup TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'uploaded',
		metadata TEXT,
		diagnostic TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		owner_id INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS document_hash_idx ON document(content_hash)`,
	`CREATE INDEX IF NOT EXISTS document_status_idx ON document(status)`,
	`CREATE TABLE IF NOT EXISTS validation_schema (
		id {{id}},
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		content TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL,
		UNIQUE(name, version)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS validation_schema_active_idx ON validation_schema(name) WHERE is_active = 1`,
	`CREATE TABLE IF NOT EXISTS knowledge_entry (
		id {{id}},
		topic TEXT NOT NULL DEFAULT '',
		rule_text TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'approved',
		embedding {{blob}},
		dimension INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS knowledge_entry_status_idx ON knowledge_entry(status)`,
	`CREATE TABLE IF NOT EXISTS prompt_template (
		id {{id}},
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		template_text TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		config TEXT NOT NULL DEFAULT '{}',
		is_active INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL,
		UNIQUE(name, version)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS prompt_template_active_idx ON prompt_template(name) WHERE is_active = 1`,
	`CREATE TABLE IF NOT EXISTS analysis_result (
		id {{id}},
		document_id INTEGER NOT NULL REFERENCES document(id),
		response TEXT NOT NULL,
		is_helpful INTEGER,
		admin_comment TEXT,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS analysis_result_document_idx ON analysis_result(document_id)`,
}

func dialectReplacer(dialect Dialect) *strings.Replacer {
	if dialect == DialectPostgres {
		return strings.NewReplacer("{{id}}", "BIGSERIAL PRIMARY KEY", "{{ts}}", "TIMESTAMPTZ", "{{blob}}", "BYTEA")
	}
	return strings.NewReplacer("{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{ts}}", "DATETIME", "{{blob}}", "BLOB")
}

// EnsureSchema creates tables and indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	replacer := dialectReplacer(s.dialect)
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, replacer.Replace(stmt)); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
