package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/viant/edicheck/document"
)

const documentColumns = `id, filename, doc_type, markup, status, metadata, diagnostic, content_hash, owner_id, created_at`

// InsertDocument stores a new document and assigns its ID.
func InsertDocument(ctx context.Context, q Queryer, doc *document.Document) error {
	if doc.Status == "" {
		doc.Status = document.StatusUploaded
	}
	if !doc.Status.IsValid() {
		return fmt.Errorf("insert document: unknown status %q", doc.Status)
	}
	if doc.Type == "" {
		doc.Type = document.TypeInvoice
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	metadata, err := encodeMetadata(doc.Metadata)
	if err != nil {
		return err
	}
	err = q.QueryRowContext(ctx, `INSERT INTO document(filename, doc_type, markup, status, metadata, diagnostic, content_hash, owner_id, created_at)
VALUES(?,?,?,?,?,?,?,?,?) RETURNING id`,
		doc.Filename, doc.Type, doc.Markup, string(doc.Status), metadata, doc.Diagnostic, doc.ContentHash, doc.OwnerID, doc.CreatedAt).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument loads a document by ID.
func GetDocument(ctx context.Context, q Queryer, id int64) (*document.Document, error) {
	row := q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM document WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load document %d: %w", id, err)
	}
	return doc, nil
}

// FindDocumentByHash returns the oldest document with the given content hash.
func FindDocumentByHash(ctx context.Context, q Queryer, hash string) (*document.Document, error) {
	row := q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM document WHERE content_hash = ? ORDER BY id LIMIT 1`, hash)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find document by hash: %w", err)
	}
	return doc, nil
}

// ListDocuments returns documents, newest first, optionally filtered by status.
func ListDocuments(ctx context.Context, q Queryer, status document.Status, limit int) ([]*document.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + documentColumns + ` FROM document`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateVerdict records the validation outcome of a document.
func UpdateVerdict(ctx context.Context, q Queryer, id int64, status document.Status, metadata *document.Invoice, diagnostic string) error {
	if !status.IsValid() {
		return fmt.Errorf("document %d: unknown status %q", id, status)
	}
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `UPDATE document SET status = ?, metadata = ?, diagnostic = ? WHERE id = ?`, string(status), encoded, diagnostic, id)
	if err != nil {
		return fmt.Errorf("update document %d: %w", id, err)
	}
	return expectRow(res, "document", id)
}

// SetDocumentStatus updates the lifecycle status only.
func SetDocumentStatus(ctx context.Context, q Queryer, id int64, status document.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("document %d: unknown status %q", id, status)
	}
	res, err := q.ExecContext(ctx, `UPDATE document SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update document %d status: %w", id, err)
	}
	return expectRow(res, "document", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*document.Document, error) {
	var (
		doc      document.Document
		status   string
		metadata sql.NullString
	)
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Type, &doc.Markup, &status, &metadata, &doc.Diagnostic, &doc.ContentHash, &doc.OwnerID, &doc.CreatedAt); err != nil {
		return nil, err
	}
	doc.Status = document.Status(status)
	if metadata.Valid && metadata.String != "" {
		inv := &document.Invoice{}
		if err := json.Unmarshal([]byte(metadata.String), inv); err != nil {
			return nil, fmt.Errorf("decode document %d metadata: %w", doc.ID, err)
		}
		doc.Metadata = inv
	}
	return &doc, nil
}

func encodeMetadata(inv *document.Invoice) (any, error) {
	if inv == nil {
		return nil, nil
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func expectRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
