package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/viant/edicheck/document"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "store.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return s
}

func TestRebind(t *testing.T) {
	testCases := []struct {
		dialect Dialect
		query   string
		want    string
	}{
		{dialect: DialectSQLite, query: `SELECT * FROM t WHERE a = ? AND b = ?`, want: `SELECT * FROM t WHERE a = ? AND b = ?`},
		{dialect: DialectPostgres, query: `SELECT * FROM t WHERE a = ? AND b = ?`, want: `SELECT * FROM t WHERE a = $1 AND b = $2`},
		{dialect: DialectPostgres, query: `SELECT '?' FROM t WHERE a = ?`, want: `SELECT '?' FROM t WHERE a = $1`},
	}
	for _, tc := range testCases {
		if got := Rebind(tc.dialect, tc.query); got != tc.want {
			t.Fatalf("Rebind(%s, %q) = %q, want %q", tc.dialect, tc.query, got, tc.want)
		}
	}
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	doc := &document.Document{Filename: "a.xml", Markup: "<Invoice/>", ContentHash: "abc"}
	if err := InsertDocument(ctx, s, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if doc.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	loaded, err := GetDocument(ctx, s, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != document.StatusUploaded || loaded.Type != document.TypeInvoice || loaded.Metadata != nil {
		t.Fatalf("unexpected document: %+v", loaded)
	}

	id := "INV-9"
	inv := &document.Invoice{InvoiceID: &id, TotalTaxExcl: 10, Lines: []document.LineItem{}}
	if err := UpdateVerdict(ctx, s, doc.ID, document.StatusValid, inv, ""); err != nil {
		t.Fatalf("update verdict: %v", err)
	}
	loaded, err = GetDocument(ctx, s, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != document.StatusValid || loaded.Metadata == nil || *loaded.Metadata.InvoiceID != "INV-9" {
		t.Fatalf("unexpected verdict: %+v", loaded)
	}

	found, err := FindDocumentByHash(ctx, s, "abc")
	if err != nil || found.ID != doc.ID {
		t.Fatalf("find by hash: %v %+v", err, found)
	}
	if _, err := GetDocument(ctx, s, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := SetDocumentStatus(ctx, s, 999, document.StatusAnalyzed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := SetDocumentStatus(ctx, s, doc.ID, document.Status("archived")); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
	if err := UpdateVerdict(ctx, s, doc.ID, document.Status(""), nil, ""); err == nil {
		t.Fatalf("expected empty verdict status to be rejected")
	}
	if err := InsertDocument(ctx, s, &document.Document{Markup: "<Invoice/>", Status: "pending"}); err == nil {
		t.Fatalf("expected unknown insert status to be rejected")
	}
}

func TestInTxRollback(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	doc := &document.Document{Markup: "<Invoice/>"}
	if err := InsertDocument(ctx, s, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx *Tx) error {
		if _, err := InsertResult(ctx, tx, doc.ID, "{}"); err != nil {
			return err
		}
		if err := SetDocumentStatus(ctx, tx, doc.ID, document.StatusAnalyzed); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	results, err := ListResults(ctx, s, doc.ID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected rollback, got %d results", len(results))
	}
	loaded, _ := GetDocument(ctx, s, doc.ID)
	if loaded.Status != document.StatusUploaded {
		t.Fatalf("expected status untouched, got %s", loaded.Status)
	}
}

func TestFeedback(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	doc := &document.Document{Markup: "<Invoice/>"}
	if err := InsertDocument(ctx, s, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	result, err := InsertResult(ctx, s, doc.ID, `{"reason":"x"}`)
	if err != nil {
		t.Fatalf("insert result: %v", err)
	}
	if err := SetFeedback(ctx, s, result.ID, document.Feedback{Helpful: true, Comment: "spot on"}); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	results, err := ListResults(ctx, s, doc.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 1 || results[0].IsHelpful == nil || !*results[0].IsHelpful || *results[0].AdminComment != "spot on" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if err := SetFeedback(ctx, s, 12345, document.Feedback{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivateNextVersion(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for want := 1; want <= 3; want++ {
		err := s.InTx(ctx, func(tx *Tx) error {
			version, err := ActivateNextVersion(ctx, tx, TableValidationSchema, "ubl")
			if err != nil {
				return err
			}
			if version != want {
				t.Fatalf("version = %d, want %d", version, want)
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO validation_schema(name, version, content, is_active, created_at) VALUES(?,?,?,1,CURRENT_TIMESTAMP)`, "ubl", version, "<xs:schema/>")
			return err
		})
		if err != nil {
			t.Fatalf("activate: %v", err)
		}
	}
	var active int
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM validation_schema WHERE name = ? AND is_active = 1`, "ubl").Scan(&active); err != nil {
		t.Fatalf("count: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected single active row, got %d", active)
	}
	if err := s.InTx(ctx, func(tx *Tx) error {
		_, err := ActivateNextVersion(ctx, tx, TableDocument, "x")
		return err
	}); err == nil {
		t.Fatalf("expected error for non-versioned table")
	}
}

func TestInTxConflict(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	insert := func(version int) error {
		return s.InTx(ctx, func(tx *Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO prompt_template(name, version, template_text, is_active, created_at) VALUES(?,?,?,0,CURRENT_TIMESTAMP)`, "t", version, "x")
			return err
		})
	}
	if err := insert(1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := insert(1); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestNewDoesNotOwnHandle(t *testing.T) {
	s := openTestStore(t)
	wrapped := New(s.db, "sqlite")
	if wrapped.Dialect() != DialectSQLite {
		t.Fatalf("unexpected dialect %s", wrapped.Dialect())
	}
	if err := wrapped.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.db.PingContext(context.Background()); err != nil {
		t.Fatalf("handle closed by non-owner: %v", err)
	}
}
