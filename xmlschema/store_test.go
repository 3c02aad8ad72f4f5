package xmlschema

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/viant/edicheck/store"
)

func TestStoreVersions(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "schema.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	schemas := NewStore(s)

	if _, err := schemas.Active(ctx, "ubl-invoice"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	first, err := schemas.CreateVersion(ctx, "ubl-invoice", invoiceXSD)
	if err != nil {
		t.Fatalf("create v1: %v", err)
	}
	second, err := schemas.CreateVersion(ctx, "ubl-invoice", invoiceXSD)
	if err != nil {
		t.Fatalf("create v2: %v", err)
	}
	if first.Version != 1 || second.Version != 2 {
		t.Fatalf("unexpected versions: %d %d", first.Version, second.Version)
	}
	active, err := schemas.Active(ctx, "ubl-invoice")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active.ID != second.ID {
		t.Fatalf("expected v2 active, got v%d", active.Version)
	}
	versions, err := schemas.Versions(ctx, "ubl-invoice")
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Active || !versions[1].Active {
		t.Fatalf("unexpected version flags: %+v", versions)
	}
	if _, err := schemas.CreateVersion(ctx, "ubl-invoice", "not a schema"); !errors.Is(err, ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}
