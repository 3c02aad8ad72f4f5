package knowledge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/viant/edicheck/embeddings"
	"github.com/viant/edicheck/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "kb.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return NewStore(s, embeddings.NewSimpleEmbedder(2))
}

func insert(t *testing.T, kb *Store, text string, status Status, vec ...float32) *Entry {
	t.Helper()
	entry, err := kb.Insert(context.Background(), &Entry{Topic: "Validation", RuleText: text, Status: status, Embedding: vec})
	if err != nil {
		t.Fatalf("insert %s: %v", text, err)
	}
	return entry
}

func TestSearchOrdering(t *testing.T) {
	ctx := context.Background()
	kb := newTestStore(t)
	far := insert(t, kb, "far", StatusApproved, 5, 5)
	tieA := insert(t, kb, "tie-a", StatusApproved, 1, 0)
	tieB := insert(t, kb, "tie-b", StatusApproved, 0, 1)
	insert(t, kb, "draft", StatusDraft, 0, 0)
	insert(t, kb, "review", StatusReview, 0, 0)
	exact := insert(t, kb, "exact", StatusApproved, 0.1, 0.1)

	matches, err := kb.Search(ctx, []float32{0.1, 0.1}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 4 {
		t.Fatalf("expected only approved entries, got %d", len(matches))
	}
	wantOrder := []int64{exact.ID, tieA.ID, tieB.ID, far.ID}
	for i, m := range matches {
		if m.Entry.ID != wantOrder[i] {
			t.Fatalf("position %d: got %s (%d), want id %d", i, m.Entry.RuleText, m.Entry.ID, wantOrder[i])
		}
		if m.Entry.Status != StatusApproved {
			t.Fatalf("non approved entry returned: %+v", m.Entry)
		}
		if i > 0 && m.Distance < matches[i-1].Distance {
			t.Fatalf("distances not ordered: %v", matches)
		}
	}

	rules, err := kb.SearchRules(ctx, []float32{0.1, 0.1}, 2)
	if err != nil {
		t.Fatalf("search rules: %v", err)
	}
	if len(rules) != 2 || rules[0] != "exact" || rules[1] != "tie-a" {
		t.Fatalf("unexpected rules: %v", rules)
	}
}

func TestSearchEmpty(t *testing.T) {
	kb := newTestStore(t)
	matches, err := kb.Search(context.Background(), []float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
	if _, err := kb.Search(context.Background(), []float32{1, 1}, 0); err == nil {
		t.Fatalf("expected error for k=0")
	}
}

func TestAddAndStatus(t *testing.T) {
	ctx := context.Background()
	kb := newTestStore(t)
	entry, err := kb.Add(ctx, "Validation", "Document total cannot be negative.")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if entry.Status != StatusApproved || len(entry.Embedding) != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, err := kb.Insert(ctx, &Entry{RuleText: "wrong dim", Status: StatusApproved, Embedding: []float32{1, 2, 3}}); err == nil {
		t.Fatalf("expected dimension error")
	}
	if err := kb.SetStatus(ctx, entry.ID, StatusDraft); err != nil {
		t.Fatalf("set status: %v", err)
	}
	matches, err := kb.Search(ctx, entry.Embedding, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("draft entry must not be retrievable")
	}
	if err := kb.SetStatus(ctx, 999, StatusApproved); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kb.SetStatus(ctx, entry.ID, Status("published")); err == nil {
		t.Fatalf("expected invalid status error")
	}
}
