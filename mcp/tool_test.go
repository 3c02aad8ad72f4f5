package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/viant/edicheck/analysis"
	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/embeddings"
	"github.com/viant/edicheck/inference"
	"github.com/viant/edicheck/queue"
	"github.com/viant/edicheck/service"
	"github.com/viant/edicheck/store"
)

type countingEmbedder struct {
	embeddings.Embedder
	queries int
}

func (e *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.queries++
	return e.Embedder.EmbedQuery(ctx, text)
}

func newTestHandler(t *testing.T) (*Handler, *countingEmbedder) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "mcp.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	embedder := &countingEmbedder{Embedder: embeddings.NewSimpleEmbedder(8)}
	engine := inference.EngineFunc(func(ctx context.Context, req inference.Request) (string, error) {
		return `{"reason":"r","solution":"s","criticality":"medium"}`, nil
	})
	svc, err := service.NewService(service.WithStore(s), service.WithEmbedder(embedder), service.WithEngine(engine), service.WithQueue(queue.NewMemory()))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return newHandler(svc, embedder, "simple/8", newQueryCache(0), nil), embedder
}

func TestValidateTool(t *testing.T) {
	h, _ := newTestHandler(t)
	out, err := h.validate(context.Background(), &ValidateInput{Markup: `<Invoice>Broken Tag`})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out.Verdict.Status != document.StatusSyntaxError {
		t.Fatalf("expected syntax error, got %s", out.Verdict.Status)
	}
	if _, err := h.validate(context.Background(), &ValidateInput{}); err == nil {
		t.Fatalf("expected missing markup error")
	}
}

func TestIngestAndAnalyzeTools(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHandler(t)
	ingested, err := h.ingest(ctx, &IngestInput{Markup: `<Invoice><ID>INV-5</ID></Invoice>`, Validate: true, Analyze: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if ingested.Status != document.StatusValid || ingested.MessageID == "" {
		t.Fatalf("unexpected ingest output: %+v", ingested)
	}
	out, err := h.analyze(ctx, &AnalyzeInput{DocumentID: ingested.DocumentID})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if out.Outcome.Status != analysis.StatusCompleted {
		t.Fatalf("unexpected outcome: %+v", out.Outcome)
	}
	if _, err := h.feedback(ctx, &FeedbackInput{ResultID: out.Outcome.Result.ID, Helpful: true}); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	_, err = h.feedback(ctx, &FeedbackInput{ResultID: 999, Helpful: true})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchRulesToolCachesQueries(t *testing.T) {
	ctx := context.Background()
	h, embedder := newTestHandler(t)
	embedder.queries = 0
	for i := 0; i < 2; i++ {
		out, err := h.searchRules(ctx, &SearchRulesInput{Query: "negative totals"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(out.Rules) != 1 || out.CacheHit != (i == 1) {
			t.Fatalf("unexpected output %d: %+v", i, out)
		}
	}
	if embedder.queries != 1 {
		t.Fatalf("expected one embedding call, got %d", embedder.queries)
	}
	if _, err := h.searchRules(ctx, &SearchRulesInput{}); err == nil {
		t.Fatalf("expected missing query error")
	}
}

func TestRenderPromptTool(t *testing.T) {
	h, _ := newTestHandler(t)
	out, err := h.renderPrompt(context.Background(), &RenderPromptInput{Bindings: map[string]string{
		"doc_id": "1", "doc_type": "Invoice", "error_text": "totals differ", "context_rules": "- rule",
	}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Text == "" {
		t.Fatalf("expected rendered text")
	}
}

func TestQueryCacheKeyedByEmbedder(t *testing.T) {
	c := newQueryCache(2)
	c.put("ollama/nomic", "totals", []float32{1})
	if _, ok := c.get("openai/small", "totals"); ok {
		t.Fatalf("vector from another embedder must not be served")
	}
	v, ok := c.get("ollama/nomic", "totals")
	if !ok || v[0] != 1 {
		t.Fatalf("expected cached vector, got %v %v", v, ok)
	}
	v[0] = 9
	if again, _ := c.get("ollama/nomic", "totals"); again[0] != 1 {
		t.Fatalf("cached vector must not alias callers, got %v", again)
	}
	c.put("ollama/nomic", "a", []float32{2})
	c.put("ollama/nomic", "b", []float32{3})
	if _, ok := c.get("ollama/nomic", "totals"); ok {
		t.Fatalf("least recently used query should be evicted")
	}
	if newQueryCache(-1) != nil {
		t.Fatalf("negative size should disable the cache")
	}
}
