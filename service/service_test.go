package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/viant/edicheck/analysis"
	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/embeddings"
	"github.com/viant/edicheck/inference"
	"github.com/viant/edicheck/knowledge"
	"github.com/viant/edicheck/prompt"
	"github.com/viant/edicheck/queue"
	"github.com/viant/edicheck/store"
)

const validInvoice = `<Invoice><ID>INV-1</ID><LegalMonetaryTotal><TaxExclusiveAmount>30.00</TaxExclusiveAmount></LegalMonetaryTotal>
<InvoiceLine><ID>1</ID><LineExtensionAmount>10.00</LineExtensionAmount></InvoiceLine>
<InvoiceLine><ID>2</ID><LineExtensionAmount>20.00</LineExtensionAmount></InvoiceLine></Invoice>`

const mismatchedInvoice = `<Invoice><ID>INV-2</ID><LegalMonetaryTotal><TaxExclusiveAmount>40.00</TaxExclusiveAmount></LegalMonetaryTotal>
<InvoiceLine><ID>1</ID><LineExtensionAmount>30.00</LineExtensionAmount></InvoiceLine></Invoice>`

const orderOnlyXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Order" type="xs:string"/>
</xs:schema>`

type countingEngine struct {
	calls atomic.Int32
	reply string
}

func (e *countingEngine) Generate(ctx context.Context, req inference.Request) (string, error) {
	e.calls.Add(1)
	return e.reply, nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *countingEngine) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "service.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	engine := &countingEngine{reply: `{"reason":"r","solution":"s","criticality":"low"}`}
	base := []Option{WithStore(s), WithEmbedder(embeddings.NewSimpleEmbedder(16)), WithEngine(engine)}
	svc, err := NewService(append(base, opts...)...)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	return svc, engine
}

func TestNewServiceRequiresStoreAndEmbedder(t *testing.T) {
	if _, err := NewService(WithEmbedder(embeddings.NewSimpleEmbedder(4))); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := NewService(WithStore(&store.Store{})); err == nil {
		t.Fatalf("expected embedder error")
	}
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.Ingest(ctx, IngestRequest{Filename: "a.xml", Markup: validInvoice, Validate: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if first.Duplicate || first.Verdict == nil || first.Verdict.Status != document.StatusValid {
		t.Fatalf("unexpected ingest result: %+v", first)
	}
	if first.Document.Status != document.StatusValid || first.Document.Metadata == nil || *first.Document.Metadata.InvoiceID != "INV-1" {
		t.Fatalf("verdict not persisted: %+v", first.Document)
	}

	again, err := svc.Ingest(ctx, IngestRequest{Filename: "copy.xml", Markup: validInvoice})
	if err != nil {
		t.Fatalf("ingest duplicate: %v", err)
	}
	if !again.Duplicate || again.Document.ID != first.Document.ID {
		t.Fatalf("expected duplicate of %d, got %+v", first.Document.ID, again)
	}
	if _, err := svc.Ingest(ctx, IngestRequest{Markup: "  "}); err == nil {
		t.Fatalf("expected error for empty markup")
	}
}

func TestValidateDocument(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	math, _ := svc.Ingest(ctx, IngestRequest{Markup: mismatchedInvoice})
	verdict, err := svc.ValidateDocument(ctx, math.Document.ID, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if verdict.Status != document.StatusMathError || !strings.Contains(verdict.Diagnostic, "30.00") || !strings.Contains(verdict.Diagnostic, "40.00") {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	loaded, _ := svc.Document(ctx, math.Document.ID)
	if loaded.Status != document.StatusMathError || loaded.Diagnostic != verdict.Diagnostic || loaded.Metadata.ValidationError == nil {
		t.Fatalf("math error not persisted: %+v", loaded)
	}

	broken, _ := svc.Ingest(ctx, IngestRequest{Markup: `<Invoice>Broken Tag`})
	verdict, _ = svc.ValidateDocument(ctx, broken.Document.ID, "")
	if verdict.Status != document.StatusSyntaxError || verdict.Invoice != nil {
		t.Fatalf("expected syntax error, got %+v", verdict)
	}

	if _, err := svc.ValidateDocument(ctx, math.Document.ID, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown schema, got %v", err)
	}
	if _, err := svc.ValidateDocument(ctx, 999, ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown document, got %v", err)
	}

	if _, err := svc.CreateSchemaVersion(ctx, "", orderOnlyXSD); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	valid, _ := svc.Ingest(ctx, IngestRequest{Markup: validInvoice})
	verdict, _ = svc.ValidateDocument(ctx, valid.Document.ID, "")
	if verdict.Status != document.StatusSchemaError || verdict.Invoice != nil {
		t.Fatalf("expected schema error from default schema, got %+v", verdict)
	}
}

func TestValidateAndParse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	verdict, err := svc.ValidateAndParse(ctx, ValidateRequest{Markup: `<ID>INV-1</ID>`})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if verdict.Status != document.StatusValid || *verdict.Invoice.InvoiceID != "INV-1" || verdict.Invoice.TotalPayable != 0 || len(verdict.Invoice.Lines) != 0 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	verdict, _ = svc.ValidateAndParse(ctx, ValidateRequest{Markup: validInvoice, Schema: orderOnlyXSD})
	if verdict.Status != document.StatusSchemaError {
		t.Fatalf("expected schema error, got %s", verdict.Status)
	}
	if docs, _ := svc.Documents(ctx, "", 10); len(docs) != 0 {
		t.Fatalf("validate and parse must not persist documents")
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	report, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !report.Rule || !report.Template {
		t.Fatalf("expected both artifacts seeded: %+v", report)
	}
	report, err = svc.Seed(ctx)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if report.Rule || report.Template {
		t.Fatalf("seed should be idempotent: %+v", report)
	}
	versions, _ := svc.Templates(ctx, prompt.DefaultTemplateName)
	if len(versions) != 1 || versions[0].Config.MaxTokens != 1024 || *versions[0].Config.Temperature != 0.2 {
		t.Fatalf("unexpected seeded template: %+v", versions)
	}
}

func TestAnalyzeAndFeedback(t *testing.T) {
	ctx := context.Background()
	svc, engine := newTestService(t)
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ingested, _ := svc.Ingest(ctx, IngestRequest{Markup: mismatchedInvoice, Validate: true})

	outcome, err := svc.Analyze(ctx, ingested.Document.ID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if outcome.Status != analysis.StatusCompleted || outcome.Degraded || engine.calls.Load() != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.Rules) != 1 || outcome.Rules[0] != seedRuleText {
		t.Fatalf("expected seeded rule, got %v", outcome.Rules)
	}
	if err := svc.SubmitFeedback(ctx, outcome.Result.ID, document.Feedback{Helpful: false, Comment: "wrong line"}); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	results, _ := svc.Results(ctx, ingested.Document.ID)
	if len(results) != 1 || results[0].IsHelpful == nil || *results[0].IsHelpful || *results[0].AdminComment != "wrong line" {
		t.Fatalf("unexpected results: %+v", results)
	}

	missing, err := svc.Analyze(ctx, 12345)
	if err != nil || missing.Status != analysis.StatusNotFound {
		t.Fatalf("expected not_found outcome, got %+v %v", missing, err)
	}
}

func TestEnqueueAndWorker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q := queue.NewMemory()
	svc, _ := newTestService(t, WithQueue(q))
	ingested, _ := svc.Ingest(ctx, IngestRequest{Markup: validInvoice})
	if _, err := svc.Enqueue(ctx, ingested.Document.ID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- svc.RunWorker(ctx, queue.WithConcurrency(2)) }()
	for {
		doc, err := svc.Document(ctx, ingested.Document.ID)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if doc.Status == document.StatusAnalyzed {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatalf("document not analyzed in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("worker: %v", err)
	}
	if results, _ := svc.Results(context.Background(), ingested.Document.ID); len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}

	plain, _ := newTestService(t)
	if _, err := plain.Enqueue(context.Background(), 1); err == nil {
		t.Fatalf("expected error without queue")
	}
}

func TestRulesAndPrompts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	approved, err := svc.AddRule(ctx, "Currency", "Currency code must follow ISO 4217.", "")
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	draft, _ := svc.AddRule(ctx, "Dates", "Issue date cannot be in the future.", knowledge.StatusDraft)

	matches, err := svc.SearchRulesText(ctx, "currency problems", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || matches[0].Entry.ID != approved.ID {
		t.Fatalf("expected only approved rule, got %+v", matches)
	}
	if err := svc.SetRuleStatus(ctx, draft.ID, knowledge.StatusApproved); err != nil {
		t.Fatalf("set status: %v", err)
	}
	vec, _ := embeddings.NewSimpleEmbedder(16).EmbedQuery(ctx, "currency problems")
	if matches, _ = svc.SearchRules(ctx, vec, 5); len(matches) != 2 {
		t.Fatalf("expected two rules after approval, got %d", len(matches))
	}

	if _, err := svc.RenderPrompt(ctx, RenderRequest{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before seeding, got %v", err)
	}
	if _, err := svc.CreateTemplateVersion(ctx, "short", "Doc {{ doc_id }}: {{ error_text }}", "", prompt.Config{}); err != nil {
		t.Fatalf("create template: %v", err)
	}
	text, err := svc.RenderPrompt(ctx, RenderRequest{TemplateName: "short", Bindings: map[string]string{"doc_id": "7", "error_text": "bad <total>"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if text != "Doc 7: bad <total>" {
		t.Fatalf("unexpected render: %q", text)
	}
	_, err = svc.CreateTemplateVersion(ctx, "short", "x", "", prompt.Config{Temperature: prompt.Float(1.5)})
	if !errors.Is(err, prompt.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}
