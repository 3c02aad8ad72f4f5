package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/embeddings"
	"github.com/viant/edicheck/inference"
	"github.com/viant/edicheck/knowledge"
	"github.com/viant/edicheck/prompt"
	"github.com/viant/edicheck/store"
)

const (
	// Query retrieves rules for arithmetic, currency and date problems.
	Query            = "Problems with amount, currency or dates"
	DefaultRule      = "Use standard UBL rules."
	DefaultErrorText = "Check this XML document for errors."
	DefaultTopK      = 3
)

// Archiver receives committed analysis results.
type Archiver interface {
	Archive(ctx context.Context, doc *document.Document, result *document.AnalysisResult) error
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithTemplateName(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.templateName = name
		}
	}
}

func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithDocumentTypes replaces the set of analyzable document types.
func WithDocumentTypes(types ...string) Option {
	return func(o *Orchestrator) {
		if len(types) == 0 {
			return
		}
		o.types = map[string]bool{}
		for _, t := range types {
			o.types[t] = true
		}
	}
}

func WithArchiver(archiver Archiver) Option {
	return func(o *Orchestrator) { o.archiver = archiver }
}

// Orchestrator runs the analysis of a single document: rule retrieval,
// prompt rendering, inference and persistence.
type Orchestrator struct {
	store     *store.Store
	knowledge *knowledge.Store
	templates *prompt.Store
	embedder  embeddings.Embedder
	adapter   *inference.Adapter

	logger       *slog.Logger
	templateName string
	topK         int
	types        map[string]bool
	archiver     Archiver
}

func New(s *store.Store, kb *knowledge.Store, templates *prompt.Store, embedder embeddings.Embedder, adapter *inference.Adapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:        s,
		knowledge:    kb,
		templates:    templates,
		embedder:     embedder,
		adapter:      adapter,
		logger:       slog.Default(),
		templateName: prompt.DefaultTemplateName,
		topK:         DefaultTopK,
		types:        map[string]bool{document.TypeInvoice: true},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze produces and stores an analysis for documentID. A missing document
// yields a not_found outcome and an unsupported type a skipped outcome, both
// without error. On error nothing is persisted and the document status is
// left unchanged. Every call on an analyzable document appends a new result.
func (o *Orchestrator) Analyze(ctx context.Context, documentID int64) (*Outcome, error) {
	runID := uuid.NewString()
	logger := o.logger.With("documentId", documentID, "runId", runID)
	outcome := &Outcome{RunID: runID, DocumentID: documentID}

	doc, err := store.GetDocument(ctx, o.store, documentID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("document not found")
		outcome.Status = StatusNotFound
		return outcome, nil
	}
	if err != nil {
		logger.Error("load document failed", "error", err)
		return nil, err
	}
	if !o.types[doc.Type] {
		logger.Info("document type not analyzable, skipping", "docType", doc.Type)
		outcome.Status = StatusSkipped
		return outcome, nil
	}
	if err := o.run(ctx, logger, doc, outcome); err != nil {
		logger.Error("analysis failed", "error", err)
		return nil, err
	}
	outcome.Status = StatusCompleted
	logger.Info("analysis completed",
		"resultId", outcome.Result.ID,
		"templateVersion", outcome.TemplateVersion,
		"rules", len(outcome.Rules),
		"degraded", outcome.Degraded,
		"extracted", outcome.Extracted)
	return outcome, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, doc *document.Document, outcome *Outcome) error {
	rules, err := o.rules(ctx)
	if err != nil {
		return err
	}
	outcome.Rules = rules

	text, cfg := prompt.DefaultTemplate, prompt.DefaultConfig()
	outcome.TemplateName = o.templateName
	tpl, err := o.templates.Active(ctx, o.templateName)
	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.Warn("no active template, using built-in default", "template", o.templateName)
		outcome.Degraded = true
	case err != nil:
		return fmt.Errorf("load template: %w", err)
	default:
		text, cfg = tpl.Text, tpl.Config.Merge(prompt.DefaultConfig())
		outcome.TemplateVersion = tpl.Version
	}

	errorText := DefaultErrorText
	if doc.Diagnostic != "" {
		errorText = doc.Diagnostic
	}
	bindings := prompt.NewBindings(doc.ID, doc.Type, errorText, formatRules(rules))
	rendered, err := prompt.Render(text, bindings.Values())
	if err != nil {
		return err
	}

	completion, err := o.adapter.CompleteWithLogger(ctx, logger, request(rendered, cfg))
	if err != nil {
		return err
	}
	outcome.Extracted = completion.Extracted

	err = o.store.InTx(ctx, func(tx *store.Tx) error {
		result, err := store.InsertResult(ctx, tx, doc.ID, completion.Text)
		if err != nil {
			return err
		}
		if err := store.SetDocumentStatus(ctx, tx, doc.ID, document.StatusAnalyzed); err != nil {
			return err
		}
		outcome.Result = result
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist analysis: %w", err)
	}
	if o.archiver != nil {
		if err := o.archiver.Archive(ctx, doc, outcome.Result); err != nil {
			logger.Warn("archive analysis result failed", "resultId", outcome.Result.ID, "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) rules(ctx context.Context) ([]string, error) {
	vec, err := o.embedder.EmbedQuery(ctx, Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	rules, err := o.knowledge.SearchRules(ctx, vec, o.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve rules: %w", err)
	}
	return rules, nil
}

func formatRules(rules []string) string {
	if len(rules) == 0 {
		return DefaultRule
	}
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, "- "+r)
	}
	return strings.Join(lines, "\n")
}

func request(rendered string, cfg prompt.Config) inference.Request {
	req := inference.Request{Prompt: rendered, MaxTokens: cfg.MaxTokens, Stop: cfg.Stop}
	if cfg.Temperature != nil {
		req.Temperature = *cfg.Temperature
	}
	if cfg.TopP != nil {
		req.TopP = *cfg.TopP
	}
	return req
}
