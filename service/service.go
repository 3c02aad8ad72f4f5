package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/edicheck/analysis"
	"github.com/viant/edicheck/embeddings"
	"github.com/viant/edicheck/inference"
	"github.com/viant/edicheck/knowledge"
	"github.com/viant/edicheck/prompt"
	"github.com/viant/edicheck/queue"
	"github.com/viant/edicheck/store"
	"github.com/viant/edicheck/xmlschema"
)

// DefaultSchemaName is the validation schema applied when a request names none.
const DefaultSchemaName = "ubl-invoice"

// Option configures the Service.
type Option func(*Service)

// WithStore sets the document store.
func WithStore(s *store.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithEmbedder sets the embedder shared by rule ingestion and retrieval.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(svc *Service) { svc.embedder = embedder }
}

// WithEngine sets the inference engine.
func WithEngine(engine inference.Engine) Option {
	return func(svc *Service) { svc.engine = engine }
}

func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) {
		if logger != nil {
			svc.logger = logger
		}
	}
}

// WithQueue sets the task queue used by Enqueue and RunWorker.
func WithQueue(q queue.Queue) Option {
	return func(svc *Service) { svc.queue = q }
}

func WithArchiver(archiver analysis.Archiver) Option {
	return func(svc *Service) { svc.archiver = archiver }
}

// WithAnalysisOptions passes options through to the analysis orchestrator.
func WithAnalysisOptions(opts ...analysis.Option) Option {
	return func(svc *Service) { svc.analysisOpts = append(svc.analysisOpts, opts...) }
}

// WithSchemaName sets the default validation schema name.
func WithSchemaName(name string) Option {
	return func(svc *Service) {
		if name != "" {
			svc.schemaName = name
		}
	}
}

// Service is the pipeline facade.
type Service struct {
	store        *store.Store
	embedder     embeddings.Embedder
	engine       inference.Engine
	queue        queue.Queue
	archiver     analysis.Archiver
	logger       *slog.Logger
	schemaName   string
	analysisOpts []analysis.Option

	schemas      *xmlschema.Store
	knowledge    *knowledge.Store
	templates    *prompt.Store
	orchestrator *analysis.Orchestrator

	closers []func() error
}

// NewService creates a new Service. A store and an embedder are required;
// without an engine every analysis fails with an inference error.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{logger: slog.Default(), schemaName: DefaultSchemaName}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	s.schemas = xmlschema.NewStore(s.store)
	s.knowledge = knowledge.NewStore(s.store, s.embedder)
	s.templates = prompt.NewStore(s.store)
	orchestratorOpts := append([]analysis.Option{analysis.WithLogger(s.logger)}, s.analysisOpts...)
	if s.archiver != nil {
		orchestratorOpts = append(orchestratorOpts, analysis.WithArchiver(s.archiver))
	}
	adapter := inference.NewAdapter(s.engine, s.logger)
	s.orchestrator = analysis.New(s.store, s.knowledge, s.templates, s.embedder, adapter, orchestratorOpts...)
	return s, nil
}

// Init creates the database schema.
func (s *Service) Init(ctx context.Context) error {
	return s.store.EnsureSchema(ctx)
}

func (s *Service) Logger() *slog.Logger { return s.logger }

// Engine returns the configured inference engine, nil when none.
func (s *Service) Engine() inference.Engine { return s.engine }

// Embedder returns the embedder shared by search and analysis.
func (s *Service) Embedder() embeddings.Embedder { return s.embedder }

// Close releases resources opened by NewFromConfig.
func (s *Service) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
