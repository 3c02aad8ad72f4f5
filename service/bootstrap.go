package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/viant/afs"
	"github.com/viant/edicheck/analysis"
	"github.com/viant/edicheck/archive"
	"github.com/viant/edicheck/embeddings"
	embollama "github.com/viant/edicheck/embeddings/ollama"
	"github.com/viant/edicheck/embeddings/openai"
	"github.com/viant/edicheck/embeddings/vertexai"
	"github.com/viant/edicheck/inference"
	infollama "github.com/viant/edicheck/inference/ollama"
	"github.com/viant/edicheck/inference/vertex"
	"github.com/viant/edicheck/queue"
	"github.com/viant/edicheck/store"
)

// NewLogger returns a JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewFromConfig opens every configured component and returns a Service that
// owns them; Close releases them.
func NewFromConfig(ctx context.Context, cfg *Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	closers := []func() error{s.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	embedder, err := BuildEmbedder(cfg.Embedder)
	if err != nil {
		cleanup()
		return nil, err
	}
	engine, err := BuildEngine(cfg.Engine)
	if err != nil {
		cleanup()
		return nil, err
	}
	q, err := BuildQueue(ctx, cfg.Queue, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	if q != nil {
		closers = append(closers, q.Close)
	}
	archiver, closeArchiver, err := BuildArchiver(ctx, cfg.Archive, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	if closeArchiver != nil {
		closers = append(closers, closeArchiver)
	}

	opts := []Option{
		WithStore(s),
		WithEmbedder(embedder),
		WithLogger(logger),
		WithSchemaName(cfg.Validation.SchemaName),
		WithAnalysisOptions(
			analysis.WithTemplateName(cfg.Analysis.TemplateName),
			analysis.WithTopK(cfg.Analysis.TopK),
			analysis.WithDocumentTypes(cfg.Analysis.DocumentTypes...),
		),
	}
	if engine != nil {
		opts = append(opts, WithEngine(engine))
	}
	if q != nil {
		opts = append(opts, WithQueue(q))
	}
	if archiver != nil {
		opts = append(opts, WithArchiver(archiver))
	}
	svc, err := NewService(opts...)
	if err != nil {
		cleanup()
		return nil, err
	}
	svc.closers = closers
	return svc, nil
}

// BuildEmbedder creates the configured embedder.
func BuildEmbedder(cfg EmbedderConfig) (embeddings.Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "simple":
		return embeddings.NewSimpleEmbedder(cfg.Dimensions), nil
	case "ollama":
		var opts []embollama.Option
		if cfg.BaseURL != "" {
			opts = append(opts, embollama.WithBaseURL(cfg.BaseURL))
		}
		return embollama.New(cfg.Model, opts...), nil
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Dimensions > 0 {
			opts = append(opts, openai.WithDimensions(cfg.Dimensions))
		}
		return openai.New(cfg.Model, opts...), nil
	case "vertexai", "vertex":
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("embedder: projectID required for vertexai")
		}
		return vertexai.NewEmbedder(cfg.ProjectID, cfg.Model, cfg.Location, nil), nil
	default:
		return nil, fmt.Errorf("embedder: unsupported provider %q", cfg.Provider)
	}
}

// BuildEngine creates the configured inference engine; nil when disabled.
func BuildEngine(cfg EngineConfig) (inference.Engine, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "ollama":
		var opts []infollama.Option
		if cfg.BaseURL != "" {
			opts = append(opts, infollama.WithBaseURL(cfg.BaseURL))
		}
		return infollama.New(cfg.Model, opts...), nil
	case "vertex", "vertexai":
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("engine: projectID required for vertex")
		}
		return vertex.Lazy(cfg.ProjectID, cfg.Region, cfg.Model), nil
	default:
		return nil, fmt.Errorf("engine: unsupported provider %q", cfg.Provider)
	}
}

// BuildQueue creates the configured task queue; nil when disabled.
func BuildQueue(ctx context.Context, cfg QueueConfig, logger *slog.Logger) (queue.Queue, error) {
	switch strings.ToLower(cfg.Provider) {
	case "none":
		return nil, nil
	case "", "memory":
		return queue.NewMemory(), nil
	case "redis":
		addr := cfg.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		q, err := queue.DialRedis(ctx, addr, cfg.Password, cfg.DB, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return q.WithLogger(logger), nil
	default:
		return nil, fmt.Errorf("queue: unsupported provider %q", cfg.Provider)
	}
}

// WorkerOptions converts queue settings into worker options.
func (c QueueConfig) WorkerOptions() []queue.WorkerOption {
	return []queue.WorkerOption{
		queue.WithConcurrency(c.Concurrency),
		queue.WithTimeout(time.Duration(c.TimeoutSeconds) * time.Second),
		queue.WithMaxAttempts(c.MaxAttempts),
	}
}

// BuildArchiver creates the configured result archiver and its closer.
func BuildArchiver(ctx context.Context, cfg ArchiveConfig, logger *slog.Logger) (analysis.Archiver, func() error, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil, nil
	case "gcs":
		if cfg.Bucket == "" {
			return nil, nil, fmt.Errorf("archive: bucket required for gcs")
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("archive: storage client: %w", err)
		}
		return archive.NewGCS(client, cfg.Bucket, cfg.Prefix, logger), client.Close, nil
	case "url", "afs":
		if cfg.URL == "" {
			return nil, nil, fmt.Errorf("archive: url required")
		}
		return archive.NewFS(afs.New(), cfg.URL, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("archive: unsupported provider %q", cfg.Provider)
	}
}
