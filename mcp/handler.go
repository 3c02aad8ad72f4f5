package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/jsonrpc/transport"
	protoclient "github.com/viant/mcp-protocol/client"
	"github.com/viant/mcp-protocol/logger"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/edicheck/embeddings"
	"github.com/viant/edicheck/service"
)

type Handler struct {
	*protoserver.DefaultHandler
	service    *service.Service
	embedder   embeddings.Embedder
	embedderID string
	queries    *queryCache
	logger     *slog.Logger
}

type handlerOptions struct {
	embedderID string
	cacheSize  int
}

// HandlerOption customises NewHandler.
type HandlerOption func(*handlerOptions)

// WithEmbedderID names the embedder provider and model; cached query
// vectors are keyed by it.
func WithEmbedderID(id string) HandlerOption {
	return func(o *handlerOptions) { o.embedderID = id }
}

// WithEmbedCacheSize bounds the query vector cache; zero keeps the default
// and a negative size disables it.
func WithEmbedCacheSize(n int) HandlerOption {
	return func(o *handlerOptions) { o.cacheSize = n }
}

// NewHandler exposes the pipeline service as MCP tools. The embedder must be
// the one the service stores rules with. Query vectors are cached across
// sessions.
func NewHandler(svc *service.Service, embedder embeddings.Embedder, log *slog.Logger, opts ...HandlerOption) protoserver.NewHandler {
	if log == nil {
		log = slog.Default()
	}
	o := &handlerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.embedderID == "" {
		o.embedderID = fmt.Sprintf("%T", embedder)
	}
	queries := newQueryCache(o.cacheSize)
	return func(_ context.Context, notifier transport.Notifier, l logger.Logger, clientOperation protoclient.Operations) (protoserver.Handler, error) {
		base := protoserver.NewDefaultHandler(notifier, l, clientOperation)
		h := newHandler(svc, embedder, o.embedderID, queries, log)
		h.DefaultHandler = base
		if err := registerTools(base.Registry, h); err != nil {
			return nil, err
		}
		return h, nil
	}
}

func newHandler(svc *service.Service, embedder embeddings.Embedder, embedderID string, queries *queryCache, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		service:    svc,
		embedder:   embedder,
		embedderID: embedderID,
		queries:    queries,
		logger:     log,
	}
}
