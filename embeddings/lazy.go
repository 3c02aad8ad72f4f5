package embeddings

import (
	"context"
	"sync"
)

// Lazy defers building an embedder until first use. Concurrent first calls
// share a single build; a failed build is retried on the next call.
type Lazy struct {
	build func(ctx context.Context) (Embedder, error)

	mu       sync.Mutex
	embedder Embedder
}

// NewLazy wraps build.
func NewLazy(build func(ctx context.Context) (Embedder, error)) *Lazy {
	return &Lazy{build: build}
}

func (l *Lazy) get(ctx context.Context) (Embedder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.embedder != nil {
		return l.embedder, nil
	}
	e, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.embedder = e
	return e, nil
}

func (l *Lazy) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	e, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedDocuments(ctx, docs)
}

func (l *Lazy) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedQuery(ctx, text)
}
