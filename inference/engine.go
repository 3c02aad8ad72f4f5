package inference

import (
	"context"
	"fmt"
	"sync"
)

// Request is a single completion request.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
	TopP        float64 // zero leaves the engine default
	Stop        []string
}

// Engine produces text for a prompt.
type Engine interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, req Request) (string, error)

func (f EngineFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Lazy defers building an engine until the first Generate call. The built
// engine is shared by all callers; a failed build is reported to the caller
// and retried on the next call.
type Lazy struct {
	build func(ctx context.Context) (Engine, error)

	mu     sync.Mutex
	engine Engine
}

func NewLazy(build func(ctx context.Context) (Engine, error)) *Lazy {
	return &Lazy{build: build}
}

func (l *Lazy) Generate(ctx context.Context, req Request) (string, error) {
	engine, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return engine.Generate(ctx, req)
}

func (l *Lazy) get(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine != nil {
		return l.engine, nil
	}
	engine, err := l.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("init inference engine: %w", err)
	}
	l.engine = engine
	return engine, nil
}
