package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// FailureError wraps an engine error.
type FailureError struct {
	Err error
}

func (e *FailureError) Error() string { return fmt.Sprintf("inference failed: %v", e.Err) }

func (e *FailureError) Unwrap() error { return e.Err }

// Completion is the adapter output.
type Completion struct {
	Text      string // extracted JSON object, or the raw text when none was found
	Raw       string
	Extracted bool
}

// Adapter calls an engine once per request and extracts the JSON payload.
type Adapter struct {
	engine Engine
	logger *slog.Logger
}

func NewAdapter(engine Engine, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{engine: engine, logger: logger}
}

// Complete performs a single engine call without retry.
func (a *Adapter) Complete(ctx context.Context, req Request) (*Completion, error) {
	return a.CompleteWithLogger(ctx, a.logger, req)
}

// CompleteWithLogger is Complete with per call correlation attributes.
func (a *Adapter) CompleteWithLogger(ctx context.Context, logger *slog.Logger, req Request) (*Completion, error) {
	if a.engine == nil {
		return nil, &FailureError{Err: fmt.Errorf("inference engine not configured")}
	}
	raw, err := a.engine.Generate(ctx, req)
	if err != nil {
		return nil, &FailureError{Err: err}
	}
	text, ok := ExtractJSON(raw)
	if !ok {
		logger.Warn("malformed AI output, returning raw text", "length", len(raw))
		return &Completion{Text: strings.TrimSpace(raw), Raw: raw}, nil
	}
	return &Completion{Text: text, Raw: raw, Extracted: true}, nil
}

// ExtractJSON returns the span from the first '{' to the last '}' inclusive.
// The span is greedy and is not checked for JSON validity.
func ExtractJSON(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}
