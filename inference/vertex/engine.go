package vertex

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/viant/edicheck/inference"
)

const DefaultModel = "gemini-1.5-pro"

// Engine generates text with a Gemini model on Vertex AI.
type Engine struct {
	client *genai.Client
	model  string
}

// New creates a Vertex AI client for projectID and region.
func New(ctx context.Context, projectID, region, model string) (*Engine, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: projectID and region cannot be empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Engine{client: client, model: model}, nil
}

// Lazy returns an engine that connects on first use.
func Lazy(projectID, region, model string) inference.Engine {
	return inference.NewLazy(func(ctx context.Context) (inference.Engine, error) {
		return New(ctx, projectID, region, model)
	})
}

func (e *Engine) Generate(ctx context.Context, req inference.Request) (string, error) {
	model := e.client.GenerativeModel(e.model)
	model.GenerationConfig = generationConfig(req)
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text, ok := extractText(resp)
	if !ok {
		return "", fmt.Errorf("gemini response has no text content")
	}
	return text, nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}

func generationConfig(req inference.Request) genai.GenerationConfig {
	cfg := genai.GenerationConfig{
		Temperature:   genai.Ptr[float32](float32(req.Temperature)),
		StopSequences: req.Stop,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = genai.Ptr[int32](int32(req.MaxTokens))
	}
	if req.TopP > 0 {
		cfg.TopP = genai.Ptr[float32](float32(req.TopP))
	}
	return cfg
}

func extractText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	var b strings.Builder
	found := false
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
			found = true
		}
	}
	return b.String(), found
}
