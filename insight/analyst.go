package insight

import (
	"context"
	"fmt"

	"github.com/viant/edicheck/inference"
	"github.com/viant/edicheck/prompt"
)

const analystTemplate = `You are a senior data analyst reviewing error statistics of an electronic invoicing system.

{{ stats }}

Tasks:
1. Find patterns such as repeated errors or errors concentrated on the same invoices.
2. Suggest the likely systemic cause.
3. Give recommendations for the administrator.

Answer in a formal style using Markdown headings.`

// Ask requests an analyst report for a summary. Summaries without errors
// are answered locally without calling the engine.
func Ask(ctx context.Context, engine inference.Engine, summary *Summary) (string, error) {
	if summary.Errors == 0 {
		return summary.Report(), nil
	}
	text, err := prompt.Render(analystTemplate, map[string]string{"stats": summary.Report()})
	if err != nil {
		return "", err
	}
	cfg := prompt.DefaultConfig()
	report, err := engine.Generate(ctx, inference.Request{Prompt: text, Temperature: *cfg.Temperature, MaxTokens: 1024})
	if err != nil {
		return "", &inference.FailureError{Err: fmt.Errorf("insight report: %w", err)}
	}
	return report, nil
}
