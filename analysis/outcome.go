package analysis

import "github.com/viant/edicheck/document"

// Status classifies an analysis run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusNotFound  Status = "not_found"
)

// Outcome reports what an analysis run did.
type Outcome struct {
	Status          Status                   `json:"status"`
	RunID           string                   `json:"runId"`
	DocumentID      int64                    `json:"documentId"`
	Result          *document.AnalysisResult `json:"result,omitempty"`
	TemplateName    string                   `json:"templateName,omitempty"`
	TemplateVersion int                      `json:"templateVersion,omitempty"` // zero when the built-in template was used
	Degraded        bool                     `json:"degraded,omitempty"`
	Extracted       bool                     `json:"extracted,omitempty"`
	Rules           []string                 `json:"rules,omitempty"`
}
