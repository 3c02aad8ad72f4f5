package mcp

import (
	"github.com/viant/edicheck/analysis"
	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/validation"
)

type ValidateInput struct {
	Markup     string `json:"markup"`
	Schema     string `json:"schema,omitempty"`
	SchemaName string `json:"schemaName,omitempty"`
}

type ValidateOutput struct {
	Verdict *validation.Verdict `json:"verdict"`
}

type IngestInput struct {
	Filename   string `json:"filename,omitempty"`
	Markup     string `json:"markup"`
	DocType    string `json:"docType,omitempty"`
	Validate   bool   `json:"validate,omitempty"`
	SchemaName string `json:"schemaName,omitempty"`
	Analyze    bool   `json:"analyze,omitempty"`
}

type IngestOutput struct {
	DocumentID int64               `json:"documentId"`
	Status     document.Status     `json:"status"`
	Duplicate  bool                `json:"duplicate"`
	Verdict    *validation.Verdict `json:"verdict,omitempty"`
	MessageID  string              `json:"messageId,omitempty"`
}

type AnalyzeInput struct {
	DocumentID int64 `json:"documentId"`
	// Async enqueues the analysis instead of running it in the call.
	Async bool `json:"async,omitempty"`
}

type AnalyzeOutput struct {
	Outcome   *analysis.Outcome `json:"outcome,omitempty"`
	MessageID string            `json:"messageId,omitempty"`
}

type SearchRulesInput struct {
	Query  string    `json:"query,omitempty"`
	Vector []float32 `json:"vector,omitempty"`
	K      int       `json:"k,omitempty"`
}

type RuleMatch struct {
	ID       int64   `json:"id"`
	Topic    string  `json:"topic"`
	Rule     string  `json:"rule"`
	Distance float64 `json:"distance"`
}

type SearchRulesOutput struct {
	Rules    []RuleMatch `json:"rules"`
	CacheHit bool        `json:"cacheHit,omitempty"`
}

type RenderPromptInput struct {
	TemplateName string            `json:"templateName,omitempty"`
	Bindings     map[string]string `json:"bindings"`
}

type RenderPromptOutput struct {
	Text string `json:"text"`
}

type FeedbackInput struct {
	ResultID int64  `json:"resultId"`
	Helpful  bool   `json:"helpful"`
	Comment  string `json:"comment,omitempty"`
}

type FeedbackOutput struct {
	ResultID int64 `json:"resultId"`
}
