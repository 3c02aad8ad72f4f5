package service

import (
	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/validation"
)

// IngestRequest describes a document upload.
type IngestRequest struct {
	Filename string
	Markup   string
	Type     string // defaults to Invoice
	OwnerID  int64
	// Validate runs validation right after storing a new document.
	Validate   bool
	SchemaName string
}

// IngestResult reports the stored document. Duplicate is set when a document
// with identical markup already existed; that document is returned unchanged.
type IngestResult struct {
	Document  *document.Document  `json:"document"`
	Duplicate bool                `json:"duplicate"`
	Verdict   *validation.Verdict `json:"verdict,omitempty"`
}

// ValidateRequest validates markup without persisting anything. Schema is
// inline XSD content; SchemaName selects a stored active schema instead.
// With neither the schema gate is skipped.
type ValidateRequest struct {
	Markup     string `json:"markup"`
	Schema     string `json:"schema,omitempty"`
	SchemaName string `json:"schemaName,omitempty"`
}

// RenderRequest renders the active version of a template.
type RenderRequest struct {
	TemplateName string            `json:"templateName"`
	Bindings     map[string]string `json:"bindings"`
}
