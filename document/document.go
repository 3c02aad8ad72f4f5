package document

import (
	"time"
)

// TypeInvoice is the declared type of UBL invoice documents.
const TypeInvoice = "Invoice"

// Status is a document lifecycle state.
type Status string

const (
	StatusUploaded    Status = "uploaded"
	StatusSchemaError Status = "schema_error"
	StatusSyntaxError Status = "syntax_error"
	StatusMathError   Status = "math_error"
	StatusValid       Status = "valid"
	StatusAnalyzed    Status = "analyzed"
)

// IsValid reports whether s is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusUploaded, StatusSchemaError, StatusSyntaxError, StatusMathError, StatusValid, StatusAnalyzed:
		return true
	}
	return false
}

// Document represents an ingested business document.
type Document struct {
	ID          int64     // Store assigned identifier
	Filename    string    // Original file name
	Type        string    // Declared document type, e.g. Invoice
	Markup      string    // Raw markup, immutable once stored
	Status      Status    // Lifecycle status
	Metadata    *Invoice  // Parsed record, nil until parsed
	Diagnostic  string    // Last validation diagnostic
	ContentHash string    // Hash of Markup used for duplicate detection
	OwnerID     int64     // Owning user reference
	CreatedAt   time.Time // Ingest time
}
