package validation

import (
	"errors"
	"log/slog"

	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/invoice"
	"github.com/viant/edicheck/xmlschema"
)

// Verdict is the outcome of validating one document.
type Verdict struct {
	Status     document.Status   `json:"status"`
	Invoice    *document.Invoice `json:"invoice,omitempty"`
	Diagnostic string            `json:"diagnostic,omitempty"`
}

// Validate runs the schema gate (skipped when schemaContent is empty), the
// structural parser and the arithmetic check, stopping at the first failure.
// A schema failure skips parsing entirely.
func Validate(logger *slog.Logger, markup, schemaContent string) *Verdict {
	if logger == nil {
		logger = slog.Default()
	}
	if schemaContent != "" {
		if ok, diagnostic := xmlschema.Validate(markup, schemaContent); !ok {
			logger.Warn("schema validation failed", "diagnostic", diagnostic)
			return &Verdict{Status: document.StatusSchemaError, Diagnostic: diagnostic}
		}
	}
	inv, err := invoice.Parse(logger, markup)
	if err != nil {
		var syntaxErr *invoice.SyntaxError
		if errors.As(err, &syntaxErr) {
			return &Verdict{Status: document.StatusSyntaxError, Diagnostic: syntaxErr.Error()}
		}
		return &Verdict{Status: document.StatusSyntaxError, Diagnostic: err.Error()}
	}
	if mismatch := invoice.ApplyTotals(inv); mismatch != nil {
		logger.Warn("arithmetic mismatch", "computed", mismatch.Computed, "declared", mismatch.Declared)
		return &Verdict{Status: document.StatusMathError, Invoice: inv, Diagnostic: mismatch.Error()}
	}
	return &Verdict{Status: document.StatusValid, Invoice: inv}
}
