package validation

import (
	"strings"
	"testing"

	"github.com/viant/edicheck/document"
)

const schema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="ID" type="xs:string"/>
</xs:schema>`

func TestValidate(t *testing.T) {
	testCases := []struct {
		name       string
		markup     string
		schema     string
		wantStatus document.Status
		wantDiag   string
	}{
		{name: "minimal valid", markup: `<ID>INV-1</ID>`, wantStatus: document.StatusValid},
		{name: "minimal valid with schema", markup: `<ID>INV-1</ID>`, schema: schema, wantStatus: document.StatusValid},
		{name: "schema gate", markup: `<Invoice><ID>INV-1</ID></Invoice>`, schema: schema, wantStatus: document.StatusSchemaError},
		{name: "syntax", markup: `<Invoice>Broken Tag`, wantStatus: document.StatusSyntaxError, wantDiag: "invalid XML"},
		{
			name:       "math",
			markup:     `<Invoice><LegalMonetaryTotal><TaxExclusiveAmount>100</TaxExclusiveAmount></LegalMonetaryTotal><InvoiceLine><LineExtensionAmount>90</LineExtensionAmount></InvoiceLine></Invoice>`,
			wantStatus: document.StatusMathError,
			wantDiag:   "90.00",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := Validate(nil, tc.markup, tc.schema)
			if verdict.Status != tc.wantStatus {
				t.Fatalf("status = %s (%s), want %s", verdict.Status, verdict.Diagnostic, tc.wantStatus)
			}
			if tc.wantDiag != "" && !strings.Contains(verdict.Diagnostic, tc.wantDiag) {
				t.Fatalf("diagnostic %q does not contain %q", verdict.Diagnostic, tc.wantDiag)
			}
			switch verdict.Status {
			case document.StatusSchemaError, document.StatusSyntaxError:
				if verdict.Invoice != nil {
					t.Fatalf("expected no parsed record for %s", verdict.Status)
				}
			default:
				if verdict.Invoice == nil {
					t.Fatalf("expected parsed record for %s", verdict.Status)
				}
			}
		})
	}
}

func TestValidateMathErrorRecordsDiagnosticOnInvoice(t *testing.T) {
	markup := `<Invoice><LegalMonetaryTotal><TaxExclusiveAmount>100</TaxExclusiveAmount></LegalMonetaryTotal></Invoice>`
	verdict := Validate(nil, markup, "")
	if verdict.Status != document.StatusMathError {
		t.Fatalf("unexpected status %s", verdict.Status)
	}
	if verdict.Invoice.ValidationError == nil || *verdict.Invoice.ValidationError != verdict.Diagnostic {
		t.Fatalf("expected validation error recorded on invoice")
	}
}
