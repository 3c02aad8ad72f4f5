package prompt

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestRenderDefaultTemplate(t *testing.T) {
	b := NewBindings(42, "Invoice", "Totals differ", "- Document total cannot be negative.")
	out, err := Render(DefaultTemplate, b.Values())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Document: 42 (Invoice)", "Problem: Totals differ", "- Document total cannot be negative."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	for _, placeholder := range []string{"{{", "}}", "doc_id", "context_rules"} {
		if strings.Contains(out, placeholder) {
			t.Fatalf("leftover %q in output:\n%s", placeholder, out)
		}
	}
}

func TestRenderVerbatim(t *testing.T) {
	out, err := Render("{{ error_text }}", map[string]string{"error_text": `<cbc:ID> & "quoted"`})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != `<cbc:ID> & "quoted"` {
		t.Fatalf("expected verbatim value, got %q", out)
	}
}

func TestCompileInvalidTemplate(t *testing.T) {
	if _, err := Compile("{% if %}"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestCompileCacheBounded(t *testing.T) {
	for i := 0; i < maxCompiled+5; i++ {
		if _, err := Render("{{ doc_id }}-"+strconv.Itoa(i), map[string]string{"doc_id": "1"}); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
	if n := compiled.Size(); n > maxCompiled {
		t.Fatalf("expected at most %d compiled templates, got %d", maxCompiled, n)
	}
}
