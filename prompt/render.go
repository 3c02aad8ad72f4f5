package prompt

import (
	"fmt"
	"strconv"

	"github.com/flosch/pongo2/v6"
	"github.com/viant/edicheck/cache"
)

// Bindings are the values substituted into analysis templates.
type Bindings struct {
	DocID        string
	DocType      string
	ErrorText    string
	ContextRules string
}

// NewBindings builds bindings for a stored document.
func NewBindings(docID int64, docType, errorText, contextRules string) Bindings {
	return Bindings{DocID: strconv.FormatInt(docID, 10), DocType: docType, ErrorText: errorText, ContextRules: contextRules}
}

// Values returns bindings keyed by template placeholder.
func (b Bindings) Values() map[string]string {
	return map[string]string{
		"doc_id":        b.DocID,
		"doc_type":      b.DocType,
		"error_text":    b.ErrorText,
		"context_rules": b.ContextRules,
	}
}

const maxCompiled = 64

var compiled = cache.NewMap[uint64, *pongo2.Template](maxCompiled)

// Compile parses template text, caching the most recently used templates by
// content hash.
func Compile(text string) (*pongo2.Template, error) {
	key, err := cache.Hash([]byte(text))
	if err != nil {
		return nil, err
	}
	return compiled.GetOrCompute(key, func() (*pongo2.Template, error) {
		tpl, err := pongo2.FromString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: template: %v", ErrInvalidConfiguration, err)
		}
		return tpl, nil
	})
}

// Render substitutes values into template text. Values are inserted verbatim.
func Render(text string, values map[string]string) (string, error) {
	tpl, err := Compile(text)
	if err != nil {
		return "", err
	}
	ctx := pongo2.Context{}
	for k, v := range values {
		ctx[k] = pongo2.AsSafeValue(v)
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}
