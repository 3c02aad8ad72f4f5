package xmlschema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jacoelho/xsd"
	"github.com/viant/edicheck/cache"
)

const (
	location = "schema.xsd"
	// inline schemas arrive per request, so the compiled set is bounded
	maxCompiled = 32
)

var compiled = cache.NewMap[uint64, *xsd.Engine](maxCompiled)

// Compile compiles XSD content; the most recently used schemas are cached by
// content hash.
func Compile(content string) (*xsd.Engine, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty schema")
	}
	key, err := cache.Hash([]byte(content))
	if err != nil {
		return nil, err
	}
	return compiled.GetOrCompute(key, func() (*xsd.Engine, error) {
		return xsd.Compile(xsd.Reader(location, strings.NewReader(content)))
	})
}

// Validate checks markup against XSD content. It returns false with a
// human readable diagnostic when the schema does not compile or the markup
// does not conform.
func Validate(markup, content string) (bool, string) {
	schema, err := Compile(content)
	if err != nil {
		return false, "schema: " + err.Error()
	}
	if err := schema.Validate(strings.NewReader(markup)); err != nil {
		return false, Diagnostic(err)
	}
	return true, ""
}

// Diagnostic flattens validation errors into one message.
func Diagnostic(err error) string {
	var violations xsd.Errors
	if !errors.As(err, &violations) || len(violations) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(violations))
	for i := range violations {
		parts = append(parts, violations[i].Error())
	}
	return strings.Join(parts, "; ")
}
