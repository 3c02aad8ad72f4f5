package embeddings

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/viant/edicheck/cache"
)

const defaultSimpleDim = 64

// SimpleEmbedder hashes word tokens into signed buckets and normalises the
// result, so texts sharing words land close together. It needs no model and
// is used for local runs and tests.
type SimpleEmbedder struct {
	Dim int
}

// NewSimpleEmbedder returns a hashing embedder producing dim sized vectors.
func NewSimpleEmbedder(dim int) *SimpleEmbedder {
	if dim <= 0 {
		dim = defaultSimpleDim
	}
	return &SimpleEmbedder{Dim: dim}
}

func (e *SimpleEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.embed(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (e *SimpleEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text)
}

func (e *SimpleEmbedder) embed(text string) ([]float32, error) {
	vec := make([]float32, e.Dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		// punctuation only or empty text still gets a stable non zero vector
		tokens = []string{text}
	}
	for _, token := range tokens {
		sum, err := cache.Hash([]byte(token))
		if err != nil {
			return nil, err
		}
		weight := float32(1)
		if sum>>63 == 1 {
			weight = -1
		}
		vec[sum%uint64(e.Dim)] += weight
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// opposite signs cancelled out
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
