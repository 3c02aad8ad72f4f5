package mcp

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/viant/edicheck/cache"
)

const defaultEmbedCacheSize = 1000

// queryCache holds query vectors shared by every session of a server. Keys
// combine the embedder identity with the trimmed query, so vectors from one
// provider or model are never served for another.
type queryCache struct {
	vectors *cache.Map[uint64, []float32]
}

// newQueryCache returns nil when size is negative, which disables caching.
func newQueryCache(size int) *queryCache {
	if size < 0 {
		return nil
	}
	if size == 0 {
		size = defaultEmbedCacheSize
	}
	return &queryCache{vectors: cache.NewMap[uint64, []float32](size)}
}

func queryKey(embedderID, query string) (uint64, error) {
	return cache.Hash([]byte(embedderID + "\x00" + query))
}

func (c *queryCache) get(embedderID, query string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	key, err := queryKey(embedderID, query)
	if err != nil {
		return nil, false
	}
	vec, ok := c.vectors.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(vec), true
}

func (c *queryCache) put(embedderID, query string, vec []float32) {
	if c == nil {
		return
	}
	if key, err := queryKey(embedderID, query); err == nil {
		c.vectors.Set(key, slices.Clone(vec))
	}
}

func (h *Handler) queryEmbedding(ctx context.Context, query string) ([]float32, bool, error) {
	if h == nil || h.embedder == nil {
		return nil, false, fmt.Errorf("mcp: embedder unavailable")
	}
	text := strings.TrimSpace(query)
	if text == "" {
		return nil, false, fmt.Errorf("mcp: missing query")
	}
	if vec, ok := h.queries.get(h.embedderID, text); ok {
		return vec, true, nil
	}
	vec, err := h.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, false, err
	}
	h.queries.put(h.embedderID, text, vec)
	return vec, false, nil
}
