package vertexai

import (
	"context"

	"github.com/viant/edicheck/embeddings"
)

type clientEmbedder struct {
	client *Client
}

func (e *clientEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	vecs, _, err := e.client.Embed(ctx, docs)
	return vecs, err
}

func (e *clientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.QueryFromDocuments(ctx, e, text)
}

// NewEmbedder returns an embedder that resolves Google credentials on first use.
func NewEmbedder(projectID, model, location string, scopes []string) embeddings.Embedder {
	return embeddings.NewLazy(func(ctx context.Context) (embeddings.Embedder, error) {
		opts := []ClientOption{WithLocation(location), WithModel(model)}
		if len(scopes) > 0 {
			opts = append(opts, WithScopes(scopes...))
		}
		client, err := NewClient(ctx, projectID, model, opts...)
		if err != nil {
			return nil, err
		}
		return &clientEmbedder{client: client}, nil
	})
}
