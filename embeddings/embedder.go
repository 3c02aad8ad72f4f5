package embeddings

import "context"

// Embedder is a minimal interface for computing vector embeddings
// for documents and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// QueryFromDocuments embeds a single text through EmbedDocuments.
func QueryFromDocuments(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errVectorCount(len(vecs))
	}
	return vecs[0], nil
}
