package embeddings

import "fmt"

func errVectorCount(n int) error {
	return fmt.Errorf("embedder returned %d vectors for 1 query", n)
}
