package embedder

import "context"

// Embedder turns a batch of texts into one fixed-dimension vector per
// input, order-preserving. The same embedder must be used for indexing
// and querying a collection or similarity scores are meaningless.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
