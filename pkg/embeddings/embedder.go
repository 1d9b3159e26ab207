// Package embeddings defines the embedding client used to index and query
// evidence documents.
package embeddings

import (
	"context"
	"fmt"
)

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// EmbedTexts embeds each text in order with one call per text.
// The first failure aborts the batch.
func EmbedTexts(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}
