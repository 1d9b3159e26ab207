// Package embeddingutils builds the configured embedder.
package embeddingutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/aletheia/pkg/embeddings"
	"github.com/papercomputeco/aletheia/pkg/embeddings/ollama"
	"github.com/papercomputeco/aletheia/pkg/vector"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string

	// Dimensions, when set, is enforced on every embedding so a model that
	// does not match the vector store fails with a clear error.
	Dimensions uint
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var e embeddings.Embedder
	switch o.ProviderType {
	case "", "ollama":
		oe, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
		if err != nil {
			return nil, err
		}
		e = oe
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}

	if o.Dimensions == 0 {
		return e, nil
	}
	return &dimensionGuard{Embedder: e, want: int(o.Dimensions)}, nil
}

type dimensionGuard struct {
	embeddings.Embedder
	want int
}

func (g *dimensionGuard) Embed(ctx context.Context, text string) ([]float32, error) {
	emb, err := g.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(emb) != g.want {
		return nil, fmt.Errorf("%w: got %d dimensions, embedding.dimensions is %d", vector.ErrEmbedding, len(emb), g.want)
	}
	return emb, nil
}
