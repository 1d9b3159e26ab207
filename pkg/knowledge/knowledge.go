// Package knowledge is the evidence store: it embeds documents and claims
// and delegates persistence and nearest-neighbour search to a vector.Driver.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/aletheia/pkg/embeddings"
	"github.com/papercomputeco/aletheia/pkg/vector"
)

// ErrValidation is returned for malformed input, before any I/O happens.
var ErrValidation = errors.New("validation error")

// Config wires a Store.
type Config struct {
	Driver   vector.Driver
	Embedder embeddings.Embedder
	Logger   *slog.Logger
}

// Store indexes documents and answers similarity queries.
type Store struct {
	driver   vector.Driver
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// NewStore creates a Store.
func NewStore(c Config) (*Store, error) {
	if c.Driver == nil {
		return nil, errors.New("vector driver is required")
	}
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		driver:   c.Driver,
		embedder: c.Embedder,
		logger:   logger,
	}, nil
}

// AddDocuments embeds and stores texts with their metadata under ids.
// All three slices must have equal length. IDs that already exist or repeat
// within the batch fail with vector.ErrDuplicateID before anything is
// embedded.
func (s *Store) AddDocuments(ctx context.Context, texts []string, metadatas []vector.Metadata, ids []string) error {
	if len(texts) != len(metadatas) || len(texts) != len(ids) {
		return fmt.Errorf("%w: texts (%d), metadatas (%d) and ids (%d) must have the same length",
			ErrValidation, len(texts), len(metadatas), len(ids))
	}
	if len(texts) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty document id", ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}

	existing, err := s.driver.Get(ctx, ids)
	if err != nil {
		return fmt.Errorf("checking existing ids: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, existing[0].ID)
	}

	embs, err := embeddings.EmbedTexts(ctx, s.embedder, texts)
	if err != nil {
		return err
	}

	docs := make([]vector.Document, len(texts))
	for i := range texts {
		docs[i] = vector.Document{
			ID:        ids[i],
			Text:      texts[i],
			Metadata:  metadatas[i],
			Embedding: embs[i],
		}
	}

	if err := s.driver.Add(ctx, docs); err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}

	s.logger.Debug("indexed documents", "count", len(docs))
	return nil
}

// QuerySimilar returns up to topK documents nearest to queryText, ordered by
// ascending cosine distance. An empty collection yields an empty result.
func (s *Store) QuerySimilar(ctx context.Context, queryText string, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", ErrValidation, topK)
	}

	emb, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.driver.Query(ctx, emb, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	s.logger.Debug("similarity query", "top_k", topK, "hits", len(results))
	return results, nil
}

// DeleteByIDs removes documents. Unknown ids are ignored.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) error {
	if err := s.driver.Delete(ctx, ids); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// ResetCollection empties the collection, recreating it if needed.
func (s *Store) ResetCollection(ctx context.Context) error {
	if err := s.driver.Reset(ctx); err != nil {
		return fmt.Errorf("resetting collection: %w", err)
	}
	s.logger.Info("collection reset")
	return nil
}

// Count returns the number of indexed documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.driver.Count(ctx)
}

// Close releases the driver and embedder.
func (s *Store) Close() error {
	return errors.Join(s.driver.Close(), s.embedder.Close())
}
