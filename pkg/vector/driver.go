// Package vector provides the storage seam for indexed evidence documents and
// their embeddings.
package vector

import "context"

// Metadata is the provenance attached to every indexed document.
type Metadata struct {
	Title  string `json:"title"`
	Label  string `json:"label"`
	Source string `json:"source"`
}

// Document represents a stored item with its embedding and metadata.
type Document struct {
	// ID is the unique identifier of the document within a collection.
	ID string

	// Text is the raw document body that is snippeted into contexts.
	Text string

	// Metadata carries title, label and source of the document.
	Metadata Metadata

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult is a document returned by a similarity query.
type QueryResult struct {
	Document

	// Distance is the cosine distance to the query embedding (lower = closer).
	Distance float32
}

// Similarity returns 1 - Distance.
func (r QueryResult) Similarity() float32 {
	return 1 - r.Distance
}

// Driver handles storage and retrieval of document embeddings for a single
// named collection. The distance metric is cosine and is fixed when the
// collection is created.
type Driver interface {
	// Add stores documents with their embeddings. Implementers must not
	// overwrite: an ID that already exists yields ErrDuplicateID and nothing
	// from the batch is stored.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK nearest documents to the given embedding ordered
	// by ascending distance. An empty collection yields an empty result.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves the documents that exist among the given IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs. Absent IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Reset drops the collection and recreates it empty. A collection that
	// does not exist is not an error.
	Reset(ctx context.Context) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
