// Package inmemory provides a brute-force, process-local vector driver.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/papercomputeco/aletheia/pkg/vector"
)

// Driver implements vector.Driver with an insertion-ordered slice of documents
// and exhaustive cosine search.
type Driver struct {
	// mu guards docs and index
	mu sync.RWMutex

	docs  []vector.Document
	index map[string]int
}

// NewDriver creates an empty in-memory collection.
func NewDriver() *Driver {
	return &Driver{
		index: make(map[string]int),
	}
}

// Add stores documents. The batch is rejected as a whole if any ID is
// already present or repeated within the batch.
func (d *Driver) Add(_ context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var dups []string
	batch := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		_, exists := d.index[doc.ID]
		_, repeated := batch[doc.ID]
		if exists || repeated {
			dups = append(dups, doc.ID)
		}
		batch[doc.ID] = struct{}{}
	}
	if len(dups) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, strings.Join(dups, ", "))
	}

	for _, doc := range docs {
		d.index[doc.ID] = len(d.docs)
		d.docs = append(d.docs, doc)
	}

	return nil
}

// Query finds the topK nearest documents by cosine distance. Ties keep
// insertion order.
func (d *Driver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, len(d.docs))
	for _, doc := range d.docs {
		results = append(results, vector.QueryResult{
			Document: doc,
			Distance: vector.CosineDistance(embedding, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Get retrieves the documents that exist among ids, in the order requested.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if i, ok := d.index[id]; ok {
			docs = append(docs, d.docs[i])
		}
	}

	return docs, nil
}

// Delete removes documents by ID; unknown IDs are ignored.
func (d *Driver) Delete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	kept := d.docs[:0]
	for _, doc := range d.docs {
		if _, ok := remove[doc.ID]; !ok {
			kept = append(kept, doc)
		}
	}
	d.docs = kept
	d.reindex()

	return nil
}

// Reset empties the collection.
func (d *Driver) Reset(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.docs = nil
	d.index = make(map[string]int)
	return nil
}

// Count returns the number of stored documents.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs), nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) reindex() {
	d.index = make(map[string]int, len(d.docs))
	for i, doc := range d.docs {
		d.index[doc.ID] = i
	}
}

var _ vector.Driver = (*Driver)(nil)
