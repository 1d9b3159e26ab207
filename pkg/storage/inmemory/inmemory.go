// Package inmemory provides a process-local verdict history.
package inmemory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/aletheia/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	mu      sync.RWMutex
	records map[string]*storage.Record

	// order holds IDs in insertion order
	order []string
}

// NewDriver creates a new in-memory history.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.Record),
	}
}

// Put stores a record. Returns false if the ID is already present.
func (d *Driver) Put(_ context.Context, r *storage.Record) (bool, error) {
	if r == nil {
		return false, errors.New("cannot store nil record")
	}
	if r.ID == "" {
		return false, errors.New("record id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[r.ID]; ok {
		return false, nil
	}

	cp := *r
	cp.UsedSources = slices.Clone(r.UsedSources)
	d.records[r.ID] = &cp
	d.order = append(d.order, r.ID)
	return true, nil
}

// Get retrieves a record by its ID.
func (d *Driver) Get(_ context.Context, id string) (*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.records[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}
	cp := *r
	return &cp, nil
}

// List returns records newest first. Records with equal timestamps keep
// reverse insertion order.
func (d *Driver) List(_ context.Context, limit int) ([]*storage.Record, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.Record, 0, len(d.order))
	for i := len(d.order) - 1; i >= 0; i-- {
		cp := *d.records[d.order[i]]
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *storage.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored records.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records), nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
