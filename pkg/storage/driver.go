// Package storage persists the history of issued verdicts.
package storage

import (
	"context"
	"time"
)

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 50

// Record is one verdict as it was returned to a caller.
type Record struct {
	// ID is the unique identifier of the record (a UUID).
	ID string `json:"id"`

	// Claim is the text that was checked.
	Claim string `json:"claim"`

	// URL is set when the claim was scraped from a page.
	URL string `json:"url,omitempty"`

	Label       string   `json:"label,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Rationale   string   `json:"rationale,omitempty"`
	UsedSources []string `json:"used_sources"`
	UsedWeb     bool     `json:"used_web"`

	// Error carries the message of a reply that could not be parsed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Driver defines the interface for persisting and listing verdict records.
type Driver interface {
	// Put stores a record. Returns true if the record was newly inserted,
	// false if a record with the same ID already exists, in which case
	// this is a no-op.
	Put(ctx context.Context, r *Record) (bool, error)

	// Get retrieves a record by its ID.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first. A limit <= 0 uses
	// DefaultListLimit.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}
