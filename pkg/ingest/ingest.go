// Package ingest indexes a labelled seed CSV into the evidence store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/aletheia/pkg/vector"
)

// DefaultBatchSize bounds the documents sent to the store per call.
const DefaultBatchSize = 64

// Indexer is the part of the evidence store ingestion writes to.
type Indexer interface {
	AddDocuments(ctx context.Context, texts []string, metadatas []vector.Metadata, ids []string) error
	ResetCollection(ctx context.Context) error
}

// Options control one ingestion run.
type Options struct {
	// Reset empties the collection first. Re-ingesting without a reset
	// fails on the first existing id.
	Reset bool

	BatchSize int
}

// Stats summarise a run.
type Stats struct {
	Rows    int
	Indexed int
}

// Ingester loads seed files into an Indexer.
type Ingester struct {
	store  Indexer
	logger *slog.Logger
}

// New creates an Ingester.
func New(store Indexer, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ingester{store: store, logger: logger}
}

// Run indexes the seed CSV at path. The CSV is validated before the
// collection is touched.
func (in *Ingester) Run(ctx context.Context, path string, opts Options) (Stats, error) {
	rows, err := LoadSeedCSV(path)
	if err != nil {
		return Stats{}, err
	}
	return in.Index(ctx, rows, opts)
}

// Index writes already loaded rows.
func (in *Ingester) Index(ctx context.Context, rows []SeedRow, opts Options) (Stats, error) {
	stats := Stats{Rows: len(rows)}

	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	if opts.Reset {
		if err := in.store.ResetCollection(ctx); err != nil {
			return stats, err
		}
	}

	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		chunk := rows[start:end]

		texts := make([]string, len(chunk))
		metas := make([]vector.Metadata, len(chunk))
		ids := make([]string, len(chunk))
		for i, r := range chunk {
			texts[i] = r.Text
			metas[i] = vector.Metadata{Title: r.Title, Label: r.Label, Source: r.Source}
			ids[i] = r.ID
		}

		if err := in.store.AddDocuments(ctx, texts, metas, ids); err != nil {
			return stats, fmt.Errorf("indexing rows %d-%d: %w", start, end-1, err)
		}
		stats.Indexed += len(chunk)

		in.logger.Debug("indexed batch",
			"indexed", stats.Indexed,
			"total", len(rows),
		)
	}

	in.logger.Info("ingestion finished",
		"rows", stats.Rows,
		"indexed", stats.Indexed,
		"reset", opts.Reset,
	)

	return stats, nil
}
