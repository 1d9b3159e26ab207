// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/aletheia/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for news evidence.
	DefaultCollectionName = "news"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadDocID  = "doc_id"
	payloadText   = "text"
	payloadTitle  = "title"
	payloadLabel  = "label"
	payloadSource = "source"
)

// Driver implements vector.Driver on a Qdrant collection using cosine
// distance. Document IDs are mapped to deterministic UUID point IDs and the
// original ID is kept in the payload.
type Driver struct {
	client     *qdrant.Client
	collection string
	dimensions uint64
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions is the embedding size used when the collection is created.
	Dimensions uint
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, errors.New("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %w", vector.ErrConnection, err)
	}

	d := &Driver{
		client:     client,
		collection: collection,
		dimensions: uint64(c.Dimensions),
		logger:     logger,
	}

	if err := d.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		"host", c.Host,
		"port", c.Port,
		"collection", collection,
	)

	return d, nil
}

func (d *Driver) ensureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, d.collection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     d.dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", d.collection, err)
	}
	return nil
}

// pointID maps a document ID onto the UUID space Qdrant accepts.
func pointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}

func pointIDs(docIDs []string) []*qdrant.PointId {
	ids := make([]*qdrant.PointId, len(docIDs))
	for i, id := range docIDs {
		ids[i] = qdrant.NewID(pointID(id))
	}
	return ids
}

func documentFrom(payload map[string]*qdrant.Value) vector.Document {
	str := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	return vector.Document{
		ID:   str(payloadDocID),
		Text: str(payloadText),
		Metadata: vector.Metadata{
			Title:  str(payloadTitle),
			Label:  str(payloadLabel),
			Source: str(payloadSource),
		},
	}
}

// Add upserts documents after checking that none of their IDs exist yet.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, doc.ID)
		}
		seen[doc.ID] = struct{}{}
		ids[i] = doc.ID
	}

	existing, err := d.Get(ctx, ids)
	if err != nil {
		return fmt.Errorf("checking for existing documents: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, existing[0].ID)
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(doc.ID)),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadDocID:  doc.ID,
				payloadText:   doc.Text,
				payloadTitle:  doc.Metadata.Title,
				payloadLabel:  doc.Metadata.Label,
				payloadSource: doc.Metadata.Source,
			}),
		}
	}

	if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		"collection", d.collection,
		"count", len(docs),
	)

	return nil
}

// Query returns the topK nearest documents. Qdrant reports cosine
// similarity, which is converted to distance as 1 - score.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Document: documentFrom(p.GetPayload()),
			Distance: 1 - p.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant",
		"collection", d.collection,
		"results", len(results),
	)

	return results, nil
}

// Get retrieves documents by their IDs, skipping unknown ones.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs(ids),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, p := range points {
		doc := documentFrom(p.GetPayload())
		doc.Embedding = p.GetVectors().GetVector().GetData()
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs(ids)...),
	}); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant",
		"collection", d.collection,
		"count", len(ids),
	)

	return nil
}

// Reset drops the collection if present and recreates it.
func (d *Driver) Reset(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", d.collection, err)
	}
	if exists {
		if err := d.client.DeleteCollection(ctx, d.collection); err != nil {
			return fmt.Errorf("deleting collection %q: %w", d.collection, err)
		}
	}
	return d.ensureCollection(ctx)
}

// Count returns the exact number of points in the collection.
func (d *Driver) Count(ctx context.Context) (int, error) {
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(n), nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}
