// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/papercomputeco/aletheia/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for news evidence.
	DefaultCollectionName = "news"

	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries bounds connection attempts while Chroma starts up.
	MaxRetries int

	// RetryDelay is the first backoff delay. It doubles up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver, retrying with exponential
// backoff until the collection is reachable.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = defaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	var lastErr error
	delay := c.RetryDelay
	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		collectionID, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = collectionID
			logger.Info("connected to Chroma",
				"url", c.URL,
				"collection", collectionName,
				"collection_id", collectionID,
				"attempts", attempt,
			)
			return d, nil
		}

		lastErr = err
		if attempt == c.MaxRetries {
			break
		}

		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, c.MaxRetryDelay)
	}

	return nil, fmt.Errorf("%w: collection %q after %d attempts: %w",
		vector.ErrConnection, collectionName, c.MaxRetries, lastErr)
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil. Any status outside 2xx is returned as an error with the body.
func (d *Driver) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// getOrCreateCollection gets an existing collection or creates a new one
// configured for cosine distance.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection
	if _, err := d.do(ctx, http.MethodGet, collectionsPath+"/"+d.collectionName, nil, &collection); err == nil {
		return collection.ID, nil
	}

	create := chromaCreateRequest{
		Name:        d.collectionName,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
		GetOrCreate: true,
	}
	if _, err := d.do(ctx, http.MethodPost, collectionsPath, create, &collection); err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	return collection.ID, nil
}

func (d *Driver) collectionPath(op string) string {
	return fmt.Sprintf("%s/%s/%s", collectionsPath, d.collectionID, op)
}

// Add stores documents with their embeddings. IDs already present in the
// collection or repeated within the batch fail the whole call.
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

	reqBody := chromaAddRequest{
		IDs:        ids,
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
		Documents:  make([]string, len(docs)),
	}
	for i, doc := range docs {
		reqBody.Embeddings[i] = doc.Embedding
		reqBody.Documents[i] = doc.Text
		reqBody.Metadatas[i] = map[string]any{
			"title":  doc.Metadata.Title,
			"label":  doc.Metadata.Label,
			"source": doc.Metadata.Source,
		}
	}

	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("add"), reqBody, nil); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	d.logger.Debug("added documents to chroma",
		"collection", d.collectionName,
		"count", len(docs),
	)

	return nil
}

// Query finds the topK nearest documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var queryResp chromaQueryResponse
	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("query"), reqBody, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	var results []vector.QueryResult
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	var (
		documents []*string
		distances []float32
		metadatas []map[string]any
	)
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	for i, id := range queryResp.IDs[0] {
		result := vector.QueryResult{Document: vector.Document{ID: id}}
		if i < len(documents) && documents[i] != nil {
			result.Text = *documents[i]
		}
		if i < len(metadatas) {
			result.Metadata = metadataFrom(metadatas[i])
		}
		if i < len(distances) {
			result.Distance = distances[i]
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	d.logger.Debug("queried chroma",
		"collection", d.collectionName,
		"results", len(results),
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	reqBody := chromaGetRequest{
		IDs:     ids,
		Include: []string{"documents", "metadatas", "embeddings"},
	}

	var getResp chromaGetResponse
	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("get"), reqBody, &getResp); err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	docs := make([]vector.Document, len(getResp.IDs))
	for i, id := range getResp.IDs {
		docs[i].ID = id
		if i < len(getResp.Documents) && getResp.Documents[i] != nil {
			docs[i].Text = *getResp.Documents[i]
		}
		if i < len(getResp.Metadatas) {
			docs[i].Metadata = metadataFrom(getResp.Metadatas[i])
		}
		if i < len(getResp.Embeddings) {
			docs[i].Embedding = getResp.Embeddings[i]
		}
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := d.do(ctx, http.MethodPost, d.collectionPath("delete"), chromaDeleteRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	d.logger.Debug("deleted documents from chroma",
		"collection", d.collectionName,
		"count", len(ids),
	)

	return nil
}

// Reset deletes the collection and recreates it empty.
// A collection that does not exist is not an error.
func (d *Driver) Reset(ctx context.Context) error {
	status, err := d.do(ctx, http.MethodDelete, collectionsPath+"/"+d.collectionName, nil, nil)
	if err != nil && status != http.StatusNotFound {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	collectionID, err := d.getOrCreateCollection(ctx)
	if err != nil {
		return fmt.Errorf("recreating collection %q: %w", d.collectionName, err)
	}
	d.collectionID = collectionID

	d.logger.Debug("reset chroma collection",
		"collection", d.collectionName,
		"collection_id", collectionID,
	)

	return nil
}

// Count returns the number of documents in the collection.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if _, err := d.do(ctx, http.MethodGet, d.collectionPath("count"), nil, &n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	d.httpClient.CloseIdleConnections()
	return nil
}

func metadataFrom(m map[string]any) vector.Metadata {
	str := func(key string) string {
		if v, ok := m[key].(string); ok {
			return v
		}
		return ""
	}
	return vector.Metadata{
		Title:  str("title"),
		Label:  str("label"),
		Source: str("source"),
	}
}
