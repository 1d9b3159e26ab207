// Package sqlitevec provides a file-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/aletheia/pkg/vector"
)

// DefaultCollectionName is the collection used when none is configured.
const DefaultCollectionName = "news"

var collectionNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
// Each collection is a pair of tables: <name>_documents holds text and
// metadata, <name>_embeddings is a vec0 table with cosine distance.
type SQLiteVecDriver struct {
	db         *sql.DB
	collection string
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// CollectionName selects the table pair. Defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *slog.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}
	if !collectionNameRe.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q: must match %s", collection, collectionNameRe)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// vec0 virtual tables live per connection for :memory: databases.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	d := &SQLiteVecDriver{
		db:         db,
		collection: collection,
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if err := d.createTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"collection", collection,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return d, nil
}

func (d *SQLiteVecDriver) documentsTable() string {
	return d.collection + "_documents"
}

func (d *SQLiteVecDriver) embeddingsTable() string {
	return d.collection + "_embeddings"
}

func (d *SQLiteVecDriver) createTables(ctx context.Context) error {
	// vec0 tables use integer rowids, so string document IDs map through
	// the documents table.
	_, err := d.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			label TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT ''
		)
	`, d.documentsTable()))
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d] distance_metric=cosine)`,
		d.embeddingsTable(), d.dimensions,
	)
	if _, err := d.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	return nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Add stores documents with their embeddings inside one transaction.
// Any ID that already exists aborts the whole batch with vector.ErrDuplicateID.
func (d *SQLiteVecDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dimensions {
			return fmt.Errorf("embedding for doc %s has %d dimensions, collection expects %d",
				doc.ID, len(doc.Embedding), d.dimensions)
		}

		var existing int64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT rowid FROM %s WHERE doc_id = ?`, d.documentsTable()), doc.ID,
		).Scan(&existing)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, doc.ID)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking for existing document %s: %w", doc.ID, err)
		}

		result, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s(doc_id, text, title, label, source) VALUES (?, ?, ?, ?, ?)`, d.documentsTable()),
			doc.ID, doc.Text, doc.Metadata.Title, doc.Metadata.Label, doc.Metadata.Source,
		)
		if err != nil {
			return fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, d.embeddingsTable()),
			rowID, serializeFloat32(doc.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec",
		"collection", d.collection,
		"count", len(docs),
	)

	return nil
}

// Query finds the topK nearest documents using a vec0 KNN match.
func (d *SQLiteVecDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			d.doc_id,
			d.text,
			d.title,
			d.label,
			d.source,
			ve.distance
		FROM %s ve
		INNER JOIN %s d ON d.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, d.embeddingsTable(), d.documentsTable()), serializeFloat32(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var r vector.QueryResult
		var distance float64
		if err := rows.Scan(&r.ID, &r.Text, &r.Metadata.Title, &r.Metadata.Label, &r.Metadata.Source, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		r.Distance = float32(distance)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		"collection", d.collection,
		"results", len(results),
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *SQLiteVecDriver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	inClause, args := placeholders(ids)
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT d.rowid, d.doc_id, d.text, d.title, d.label, d.source
		FROM %s d
		WHERE d.doc_id IN (%s)
	`, d.documentsTable(), inClause), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	// Collect results first so the cursor is closed before issuing the
	// embedding lookups (single connection).
	type docRow struct {
		rowID int64
		doc   vector.Document
	}
	var docRows []docRow
	for rows.Next() {
		var dr docRow
		if err := rows.Scan(&dr.rowID, &dr.doc.ID, &dr.doc.Text,
			&dr.doc.Metadata.Title, &dr.doc.Metadata.Label, &dr.doc.Metadata.Source); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docRows = append(docRows, dr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	rows.Close()

	docs := make([]vector.Document, 0, len(docRows))
	for _, dr := range docRows {
		var blob []byte
		err := d.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT embedding FROM %s WHERE rowid = ?`, d.embeddingsTable()), dr.rowID,
		).Scan(&blob)
		if err == nil && len(blob) > 0 {
			dr.doc.Embedding, _ = deserializeFloat32(blob)
		}
		docs = append(docs, dr.doc)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *SQLiteVecDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inClause, args := placeholders(ids)

	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT rowid FROM %s WHERE doc_id IN (%s)`, d.documentsTable(), inClause), args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, d.embeddingsTable()), rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE doc_id IN (%s)`, d.documentsTable(), inClause), args...,
	); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted documents from sqlite-vec",
		"collection", d.collection,
		"count", len(rowIDs),
	)

	return nil
}

// Reset drops and recreates the collection tables.
func (d *SQLiteVecDriver) Reset(ctx context.Context) error {
	for _, table := range []string{d.embeddingsTable(), d.documentsTable()} {
		if _, err := d.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}

	if err := d.createTables(ctx); err != nil {
		return err
	}

	d.logger.Debug("reset sqlite-vec collection", "collection", d.collection)
	return nil
}

// Count returns the number of documents in the collection.
func (d *SQLiteVecDriver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.documentsTable()),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}

func placeholders(ids []string) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ","), args
}
