// Package sqlstore implements storage.Driver on top of ent's dialect-aware
// SQL builder and migration engine. It is database-agnostic and is embedded
// by the sqlite and postgres drivers.
package sqlstore

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/papercomputeco/aletheia/pkg/storage"
)

const table = "verdicts"

var columns = []string{
	"id",
	"claim",
	"url",
	"label",
	"confidence",
	"rationale",
	"used_sources",
	"used_web",
	"error",
	"created_at",
}

// Driver provides storage operations over an ent SQL driver.
type Driver struct {
	drv *entsql.Driver
}

// New wraps drv and creates the verdicts table when missing.
func New(ctx context.Context, drv *entsql.Driver) (*Driver, error) {
	d := &Driver{drv: drv}
	if err := d.migrate(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(d.drv.Dialect())
}

// verdictsTable describes the verdicts table for ent's migration engine.
func verdictsTable() *schema.Table {
	id := &schema.Column{Name: "id", Type: field.TypeString, Size: 36}
	return schema.NewTable(table).
		AddPrimary(id).
		AddColumn(&schema.Column{Name: "claim", Type: field.TypeString, Size: math.MaxInt32}).
		AddColumn(&schema.Column{Name: "url", Type: field.TypeString, Size: math.MaxInt32, Nullable: true}).
		AddColumn(&schema.Column{Name: "label", Type: field.TypeString, Size: 32, Nullable: true}).
		AddColumn(&schema.Column{Name: "confidence", Type: field.TypeFloat64, Nullable: true}).
		AddColumn(&schema.Column{Name: "rationale", Type: field.TypeString, Size: math.MaxInt32, Nullable: true}).
		AddColumn(&schema.Column{Name: "used_sources", Type: field.TypeString, Size: math.MaxInt32, Nullable: true}).
		AddColumn(&schema.Column{Name: "used_web", Type: field.TypeBool, Default: false}).
		AddColumn(&schema.Column{Name: "error", Type: field.TypeString, Size: math.MaxInt32, Nullable: true}).
		AddColumn(&schema.Column{Name: "created_at", Type: field.TypeInt64}).
		AddIndex("verdicts_created_at", false, []string{"created_at"})
}

func (d *Driver) migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(d.drv)
	if err != nil {
		return fmt.Errorf("failed to prepare migration: %w", err)
	}
	if err := m.Create(ctx, verdictsTable()); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Put stores a record. Returns false if the ID already exists.
func (d *Driver) Put(ctx context.Context, r *storage.Record) (bool, error) {
	if r == nil {
		return false, errors.New("cannot store nil record")
	}
	if r.ID == "" {
		return false, errors.New("record id is required")
	}

	sources := r.UsedSources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return false, fmt.Errorf("failed to marshal used sources: %w", err)
	}

	var confidence any
	if r.Confidence != nil {
		confidence = *r.Confidence
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args := d.builder().Insert(table).
		Columns(columns...).
		Values(
			r.ID,
			r.Claim,
			r.URL,
			r.Label,
			confidence,
			r.Rationale,
			string(sourcesJSON),
			r.UsedWeb,
			r.Error,
			createdAt.UnixNano(),
		).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()

	var res stdsql.Result
	if err := d.drv.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("could not insert record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not read affected rows: %w", err)
	}
	return n > 0, nil
}

// Get retrieves a record by its ID.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Record, error) {
	query, args := d.builder().Select(columns...).
		From(entsql.Table(table)).
		Where(entsql.EQ("id", id)).
		Query()

	records, err := d.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}
	return records[0], nil
}

// List returns up to limit records, newest first.
func (d *Driver) List(ctx context.Context, limit int) ([]*storage.Record, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	query, args := d.builder().Select(columns...).
		From(entsql.Table(table)).
		OrderBy(entsql.Desc("created_at")).
		Limit(limit).
		Query()

	return d.query(ctx, query, args)
}

// Count returns the number of stored records.
func (d *Driver) Count(ctx context.Context) (int, error) {
	query, args := d.builder().Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Query()

	var rows entsql.Rows
	if err := d.drv.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}
	return n, rows.Err()
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.drv.Close()
}

func (d *Driver) query(ctx context.Context, query string, args []any) ([]*storage.Record, error) {
	var rows entsql.Rows
	if err := d.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []*storage.Record
	for rows.Next() {
		var (
			r           storage.Record
			url         stdsql.NullString
			label       stdsql.NullString
			confidence  stdsql.NullFloat64
			rationale   stdsql.NullString
			sourcesJSON stdsql.NullString
			errText     stdsql.NullString
			createdAt   int64
		)
		if err := rows.Scan(
			&r.ID,
			&r.Claim,
			&url,
			&label,
			&confidence,
			&rationale,
			&sourcesJSON,
			&r.UsedWeb,
			&errText,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.URL = url.String
		r.Label = label.String
		r.Rationale = rationale.String
		r.Error = errText.String
		r.CreatedAt = time.Unix(0, createdAt)
		if confidence.Valid {
			c := confidence.Float64
			r.Confidence = &c
		}

		r.UsedSources = []string{}
		if sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &r.UsedSources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal used sources of %s: %w", r.ID, err)
			}
		}

		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Exec runs a raw statement against the store.
func (d *Driver) Exec(ctx context.Context, stmt string, args ...any) error {
	if err := d.drv.Exec(ctx, stmt, args, nil); err != nil {
		return fmt.Errorf("exec %q: %w", stmt, err)
	}
	return nil
}
