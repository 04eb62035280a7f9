// Package store persists datasets, schema documents, and preferred-type
// settings in PostgreSQL. The inference core never touches this package
// directly; callers hand it row sources and read back documents, keeping
// persistence an external collaborator concern.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tabinfer/internal/config"
	"tabinfer/internal/infer"
)

// ErrNotFound is returned when a dataset or setting does not exist.
var ErrNotFound = errors.New("not found")

// Schema document lifecycle states. A scan writes the document after every
// batch, so readers can follow an in-progress run.
const (
	StatusIncomplete = "incomplete"
	StatusComplete   = "complete"
)

// SchemaDoc is the persisted schema document for one dataset. It carries the
// hints the last run used, how far the run got, and the latest inference
// snapshot.
type SchemaDoc struct {
	Header    []string                `json:"header"`
	Hints     infer.Hints             `json:"hints"`
	Status    string                  `json:"status"`
	Position  int64                   `json:"position"`
	Inference *infer.DatasetInference `json:"inference,omitempty"`
}

// Postgres is the dataset repository backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Connect builds a pool from config, verifies the connection, and returns
// the repository.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// EnsureTables creates the repository tables if they do not exist.
func (s *Postgres) EnsureTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dataset_schemas (
			dataset_id  text PRIMARY KEY,
			doc         jsonb NOT NULL,
			updated_at  timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS preferred_types (
			dataset_id   text NOT NULL,
			column_name  text NOT NULL,
			kind         text NOT NULL,
			threshold    bigint NOT NULL DEFAULT 0,
			PRIMARY KEY (dataset_id, column_name)
		)`,
		`CREATE TABLE IF NOT EXISTS dataset_rows (
			dataset_id  text NOT NULL,
			row_num     bigint NOT NULL,
			fields      text[] NOT NULL,
			PRIMARY KEY (dataset_id, row_num)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure tables: %w", err)
		}
	}
	return nil
}

// WriteSchemaDoc upserts the schema document for a dataset.
func (s *Postgres) WriteSchemaDoc(ctx context.Context, datasetID string, doc *SchemaDoc) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode schema doc: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO dataset_schemas (dataset_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (dataset_id) DO UPDATE SET doc = $2, updated_at = now()`,
		datasetID, payload)
	if err != nil {
		return fmt.Errorf("write schema doc: %w", err)
	}
	return nil
}

// ReadSchemaDoc loads the schema document for a dataset.
func (s *Postgres) ReadSchemaDoc(ctx context.Context, datasetID string) (*SchemaDoc, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM dataset_schemas WHERE dataset_id = $1`, datasetID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read schema doc: %w", err)
	}
	var doc SchemaDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode schema doc: %w", err)
	}
	return &doc, nil
}

// SetPreferredType upserts a user's preferred type for one column.
func (s *Postgres) SetPreferredType(ctx context.Context, setting infer.PreferredTypeSetting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preferred_types (dataset_id, column_name, kind, threshold)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (dataset_id, column_name) DO UPDATE SET kind = $3, threshold = $4`,
		setting.DatasetID, setting.Column, string(setting.Kind), setting.Threshold)
	if err != nil {
		return fmt.Errorf("set preferred type: %w", err)
	}
	return nil
}

// SetThreshold updates the tolerance threshold of an existing preference.
func (s *Postgres) SetThreshold(ctx context.Context, datasetID, column string, threshold int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE preferred_types SET threshold = $3
		WHERE dataset_id = $1 AND column_name = $2`,
		datasetID, column, threshold)
	if err != nil {
		return fmt.Errorf("set threshold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("preference for %s.%s: %w", datasetID, column, ErrNotFound)
	}
	return nil
}

// PreferredTypes returns all preferred-type settings for a dataset.
func (s *Postgres) PreferredTypes(ctx context.Context, datasetID string) ([]infer.PreferredTypeSetting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT column_name, kind, threshold FROM preferred_types
		WHERE dataset_id = $1 ORDER BY column_name`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("read preferred types: %w", err)
	}
	defer rows.Close()

	var settings []infer.PreferredTypeSetting
	for rows.Next() {
		s := infer.PreferredTypeSetting{DatasetID: datasetID}
		var kind string
		if err := rows.Scan(&s.Column, &kind, &s.Threshold); err != nil {
			return nil, fmt.Errorf("scan preferred type: %w", err)
		}
		s.Kind = infer.Kind(kind)
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// AppendRows bulk-loads raw rows using the COPY protocol. startRow is the
// absolute index of the first row.
func (s *Postgres) AppendRows(ctx context.Context, datasetID string, startRow int64, rows [][]string) error {
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"dataset_rows"},
		[]string{"dataset_id", "row_num", "fields"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{datasetID, startRow + int64(i), rows[i]}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	return nil
}

// RowCount returns the number of stored rows for a dataset.
func (s *Postgres) RowCount(ctx context.Context, datasetID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM dataset_rows WHERE dataset_id = $1`, datasetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
