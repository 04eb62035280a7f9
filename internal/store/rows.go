package store

import (
	"context"
	"fmt"
	"io"
)

// RowReader streams stored rows back out of PostgreSQL in fixed-size chunks.
// It implements the row source contract used by the inference engine, so a
// dataset can be re-scanned without re-reading the original file.
type RowReader struct {
	repo      *Postgres
	datasetID string
	header    []string
	chunkSize int
	pos       int64
	done      bool
}

// Rows opens a chunked reader over a dataset's stored rows. header comes
// from the dataset's schema document; chunkSize bounds memory per fetch.
func (s *Postgres) Rows(datasetID string, header []string, chunkSize int) *RowReader {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &RowReader{
		repo:      s,
		datasetID: datasetID,
		header:    header,
		chunkSize: chunkSize,
	}
}

// Header returns the dataset's column names.
func (r *RowReader) Header() []string {
	return r.header
}

// Next fetches the next chunk of rows, returning io.EOF once the dataset is
// exhausted.
func (r *RowReader) Next(ctx context.Context) ([][]string, error) {
	if r.done {
		return nil, io.EOF
	}
	rows, err := r.repo.pool.Query(ctx, `
		SELECT fields FROM dataset_rows
		WHERE dataset_id = $1 AND row_num >= $2
		ORDER BY row_num LIMIT $3`,
		r.datasetID, r.pos, r.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	defer rows.Close()

	var batch [][]string
	for rows.Next() {
		var fields []string
		if err := rows.Scan(&fields); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		batch = append(batch, fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	if len(batch) == 0 {
		r.done = true
		return nil, io.EOF
	}
	r.pos += int64(len(batch))
	if len(batch) < r.chunkSize {
		r.done = true
		return batch, io.EOF
	}
	return batch, nil
}
