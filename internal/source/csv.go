package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"tabinfer/internal/infer"
)

// DefaultBatchSize is the rows-per-batch default for all sources.
const DefaultBatchSize = 1000

// ErrEmptyInput is returned when a CSV stream has no header row.
var ErrEmptyInput = errors.New("csv input is empty")

// CSVSource streams a CSV document as row batches. The underlying reader is
// wrapped with BOM skipping, UTF-8 sanitization, and byte counting, so
// memory use stays bounded regardless of file size. The first record is the
// header.
type CSVSource struct {
	reader    *csv.Reader
	counting  *CountingReader
	header    []string
	batchSize int
	done      bool
}

// NewCSVSource wraps r as a row source. totalBytes enables Progress when the
// size is known; pass 0 otherwise. A non-positive batchSize uses the default.
func NewCSVSource(r io.Reader, batchSize int, totalBytes int64) (*CSVSource, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	counting := NewCountingReader(NewUTF8Sanitizer(NewBOMReader(r)), totalBytes)
	cr := csv.NewReader(counting)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	return &CSVSource{
		reader:    cr,
		counting:  counting,
		header:    header,
		batchSize: batchSize,
	}, nil
}

// Header returns the column names from the first record.
func (s *CSVSource) Header() []string {
	return s.header
}

// Next returns the next batch of rows. The final batch is delivered together
// with io.EOF.
func (s *CSVSource) Next(ctx context.Context) ([][]string, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([][]string, 0, s.batchSize)
	for len(batch) < s.batchSize {
		row, err := s.reader.Read()
		if err == io.EOF {
			s.done = true
			return batch, io.EOF
		}
		if err != nil {
			s.done = true
			return batch, fmt.Errorf("read csv row: %w", err)
		}
		batch = append(batch, row)
	}
	return batch, nil
}

// Progress returns byte-based read progress (0-100), or 0 when the total
// size is unknown.
func (s *CSVSource) Progress() int {
	return s.counting.Progress()
}

// SliceSource serves buffered rows as batches. It is restartable via Reset,
// which makes hint-only re-inference cheap when the rows fit in memory.
type SliceSource struct {
	header    []string
	rows      [][]string
	batchSize int
	pos       int
}

// NewSliceSource creates a source over rows already held in memory.
func NewSliceSource(header []string, rows [][]string, batchSize int) *SliceSource {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SliceSource{header: header, rows: rows, batchSize: batchSize}
}

// Header returns the column names.
func (s *SliceSource) Header() []string {
	return s.header
}

// Next returns the next batch, then io.EOF.
func (s *SliceSource) Next(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	end := s.pos + s.batchSize
	if end > len(s.rows) {
		end = len(s.rows)
	}
	batch := s.rows[s.pos:end]
	s.pos = end
	return batch, nil
}

// Reset rewinds the source so it can be consumed again.
func (s *SliceSource) Reset() {
	s.pos = 0
}

// Recorder passes a row source through while caching the rows it delivers,
// up to maxRows. If the stream stays within the cap, Replay hands back a
// restartable copy so schema-hint changes can re-run inference without a
// fresh scan of the collaborator's stream.
type Recorder struct {
	src      infer.RowSource
	maxRows  int
	rows     [][]string
	overflow bool
	complete bool
}

// NewRecorder wraps src, caching at most maxRows rows. A non-positive cap
// disables caching entirely.
func NewRecorder(src infer.RowSource, maxRows int) *Recorder {
	return &Recorder{src: src, maxRows: maxRows, overflow: maxRows <= 0}
}

// Header returns the wrapped source's column names.
func (r *Recorder) Header() []string {
	return r.src.Header()
}

// Next delegates to the wrapped source, caching delivered rows while the cap
// allows.
func (r *Recorder) Next(ctx context.Context) ([][]string, error) {
	batch, err := r.src.Next(ctx)

	if !r.overflow && len(batch) > 0 {
		if len(r.rows)+len(batch) > r.maxRows {
			r.overflow = true
			r.rows = nil
		} else {
			for _, row := range batch {
				copied := make([]string, len(row))
				copy(copied, row)
				r.rows = append(r.rows, copied)
			}
		}
	}

	if err == io.EOF {
		r.complete = true
	}
	return batch, err
}

// Replay returns a restartable source over the cached rows. ok is false when
// the stream overflowed the cap or was never fully consumed.
func (r *Recorder) Replay(batchSize int) (*SliceSource, bool) {
	if r.overflow || !r.complete {
		return nil, false
	}
	return NewSliceSource(r.src.Header(), r.rows, batchSize), true
}
