package infer

// engine.go orchestrates a full dataset scan: it consumes the row stream in
// bounded batches, fans each batch's values out to per-column accumulators
// across a bounded worker pool, and assembles the final DatasetInference.
//
// The engine is synchronous from the caller's perspective but cooperatively
// cancellable: cancellation is checked between batches and yields a valid
// partial result rather than an error.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"tabinfer/internal/logging"
)

// RowSource is a finite sequence of records delivered in bounded batches.
// Next returns io.EOF after the last batch. Restartability is up to the
// implementation; the engine consumes a source exactly once.
type RowSource interface {
	Header() []string
	Next(ctx context.Context) ([][]string, error)
}

// DefaultWorkers bounds column fan-out when the config does not say.
const DefaultWorkers = 4

// Config tunes a SchemaInferenceEngine. Zero values take defaults.
type Config struct {
	// Workers bounds the column-level fan-out per batch.
	Workers int

	// Tolerance is the dataset-wide default exception ratio a candidate may
	// carry and still qualify as best fit.
	Tolerance float64

	// ExceptionSampleCap bounds retained exception samples per column/kind.
	ExceptionSampleCap int
}

func (c *Config) validate() error {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidHints, c.Workers)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrInvalidHints, c.Tolerance)
	}
	return nil
}

// Engine runs dataset scans. Create once and reuse; Infer is safe for
// concurrent calls, each scan owns all of its state.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, applying defaults for zero config values.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Infer scans the row source to completion (or cancellation) and returns a
// DatasetInference. Configuration problems are reported synchronously before
// any streaming starts. Cancellation is not an error: the result carries
// Partial=true and whatever was accumulated. A mid-stream source failure
// returns the partial result alongside the error.
func (e *Engine) Infer(ctx context.Context, src RowSource, hints Hints) (*DatasetInference, error) {
	if err := hints.Validate(); err != nil {
		return nil, err
	}

	header := uniqueHeader(src.Header())
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: row source has no columns", ErrInvalidHints)
	}

	ledger := NewExceptionLedger(e.cfg.ExceptionSampleCap)
	accs := make([]*ColumnStatsAccumulator, len(header))
	for i, name := range header {
		accs[i] = NewColumnStatsAccumulator(name, i, &hints, e.cfg.Tolerance, ledger.Shard(name))
	}

	meta := ScanMeta{ScanID: uuid.New().String()}
	ctx = logging.WithScanID(ctx, meta.ScanID)
	log := logging.FromContext(ctx)
	start := time.Now()

	sem := make(chan struct{}, e.cfg.Workers)
	var srcErr error

scan:
	for {
		if ctx.Err() != nil {
			meta.Partial = true
			break
		}

		batch, err := src.Next(ctx)
		if len(batch) > 0 {
			e.applyBatch(accs, batch, meta.Rows, &meta.RowAnomalies, sem)
			meta.Rows += int64(len(batch))
			meta.Batches++
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			break scan
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			meta.Partial = true
			break scan
		default:
			meta.Partial = true
			srcErr = err
			break scan
		}
	}

	meta.Duration = time.Since(start)

	columns := make([]ColumnInference, len(accs))
	for i, acc := range accs {
		if meta.Partial {
			acc.markPartial()
		}
		columns[i] = acc.Finalize()
	}

	di := &DatasetInference{
		Columns: columns,
		Hints:   hints,
		Meta:    meta,
		Ledger:  ledger,
	}

	if srcErr != nil {
		log.Error("scan aborted by row source",
			"rows", meta.Rows, "batches", meta.Batches, "error", srcErr)
		return di, fmt.Errorf("row source: %w", srcErr)
	}

	log.Info("scan finished",
		"rows", meta.Rows,
		"batches", meta.Batches,
		"row_anomalies", meta.RowAnomalies,
		"partial", meta.Partial,
		"duration_ms", meta.Duration.Milliseconds(),
	)
	return di, nil
}

// applyBatch transposes one row batch into per-column value slices and fans
// them out to the accumulators. Rows shorter than the header contribute
// missing values for the absent columns; rows with extra fields count as a
// row-level anomaly and the extras are dropped. The call returns only after
// every column has applied the batch, which keeps per-column batch order
// equal to arrival order.
func (e *Engine) applyBatch(accs []*ColumnStatsAccumulator, batch [][]string, startRow int64, anomalies *int64, sem chan struct{}) {
	cols := make([][]string, len(accs))
	for i := range cols {
		cols[i] = make([]string, len(batch))
	}
	for r, row := range batch {
		if len(row) > len(accs) {
			*anomalies++
		}
		for c := range accs {
			if c < len(row) {
				cols[c][r] = row[c]
			}
		}
	}

	var wg sync.WaitGroup
	for i := range accs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			accs[i].Add(cols[i], startRow)
		}(i)
	}
	wg.Wait()
}

// uniqueHeader deduplicates column names so that ledger shards and settings
// lookups stay unambiguous. Duplicates get a positional suffix.
func uniqueHeader(header []string) []string {
	seen := make(map[string]bool, len(header))
	out := make([]string, len(header))
	for i, name := range header {
		name = CleanCell(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		for seen[name] {
			name = fmt.Sprintf("%s_%d", name, i+1)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}
