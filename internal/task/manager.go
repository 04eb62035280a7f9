// Package task coordinates dataset scans: it serializes runs per dataset,
// bounds fleet-wide concurrency, persists progress so readers can follow an
// in-progress scan, and applies management commands against stored results.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tabinfer/internal/infer"
	"tabinfer/internal/logging"
	"tabinfer/internal/source"
	"tabinfer/internal/store"
)

// ErrScanInProgress is returned when a command needs exclusive access to a
// dataset that another scan currently holds.
var ErrScanInProgress = errors.New("a scan is already running for this dataset")

// ErrNoInference is returned by commands that need a completed scan when the
// dataset has never been scanned.
var ErrNoInference = errors.New("dataset has no inference result yet")

// Command names a management operation on a dataset.
type Command string

const (
	// CommandRerun re-scans the stored rows, superseding the previous result.
	CommandRerun Command = "rerun"
	// CommandReset clears accumulated inference state but keeps the hints.
	CommandReset Command = "reset"
	// CommandSetThreshold updates a preference threshold and re-reconciles
	// against the stored result without rescanning.
	CommandSetThreshold Command = "set_threshold"
)

// Request carries one management command. Hints applies to rerun only;
// Column/Threshold apply to set_threshold only.
type Request struct {
	DatasetID string
	Command   Command
	Hints     *infer.Hints
	Column    string
	Threshold int64
}

// Repository is the slice of the store the manager depends on. store.Postgres
// satisfies it through WrapStore; tests substitute an in-memory fake.
type Repository interface {
	ReadSchemaDoc(ctx context.Context, datasetID string) (*store.SchemaDoc, error)
	WriteSchemaDoc(ctx context.Context, datasetID string, doc *store.SchemaDoc) error
	AppendRows(ctx context.Context, datasetID string, startRow int64, rows [][]string) error
	PreferredTypes(ctx context.Context, datasetID string) ([]infer.PreferredTypeSetting, error)
	SetPreferredType(ctx context.Context, setting infer.PreferredTypeSetting) error
	SetThreshold(ctx context.Context, datasetID, column string, threshold int64) error
	Rows(datasetID string, header []string, chunkSize int) infer.RowSource
}

// postgresRepository lifts *store.Postgres into the Repository interface;
// only Rows needs adapting, from the concrete reader to the interface.
type postgresRepository struct {
	*store.Postgres
}

func (r postgresRepository) Rows(datasetID string, header []string, chunkSize int) infer.RowSource {
	return r.Postgres.Rows(datasetID, header, chunkSize)
}

// WrapStore adapts the PostgreSQL repository for use by a Manager.
func WrapStore(p *store.Postgres) Repository {
	return postgresRepository{p}
}

// Config tunes a Manager. Zero values take defaults.
type Config struct {
	BatchSize   int           // rows per chunk when replaying stored datasets
	CacheRows   int           // in-memory replay cache cap per dataset (0 disables)
	MaxScans    int           // fleet-wide concurrent scan ceiling
	MaxWaitTime time.Duration // how long to wait for a scan slot
	ScanTimeout time.Duration // hard deadline for a single scan
}

// DefaultScanTimeout bounds a single scan when the config does not say.
const DefaultScanTimeout = 10 * time.Minute

// Manager runs scans against stored datasets and applies management
// commands. Safe for concurrent use; runs on the same dataset are
// serialized and excess runs are rejected rather than queued.
type Manager struct {
	repo      Repository
	engine    *infer.Engine
	limiter   *ScanLimiter
	batchSize int
	cacheRows int
	timeout   time.Duration
	log       *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// cache holds replayable row sources for datasets ingested by this
	// manager, so hint-only reruns skip the repository read. Access is
	// serialized by the per-dataset lock.
	cache map[string]*source.SliceSource
}

// NewManager creates a manager around the given repository and engine.
func NewManager(repo Repository, engine *infer.Engine, cfg Config) *Manager {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = DefaultScanTimeout
	}
	return &Manager{
		repo:      repo,
		engine:    engine,
		limiter:   NewScanLimiter(cfg.MaxScans, cfg.MaxWaitTime),
		batchSize: cfg.BatchSize,
		cacheRows: cfg.CacheRows,
		timeout:   cfg.ScanTimeout,
		log:       slog.Default(),
		locks:     make(map[string]*sync.Mutex),
		cache:     make(map[string]*source.SliceSource),
	}
}

// Limiter exposes the scan limiter for status reporting.
func (m *Manager) Limiter() *ScanLimiter {
	return m.limiter
}

// datasetLock returns the mutex guarding one dataset, creating it on first
// use. Locks are never removed; the per-dataset footprint is one mutex.
func (m *Manager) datasetLock(datasetID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[datasetID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[datasetID] = lock
	}
	return lock
}

// Ingest scans a fresh row source, persisting raw rows and a progress
// document batch by batch, and stores the final inference result. The
// returned DatasetInference may be partial if the source failed or the
// context was cancelled.
func (m *Manager) Ingest(ctx context.Context, datasetID string, src infer.RowSource, hints infer.Hints) (*infer.DatasetInference, error) {
	if err := hints.Validate(); err != nil {
		return nil, err
	}

	lock := m.datasetLock(datasetID)
	if !lock.TryLock() {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, ErrScanInProgress)
	}
	defer lock.Unlock()

	if err := m.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer m.limiter.Release()

	doc := &store.SchemaDoc{
		Header: src.Header(),
		Hints:  hints,
		Status: store.StatusIncomplete,
	}
	if err := m.repo.WriteSchemaDoc(ctx, datasetID, doc); err != nil {
		return nil, err
	}

	recorder := source.NewRecorder(src, m.cacheRows)
	tracked := &trackedSource{
		src:       recorder,
		repo:      m.repo,
		datasetID: datasetID,
		doc:       doc,
		persist:   true,
	}
	di, err := m.runScan(ctx, datasetID, tracked, doc, hints)
	if di != nil && !di.Meta.Partial {
		if replay, ok := recorder.Replay(m.batchSize); ok {
			m.mu.Lock()
			m.cache[datasetID] = replay
			m.mu.Unlock()
		}
	}
	return di, err
}

// Manage applies one management command and returns the effective schema
// where the command produces one (rerun, set_threshold). Reset returns a nil
// schema.
func (m *Manager) Manage(ctx context.Context, req Request) (*infer.EffectiveSchema, error) {
	switch req.Command {
	case CommandRerun:
		return m.rerun(ctx, req)
	case CommandReset:
		return nil, m.reset(ctx, req.DatasetID)
	case CommandSetThreshold:
		return m.setThreshold(ctx, req)
	default:
		return nil, fmt.Errorf("unknown command %q", req.Command)
	}
}

// rerun re-scans the stored rows. New hints, when given, replace the stored
// ones; preferences are re-validated against the fresh result automatically.
func (m *Manager) rerun(ctx context.Context, req Request) (*infer.EffectiveSchema, error) {
	lock := m.datasetLock(req.DatasetID)
	if !lock.TryLock() {
		return nil, fmt.Errorf("dataset %q: %w", req.DatasetID, ErrScanInProgress)
	}
	defer lock.Unlock()

	doc, err := m.repo.ReadSchemaDoc(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}

	hints := doc.Hints
	if req.Hints != nil {
		hints = *req.Hints
	}
	if err := hints.Validate(); err != nil {
		return nil, err
	}

	if err := m.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer m.limiter.Release()

	doc.Hints = hints
	doc.Status = store.StatusIncomplete
	doc.Position = 0

	tracked := &trackedSource{
		src:       m.rowSource(req.DatasetID, doc.Header),
		repo:      m.repo,
		datasetID: req.DatasetID,
		doc:       doc,
	}
	di, err := m.runScan(ctx, req.DatasetID, tracked, doc, hints)
	if err != nil {
		return nil, err
	}

	return m.reconcile(ctx, req.DatasetID, di)
}

// rowSource returns the dataset's rows for a rerun, preferring the in-memory
// replay cache from a previous ingest over a repository read. The caller
// holds the dataset lock, which serializes cache access per dataset.
func (m *Manager) rowSource(datasetID string, header []string) infer.RowSource {
	m.mu.Lock()
	cached := m.cache[datasetID]
	m.mu.Unlock()
	if cached != nil {
		cached.Reset()
		return cached
	}
	return m.repo.Rows(datasetID, header, m.batchSize)
}

// reset clears accumulated inference state but keeps the dataset's hints and
// stored rows, so the next rerun starts clean.
func (m *Manager) reset(ctx context.Context, datasetID string) error {
	lock := m.datasetLock(datasetID)
	if !lock.TryLock() {
		return fmt.Errorf("dataset %q: %w", datasetID, ErrScanInProgress)
	}
	defer lock.Unlock()

	doc, err := m.repo.ReadSchemaDoc(ctx, datasetID)
	if err != nil {
		return err
	}
	doc.Inference = nil
	doc.Position = 0
	doc.Status = store.StatusIncomplete
	if err := m.repo.WriteSchemaDoc(ctx, datasetID, doc); err != nil {
		return err
	}
	m.log.Info("dataset reset", "dataset_id", datasetID)
	return nil
}

// setThreshold updates one preference's tolerance and re-reconciles the
// stored result. No rescan happens; the stored statistics are authoritative.
func (m *Manager) setThreshold(ctx context.Context, req Request) (*infer.EffectiveSchema, error) {
	doc, err := m.repo.ReadSchemaDoc(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}
	if doc.Inference == nil {
		return nil, fmt.Errorf("dataset %q: %w", req.DatasetID, ErrNoInference)
	}
	if err := m.repo.SetThreshold(ctx, req.DatasetID, req.Column, req.Threshold); err != nil {
		return nil, err
	}
	return m.reconcile(ctx, req.DatasetID, doc.Inference)
}

// SetPreference stores a preferred type after checking the kind is known.
// The next reconcile validates it against the dataset's actual statistics.
func (m *Manager) SetPreference(ctx context.Context, setting infer.PreferredTypeSetting) error {
	if !infer.KnownKind(setting.Kind) {
		return fmt.Errorf("unknown type %q", setting.Kind)
	}
	return m.repo.SetPreferredType(ctx, setting)
}

// Schema reconciles a dataset's stored inference with its current
// preferences.
func (m *Manager) Schema(ctx context.Context, datasetID string) (*infer.EffectiveSchema, error) {
	doc, err := m.repo.ReadSchemaDoc(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if doc.Inference == nil {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, ErrNoInference)
	}
	return m.reconcile(ctx, datasetID, doc.Inference)
}

func (m *Manager) reconcile(ctx context.Context, datasetID string, di *infer.DatasetInference) (*infer.EffectiveSchema, error) {
	settings, err := m.repo.PreferredTypes(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	schema := infer.Reconcile(di, settings)
	schema.DatasetID = datasetID
	return &schema, nil
}

// runScan drives the engine with a per-scan deadline and persists the final
// document. The document is written even for partial results so a later
// rerun or reader sees how far the scan got.
func (m *Manager) runScan(ctx context.Context, datasetID string, src infer.RowSource, doc *store.SchemaDoc, hints infer.Hints) (*infer.DatasetInference, error) {
	scanCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	di, scanErr := m.engine.Infer(scanCtx, src, hints)
	if di == nil {
		return nil, scanErr
	}
	di.Meta.DatasetID = datasetID

	doc.Inference = di
	doc.Position = di.Meta.Rows
	if di.Meta.Partial {
		doc.Status = store.StatusIncomplete
	} else {
		doc.Status = store.StatusComplete
	}
	if err := m.repo.WriteSchemaDoc(ctx, datasetID, doc); err != nil {
		if scanErr != nil {
			return di, errors.Join(scanErr, err)
		}
		return di, err
	}
	return di, scanErr
}

// trackedSource decorates a row source so each batch updates the dataset's
// schema document position, and optionally persists the raw rows. A storage
// failure surfaces as a source error, which the engine turns into a partial
// result.
type trackedSource struct {
	src       infer.RowSource
	repo      Repository
	datasetID string
	doc       *store.SchemaDoc
	persist   bool
	pos       int64
}

func (t *trackedSource) Header() []string {
	return t.src.Header()
}

func (t *trackedSource) Next(ctx context.Context) ([][]string, error) {
	batch, err := t.src.Next(ctx)
	if len(batch) > 0 {
		if t.persist {
			if werr := t.repo.AppendRows(ctx, t.datasetID, t.pos, batch); werr != nil {
				return nil, werr
			}
		}
		t.pos += int64(len(batch))
		t.doc.Position = t.pos
		// Progress write is best-effort; the scan should not fail because a
		// reader-facing snapshot could not be stored.
		if werr := t.repo.WriteSchemaDoc(ctx, t.datasetID, t.doc); werr != nil {
			logging.FromContext(ctx).Warn("progress write failed",
				"dataset_id", t.datasetID, "position", t.pos, "error", werr)
		}
	}
	return batch, err
}
