package infer

// ledger.go implements the per-scan exception store. Exceptions are keyed by
// (column, candidate kind) and capped to a bounded first-K sample per key;
// the running total stays exact even when samples are truncated.
//
// The ledger is sharded by column. A scan creates every shard up front and
// assigns each one to the worker that owns the matching column, so no two
// goroutines ever touch the same shard concurrently and recording needs no
// locks on the hot path.

import "sync"

// DefaultExceptionSampleCap bounds the retained sample per (column, kind).
const DefaultExceptionSampleCap = 25

// ExceptionLedger stores per-cell exceptions for one inference run.
type ExceptionLedger struct {
	sampleCap int

	mu     sync.RWMutex
	shards map[string]*ledgerShard
}

type ledgerShard struct {
	column    string
	sampleCap int
	buckets   map[Kind]*ledgerBucket
}

type ledgerBucket struct {
	total   int64
	samples []CellException
}

// NewExceptionLedger creates a ledger retaining at most sampleCap exceptions
// per (column, kind). A non-positive cap uses the default.
func NewExceptionLedger(sampleCap int) *ExceptionLedger {
	if sampleCap <= 0 {
		sampleCap = DefaultExceptionSampleCap
	}
	return &ExceptionLedger{
		sampleCap: sampleCap,
		shards:    make(map[string]*ledgerShard),
	}
}

// Shard returns the shard for a column, creating it if needed. Each scan
// worker must call this once and then record through the shard it owns.
func (l *ExceptionLedger) Shard(column string) *ledgerShard {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.shards[column]; ok {
		return s
	}
	s := &ledgerShard{
		column:    column,
		sampleCap: l.sampleCap,
		buckets:   make(map[Kind]*ledgerBucket),
	}
	l.shards[column] = s
	return s
}

// Record appends an exception. Safe for callers without a shard reference;
// scan workers should use the shard directly.
func (l *ExceptionLedger) Record(exc CellException) {
	l.Shard(exc.Column).record(exc)
}

// record is the unsynchronized hot path; the shard's owning worker is the
// only writer during a scan.
func (s *ledgerShard) record(exc CellException) {
	b, ok := s.buckets[exc.Kind]
	if !ok {
		b = &ledgerBucket{}
		s.buckets[exc.Kind] = b
	}
	b.total++
	if len(b.samples) < s.sampleCap {
		b.samples = append(b.samples, exc)
	}
}

// Query returns up to limit sampled exceptions for (column, kind). The
// sample is "first K observed" in batch arrival order. Query never mutates;
// the returned slice is a copy.
func (l *ExceptionLedger) Query(column string, kind Kind, limit int) []CellException {
	l.mu.RLock()
	s, ok := l.shards[column]
	l.mu.RUnlock()
	if !ok {
		return nil
	}
	b, ok := s.buckets[kind]
	if !ok {
		return nil
	}
	n := len(b.samples)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]CellException, n)
	copy(out, b.samples[:n])
	return out
}

// Count returns the exact exception total for (column, kind).
func (l *ExceptionLedger) Count(column string, kind Kind) int64 {
	l.mu.RLock()
	s, ok := l.shards[column]
	l.mu.RUnlock()
	if !ok {
		return 0
	}
	b, ok := s.buckets[kind]
	if !ok {
		return 0
	}
	return b.total
}

// CountAbove reports whether any candidate kind's exception total for the
// column exceeds threshold.
func (l *ExceptionLedger) CountAbove(column string, threshold int64) bool {
	l.mu.RLock()
	s, ok := l.shards[column]
	l.mu.RUnlock()
	if !ok {
		return false
	}
	for _, b := range s.buckets {
		if b.total > threshold {
			return true
		}
	}
	return false
}
