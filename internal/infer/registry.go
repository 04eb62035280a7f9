package infer

import (
	"fmt"
	"sync"
)

// ParseFunc tests a trimmed, cleaned cell value against one candidate type.
// It returns the normalized value on success, or ok=false with a reason
// constant on failure. Parse functions are pure and safe for concurrent use.
type ParseFunc func(raw string) (value any, ok bool, reason string)

// CandidateType is one hypothesis tested against a column's values.
// Registered once at init time; the registry is read-only afterwards.
type CandidateType struct {
	Kind Kind

	// Parse validates a single cell. Nil for KindCategory, whose conformance
	// is stateful (distinct-value tracking) and handled by the accumulator,
	// and for KindString, which matches everything.
	Parse ParseFunc

	// Priority orders candidates most-restrictive first. Lower wins ties.
	Priority int
}

var (
	registry   = make(map[Kind]CandidateType)
	byPriority []CandidateType
	registryMu sync.RWMutex
)

// Register adds a candidate type to the process-wide registry.
// Panics if the kind is already registered. Call from init only; the
// registry must not change once scans are running.
func Register(ct CandidateType) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[ct.Kind]; exists {
		panic(fmt.Sprintf("candidate type already registered: %s", ct.Kind))
	}

	registry[ct.Kind] = ct

	byPriority = append(byPriority, ct)
	for i := len(byPriority) - 1; i > 0 && byPriority[i].Priority < byPriority[i-1].Priority; i-- {
		byPriority[i], byPriority[i-1] = byPriority[i-1], byPriority[i]
	}
}

// Lookup returns a candidate type by kind.
func Lookup(kind Kind) (CandidateType, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ct, ok := registry[kind]
	return ct, ok
}

// Candidates returns all registered candidate types, most restrictive first.
func Candidates() []CandidateType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]CandidateType, len(byPriority))
	copy(out, byPriority)
	return out
}

// KnownKind reports whether kind is present in the registry.
func KnownKind(kind Kind) bool {
	_, ok := Lookup(kind)
	return ok
}
