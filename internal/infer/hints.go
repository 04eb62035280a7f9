package infer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHints marks configuration errors detected before a scan starts.
var ErrInvalidHints = errors.New("invalid schema hints")

// DefaultMaxCategories caps the distinct values a categorical candidate may
// accumulate when the caller does not say otherwise.
const DefaultMaxCategories = 100

// Hints are the per-run schema hints supplied by the caller. The zero value
// is usable after Validate: no NA values and the default category cap.
type Hints struct {
	// NAValues are strings treated as missing. Comparison is against the
	// trimmed cell value. The empty string is always missing.
	NAValues []string `json:"na_values"`

	// MaxCategories caps distinct values per categorical column. Once a
	// column would exceed the cap, the categorical candidate is disqualified
	// for the rest of the scan; prior matches stand.
	MaxCategories int `json:"max_categories"`

	naSet map[string]struct{}
}

// Validate checks the hints and prepares them for use. Must be called before
// a scan begins; violations are configuration errors, never scan errors.
func (h *Hints) Validate() error {
	if h.MaxCategories == 0 {
		h.MaxCategories = DefaultMaxCategories
	}
	if h.MaxCategories < 0 {
		return fmt.Errorf("%w: max_categories must be positive, got %d", ErrInvalidHints, h.MaxCategories)
	}
	h.naSet = make(map[string]struct{}, len(h.NAValues))
	for _, v := range h.NAValues {
		h.naSet[strings.TrimSpace(v)] = struct{}{}
	}
	return nil
}

// IsMissing reports whether a trimmed cell value is treated as missing.
// Missing values are excluded from both match and exception counts.
func (h *Hints) IsMissing(trimmed string) bool {
	if trimmed == "" {
		return true
	}
	_, ok := h.naSet[trimmed]
	return ok
}
