package infer

import (
	"time"
)

// Kind identifies a candidate data type tested against a column's values.
type Kind string

const (
	KindBool     Kind = "bool"
	KindInt8     Kind = "int8"
	KindInt16    Kind = "int16"
	KindInt32    Kind = "int32"
	KindInt64    Kind = "int64"
	KindFloat32  Kind = "float32"
	KindFloat64  Kind = "float64"
	KindComplex  Kind = "complex"
	KindDuration Kind = "duration"
	KindDateMDY  Kind = "date_mdy"
	KindDateDMY  Kind = "date_dmy"
	KindDateYMD  Kind = "date_ymd"
	KindCategory Kind = "category"
	KindString   Kind = "string"
)

// Exception reasons recorded on non-conforming cells.
const (
	ReasonWrongFormat       = "wrong-format"
	ReasonOutOfRange        = "out-of-range"
	ReasonPrecisionLoss     = "precision-loss"
	ReasonTooManyCategories = "exceeds-max-categories"
)

// OutcomeStatus classifies the result of evaluating one cell against one
// candidate type.
type OutcomeStatus int

const (
	OutcomeMatch OutcomeStatus = iota
	OutcomeMissing
	OutcomeException
)

// Outcome is the result of a single cell evaluation. On a match, Value holds
// the normalized parse. On an exception, Reason holds the failure class.
type Outcome struct {
	Status OutcomeStatus
	Value  any
	Reason string
}

// CellException records a value that failed a candidate type's validation.
// Immutable once recorded; never aborts a scan.
type CellException struct {
	Row    int64  `json:"row"`
	Column string `json:"column"`
	Kind   Kind   `json:"kind"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// TypeStats holds per-candidate-type conformance counts for one column.
// Samples is a bounded first-K set; Exceptions is always the exact total.
type TypeStats struct {
	Kind         Kind            `json:"kind"`
	Matches      int64           `json:"matches"`
	Exceptions   int64           `json:"exceptions"`
	Samples      []CellException `json:"samples,omitempty"`
	Disqualified bool            `json:"disqualified,omitempty"`
}

// ColumnInference is the frozen per-column result of a scan. It is created
// once per finalize and never mutated in place; re-inference produces a new
// value wholesale.
type ColumnInference struct {
	Column   string               `json:"column"`
	Position int                  `json:"position"`
	Stats    map[Kind]*TypeStats  `json:"stats"`
	Inferred Kind                 `json:"inferred"`
	RowsSeen int64                `json:"rows_seen"`
	Missing  int64                `json:"missing"`
	Partial  bool                 `json:"partial,omitempty"`
	Category []string             `json:"category_values,omitempty"`
}

// Stat returns the stats for kind, or a zero value if the kind was never
// evaluated for this column.
func (c ColumnInference) Stat(kind Kind) TypeStats {
	if s, ok := c.Stats[kind]; ok {
		return *s
	}
	return TypeStats{Kind: kind}
}

// ScanMeta describes a single inference run.
type ScanMeta struct {
	ScanID       string        `json:"scan_id"`
	DatasetID    string        `json:"dataset_id,omitempty"`
	Rows         int64         `json:"rows"`
	Batches      int           `json:"batches"`
	RowAnomalies int64         `json:"row_anomalies"`
	Partial      bool          `json:"partial"`
	Duration     time.Duration `json:"duration_ns"`
}

// DatasetInference is the ordered per-column result of one inference run.
// It is owned exclusively by the run that produced it and superseded
// atomically by the next run; callers holding a reference keep a consistent
// snapshot.
type DatasetInference struct {
	Columns []ColumnInference `json:"columns"`
	Hints   Hints             `json:"hints"`
	Meta    ScanMeta          `json:"meta"`

	// Ledger exposes bounded per-cell exception queries for highlighting.
	// Not serialized; the bounded samples live in Stats.
	Ledger *ExceptionLedger `json:"-"`
}

// Column returns the inference for the named column, if present.
func (d *DatasetInference) Column(name string) (ColumnInference, bool) {
	for _, c := range d.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return ColumnInference{}, false
}

// PreferredTypeSetting is a user-chosen type for one column plus the maximum
// exception count the user accepts before the preference is rejected.
// Settings are persisted independently of inference runs and survive
// re-inference.
type PreferredTypeSetting struct {
	DatasetID string `json:"dataset_id"`
	Column    string `json:"column"`
	Kind      Kind   `json:"kind"`
	Threshold int64  `json:"threshold"`
}

// DecisionSource says where a column's effective type came from.
type DecisionSource string

const (
	SourceInferred   DecisionSource = "inferred"
	SourcePreference DecisionSource = "preference"
)

// ColumnDecision is the reconciled type decision for one column. Warning is
// non-empty when a user preference was rejected and the automated best-fit
// was used instead.
type ColumnDecision struct {
	Column         string          `json:"column"`
	Kind           Kind            `json:"kind"`
	Source         DecisionSource  `json:"source"`
	Warning        string          `json:"warning,omitempty"`
	ExceptionCount int64           `json:"exception_count"`
	Exceptions     []CellException `json:"exceptions,omitempty"`
}

// EffectiveSchema is the final per-column type set after merging automated
// inference with user preferences.
type EffectiveSchema struct {
	DatasetID string           `json:"dataset_id,omitempty"`
	Columns   []ColumnDecision `json:"columns"`
	Partial   bool             `json:"partial,omitempty"`
}
