package infer

import (
	"reflect"
	"strings"
	"testing"
)

// inferenceFixture builds a two-column result: "age" is integral with one
// stray value, "status" is a clean small category.
func inferenceFixture() *DatasetInference {
	return &DatasetInference{
		Meta: ScanMeta{DatasetID: "ds1", Rows: 3},
		Columns: []ColumnInference{
			{
				Column:   "age",
				Inferred: KindInt8,
				RowsSeen: 3,
				Stats: map[Kind]*TypeStats{
					KindInt8: {Kind: KindInt8, Matches: 2, Exceptions: 1,
						Samples: []CellException{{Row: 2, Column: "age", Kind: KindInt8, Raw: "abc", Reason: ReasonWrongFormat}}},
					KindString: {Kind: KindString, Matches: 3},
				},
			},
			{
				Column:   "status",
				Inferred: KindCategory,
				RowsSeen: 3,
				Stats: map[Kind]*TypeStats{
					KindCategory: {Kind: KindCategory, Matches: 3},
					KindString:   {Kind: KindString, Matches: 3},
				},
				Category: []string{"active", "inactive"},
			},
		},
	}
}

func TestReconcileNoPreferences(t *testing.T) {
	es := Reconcile(inferenceFixture(), nil)

	if es.DatasetID != "ds1" {
		t.Errorf("DatasetID = %q, want ds1", es.DatasetID)
	}
	if len(es.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(es.Columns))
	}
	age := es.Columns[0]
	if age.Kind != KindInt8 || age.Source != SourceInferred {
		t.Errorf("age decision = %s/%s, want int8/inferred", age.Kind, age.Source)
	}
	if age.ExceptionCount != 1 || len(age.Exceptions) != 1 {
		t.Errorf("age exceptions = %d count, %d samples, want 1/1", age.ExceptionCount, len(age.Exceptions))
	}
}

func TestReconcilePreferenceWithinThreshold(t *testing.T) {
	settings := []PreferredTypeSetting{
		{DatasetID: "ds1", Column: "age", Kind: KindString, Threshold: 0},
	}
	es := Reconcile(inferenceFixture(), settings)

	age := es.Columns[0]
	if age.Kind != KindString || age.Source != SourcePreference {
		t.Errorf("age decision = %s/%s, want string/preference", age.Kind, age.Source)
	}
	if age.Warning != "" {
		t.Errorf("unexpected warning %q", age.Warning)
	}
	if age.ExceptionCount != 0 {
		t.Errorf("string exception count = %d, want 0", age.ExceptionCount)
	}
}

func TestReconcilePreferenceRejectedOverThreshold(t *testing.T) {
	settings := []PreferredTypeSetting{
		{DatasetID: "ds1", Column: "age", Kind: KindInt8, Threshold: 0},
	}
	es := Reconcile(inferenceFixture(), settings)

	age := es.Columns[0]
	if age.Source != SourceInferred {
		t.Errorf("source = %s, want fallback to inferred", age.Source)
	}
	if age.Warning == "" {
		t.Error("rejected preference must carry a warning")
	}
	if !strings.Contains(age.Warning, "1 exception") {
		t.Errorf("warning should name the exception count, got %q", age.Warning)
	}
}

func TestReconcilePreferenceAcceptedAtThreshold(t *testing.T) {
	settings := []PreferredTypeSetting{
		{DatasetID: "ds1", Column: "age", Kind: KindInt8, Threshold: 1},
	}
	es := Reconcile(inferenceFixture(), settings)

	age := es.Columns[0]
	if age.Kind != KindInt8 || age.Source != SourcePreference || age.Warning != "" {
		t.Errorf("decision = %s/%s warning=%q, want int8/preference accepted", age.Kind, age.Source, age.Warning)
	}
}

func TestReconcileUnknownKindRejected(t *testing.T) {
	settings := []PreferredTypeSetting{
		{DatasetID: "ds1", Column: "age", Kind: Kind("uuid"), Threshold: 100},
	}
	es := Reconcile(inferenceFixture(), settings)

	age := es.Columns[0]
	if age.Kind != KindInt8 || age.Source != SourceInferred {
		t.Errorf("decision = %s/%s, want inferred fallback", age.Kind, age.Source)
	}
	if !strings.Contains(age.Warning, "unknown") {
		t.Errorf("warning = %q, want unknown-type message", age.Warning)
	}
}

func TestReconcileDisqualifiedCategoryRejected(t *testing.T) {
	di := inferenceFixture()
	di.Columns[1].Stats[KindCategory].Disqualified = true
	di.Columns[1].Inferred = KindString

	settings := []PreferredTypeSetting{
		{DatasetID: "ds1", Column: "status", Kind: KindCategory, Threshold: 100},
	}
	es := Reconcile(di, settings)

	status := es.Columns[1]
	if status.Kind != KindString || status.Source != SourceInferred {
		t.Errorf("decision = %s/%s, want string/inferred", status.Kind, status.Source)
	}
	if !strings.Contains(status.Warning, "max_categories") {
		t.Errorf("warning = %q, want disqualification message", status.Warning)
	}
}

func TestReconcileIsPure(t *testing.T) {
	di := inferenceFixture()
	settings := []PreferredTypeSetting{
		{DatasetID: "ds1", Column: "age", Kind: KindString, Threshold: 0},
	}

	before := inferenceFixture()
	first := Reconcile(di, settings)
	second := Reconcile(di, settings)

	if !reflect.DeepEqual(first, second) {
		t.Error("same inputs produced different schemas")
	}
	if !reflect.DeepEqual(di, before) {
		t.Error("Reconcile mutated its input")
	}
}

func TestReconcilePartialPropagates(t *testing.T) {
	di := inferenceFixture()
	di.Meta.Partial = true
	if es := Reconcile(di, nil); !es.Partial {
		t.Error("partial flag should propagate to the effective schema")
	}
}
