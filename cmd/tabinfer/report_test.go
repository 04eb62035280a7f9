package main

import (
	"strings"
	"testing"

	"tabinfer/internal/infer"
)

func sampleInference() *infer.DatasetInference {
	return &infer.DatasetInference{
		Meta: infer.ScanMeta{Rows: 3, Batches: 2, RowAnomalies: 1},
		Columns: []infer.ColumnInference{
			{
				Column:   "age",
				Inferred: infer.KindInt8,
				Missing:  1,
				Stats: map[infer.Kind]*infer.TypeStats{
					infer.KindInt8: {Kind: infer.KindInt8, Matches: 2, Exceptions: 1,
						Samples: []infer.CellException{{Row: 2, Column: "age", Kind: infer.KindInt8, Raw: "abc", Reason: infer.ReasonWrongFormat}}},
				},
			},
			{
				Column:   "status",
				Inferred: infer.KindCategory,
				Stats: map[infer.Kind]*infer.TypeStats{
					infer.KindCategory: {Kind: infer.KindCategory, Matches: 3},
				},
				Category: []string{"active", "inactive"},
			},
		},
	}
}

func TestRenderInference(t *testing.T) {
	out := renderInference(sampleInference())

	for _, want := range []string{"age", "int8", "status", "category", "2 values", "3 rows in 2 batches", "1 row anomalies"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderInferencePartial(t *testing.T) {
	di := sampleInference()
	di.Meta.Partial = true
	if out := renderInference(di); !strings.Contains(out, "(partial)") {
		t.Errorf("partial marker missing:\n%s", out)
	}
}

func TestRenderExceptions(t *testing.T) {
	out := renderExceptions(sampleInference())
	for _, want := range []string{"abc", infer.ReasonWrongFormat} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	clean := &infer.DatasetInference{Columns: []infer.ColumnInference{{Column: "a", Inferred: infer.KindString}}}
	if out := renderExceptions(clean); !strings.Contains(out, "no exceptions") {
		t.Errorf("clean dataset output = %q", out)
	}
}

func TestRenderSchema(t *testing.T) {
	schema := &infer.EffectiveSchema{
		Columns: []infer.ColumnDecision{
			{Column: "age", Kind: infer.KindString, Source: infer.SourcePreference},
			{Column: "status", Kind: infer.KindCategory, Source: infer.SourceInferred,
				Warning: `preferred type "bool" has 3 exceptions, threshold is 0`},
		},
		Partial: true,
	}
	out := renderSchema(schema)

	for _, want := range []string{"preference", "inferred", "threshold is 0", "partial scan"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableAlignment(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignRight})
	if out == "" {
		t.Fatal("empty table output")
	}
	if !strings.Contains(out, "1") || !strings.Contains(out, "3") {
		t.Errorf("table missing cells:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("zero-column table should render empty")
	}
}
