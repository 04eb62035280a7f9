package main

import (
	"fmt"
	"strings"

	"tabinfer/internal/infer"
)

// renderInference formats a dataset inference as a per-column summary table
// followed by a one-line scan footer.
func renderInference(di *infer.DatasetInference) string {
	headers := []string{"COLUMN", "INFERRED", "MATCHES", "EXCEPTIONS", "MISSING", "DETAIL"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(di.Columns))
	for _, col := range di.Columns {
		st := col.Stat(col.Inferred)
		detail := ""
		if col.Inferred == infer.KindCategory && len(col.Category) > 0 {
			detail = fmt.Sprintf("%d values", len(col.Category))
		}
		rows = append(rows, []string{
			col.Column,
			string(col.Inferred),
			fmt.Sprint(st.Matches),
			fmt.Sprint(st.Exceptions),
			fmt.Sprint(col.Missing),
			detail,
		})
	}

	var b strings.Builder
	b.WriteString(renderTable(headers, rows, aligns))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%d rows in %d batches", di.Meta.Rows, di.Meta.Batches)
	if di.Meta.RowAnomalies > 0 {
		fmt.Fprintf(&b, ", %d row anomalies", di.Meta.RowAnomalies)
	}
	if di.Meta.Partial {
		b.WriteString(" (partial)")
	}
	b.WriteByte('\n')
	return b.String()
}

// renderExceptions lists the recorded exception samples per column against
// the column's inferred type.
func renderExceptions(di *infer.DatasetInference) string {
	headers := []string{"COLUMN", "ROW", "VALUE", "REASON"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}

	var rows [][]string
	for _, col := range di.Columns {
		for _, exc := range col.Stat(col.Inferred).Samples {
			rows = append(rows, []string{
				col.Column,
				fmt.Sprint(exc.Row),
				exc.Raw,
				exc.Reason,
			})
		}
	}
	if len(rows) == 0 {
		return "no exceptions recorded against the inferred types\n"
	}
	return renderTable(headers, rows, aligns) + "\n"
}

// renderSchema formats an effective schema, marking each column's decision
// source and any preference-rejection warnings.
func renderSchema(schema *infer.EffectiveSchema) string {
	headers := []string{"COLUMN", "TYPE", "SOURCE", "EXCEPTIONS", "WARNING"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}

	rows := make([][]string, 0, len(schema.Columns))
	for _, d := range schema.Columns {
		rows = append(rows, []string{
			d.Column,
			string(d.Kind),
			string(d.Source),
			fmt.Sprint(d.ExceptionCount),
			d.Warning,
		})
	}

	out := renderTable(headers, rows, aligns) + "\n"
	if schema.Partial {
		out += "schema is based on a partial scan\n"
	}
	return out
}
