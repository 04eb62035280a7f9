package infer

// reconcile.go merges automated inference results with user-supplied
// preferred types. Reconcile is a pure function of its two inputs: the same
// DatasetInference and settings always yield the same EffectiveSchema, so
// callers can recompute it whenever either side changes independently —
// a threshold edit without a rescan, or a rescan without touching
// preferences — and cache the result safely.

import "fmt"

// Reconcile produces the effective schema for a dataset. For each column a
// preference applies only when its exception count is within the user's
// threshold; otherwise the automated best fit is used and the decision
// carries a warning marker. A rejected preference is never a hard failure.
func Reconcile(di *DatasetInference, settings []PreferredTypeSetting) EffectiveSchema {
	byColumn := make(map[string]PreferredTypeSetting, len(settings))
	for _, s := range settings {
		byColumn[s.Column] = s
	}

	es := EffectiveSchema{
		DatasetID: di.Meta.DatasetID,
		Columns:   make([]ColumnDecision, len(di.Columns)),
		Partial:   di.Meta.Partial,
	}

	for i, col := range di.Columns {
		pref, hasPref := byColumn[col.Column]
		if !hasPref {
			es.Columns[i] = decide(col, col.Inferred, SourceInferred, "")
			continue
		}

		if warning := rejectPreference(col, pref); warning != "" {
			es.Columns[i] = decide(col, col.Inferred, SourceInferred, warning)
			continue
		}
		es.Columns[i] = decide(col, pref.Kind, SourcePreference, "")
	}

	return es
}

// rejectPreference returns a non-empty warning when the preference cannot be
// honored. The effective schema never references a kind absent from the
// candidate registry.
func rejectPreference(col ColumnInference, pref PreferredTypeSetting) string {
	if !KnownKind(pref.Kind) {
		return fmt.Sprintf("unknown preferred type %q", pref.Kind)
	}
	st := col.Stat(pref.Kind)
	if st.Disqualified {
		return fmt.Sprintf("preferred type %q disqualified: column exceeds max_categories", pref.Kind)
	}
	if st.Exceptions > pref.Threshold {
		return fmt.Sprintf("preferred type %q has %d exceptions, threshold is %d",
			pref.Kind, st.Exceptions, pref.Threshold)
	}
	return ""
}

// decide builds one column decision, surfacing the decided kind's exact
// exception count and its bounded sample set for highlighting.
func decide(col ColumnInference, kind Kind, source DecisionSource, warning string) ColumnDecision {
	st := col.Stat(kind)
	return ColumnDecision{
		Column:         col.Column,
		Kind:           kind,
		Source:         source,
		Warning:        warning,
		ExceptionCount: st.Exceptions,
		Exceptions:     st.Samples,
	}
}
