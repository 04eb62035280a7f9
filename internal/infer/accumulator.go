package infer

// accumulator.go implements per-column streaming statistics. One accumulator
// owns one column for the duration of a scan; it is not safe for concurrent
// use, but distinct accumulators never share state, so columns can be
// processed in parallel.

import "sort"

type typeCounter struct {
	matches    int64
	exceptions int64
}

// ColumnStatsAccumulator streams cell values for one column and accumulates
// per-candidate-type conformance counts. Batches must be applied in arrival
// order; counts are batch-size invariant, exception sampling is "first K
// observed".
type ColumnStatsAccumulator struct {
	column    string
	position  int
	hints     *Hints
	tolerance float64
	shard     *ledgerShard

	candidates []CandidateType

	rowsSeen int64
	missing  int64
	counts   map[Kind]*typeCounter

	catValues       map[string]struct{}
	catDisqualified bool

	partial bool
}

// NewColumnStatsAccumulator creates an accumulator for one column. The shard
// must belong to the same column and be owned by the same goroutine.
func NewColumnStatsAccumulator(column string, position int, hints *Hints, tolerance float64, shard *ledgerShard) *ColumnStatsAccumulator {
	candidates := Candidates()
	counts := make(map[Kind]*typeCounter, len(candidates))
	for _, ct := range candidates {
		counts[ct.Kind] = &typeCounter{}
	}
	return &ColumnStatsAccumulator{
		column:     column,
		position:   position,
		hints:      hints,
		tolerance:  tolerance,
		shard:      shard,
		candidates: candidates,
		counts:     counts,
		catValues:  make(map[string]struct{}),
	}
}

// Add accumulates one batch of raw values. startRow is the absolute row
// index of the first value, used for exception positions.
func (a *ColumnStatsAccumulator) Add(batch []string, startRow int64) {
	for i, raw := range batch {
		row := startRow + int64(i)
		a.rowsSeen++

		cell := CleanCell(raw)
		if a.hints.IsMissing(cell) {
			a.missing++
			continue
		}

		for _, ct := range a.candidates {
			switch ct.Kind {
			case KindString:
				a.counts[KindString].matches++
			case KindCategory:
				a.addCategory(cell)
			default:
				if _, ok, reason := ct.Parse(cell); ok {
					a.counts[ct.Kind].matches++
				} else {
					a.counts[ct.Kind].exceptions++
					a.shard.record(CellException{
						Row:    row,
						Column: a.column,
						Kind:   ct.Kind,
						Raw:    raw,
						Reason: reason,
					})
				}
			}
		}
	}
}

// addCategory tracks distinct-value cardinality. Exceeding the cap does not
// retroactively convert prior matches: the candidate is disqualified going
// forward and the triggering value and everything after is simply skipped.
func (a *ColumnStatsAccumulator) addCategory(cell string) {
	if a.catDisqualified {
		return
	}
	if _, seen := a.catValues[cell]; seen {
		a.counts[KindCategory].matches++
		return
	}
	if len(a.catValues) >= a.hints.MaxCategories {
		a.catDisqualified = true
		return
	}
	a.catValues[cell] = struct{}{}
	a.counts[KindCategory].matches++
}

// markPartial flags the next finalized snapshot as coming from a cancelled
// scan. The accumulated counts stay valid.
func (a *ColumnStatsAccumulator) markPartial() {
	a.partial = true
}

// Finalize returns a frozen snapshot of the column's inference. It is
// idempotent: calling it again without further accumulation returns an
// identical value, and it never resets the accumulator.
func (a *ColumnStatsAccumulator) Finalize() ColumnInference {
	stats := make(map[Kind]*TypeStats, len(a.counts))
	for kind, c := range a.counts {
		st := &TypeStats{
			Kind:       kind,
			Matches:    c.matches,
			Exceptions: c.exceptions,
		}
		if kind == KindCategory {
			st.Disqualified = a.catDisqualified
		}
		if samples := a.shard.samplesFor(kind); len(samples) > 0 {
			st.Samples = samples
		}
		stats[kind] = st
	}

	inf := ColumnInference{
		Column:   a.column,
		Position: a.position,
		Stats:    stats,
		Inferred: a.bestFit(),
		RowsSeen: a.rowsSeen,
		Missing:  a.missing,
		Partial:  a.partial,
	}
	if !a.catDisqualified && len(a.catValues) > 0 {
		inf.Category = make([]string, 0, len(a.catValues))
		for v := range a.catValues {
			inf.Category = append(inf.Category, v)
		}
		sort.Strings(inf.Category)
	}
	return inf
}

// bestFit picks the parsing candidate with the fewest exceptions among those
// whose exception ratio is within tolerance, ties broken by priority (most
// restrictive first). Category and string conform to nearly everything, so
// they are fallbacks, not competitors: category applies only when no parsing
// candidate qualifies, string only when category is disqualified too.
// Candidates that matched nothing carry no signal and are skipped.
func (a *ColumnStatsAccumulator) bestFit() Kind {
	best := Kind("")
	bestExceptions := int64(-1)

	for _, ct := range a.candidates {
		if ct.Kind == KindString || ct.Kind == KindCategory {
			continue
		}
		c := a.counts[ct.Kind]
		if c.matches == 0 {
			continue
		}
		considered := c.matches + c.exceptions
		if float64(c.exceptions) > a.tolerance*float64(considered) {
			continue
		}
		if bestExceptions < 0 || c.exceptions < bestExceptions {
			best = ct.Kind
			bestExceptions = c.exceptions
		}
	}

	if best != "" {
		return best
	}
	if !a.catDisqualified && a.counts[KindCategory].matches > 0 {
		return KindCategory
	}
	return KindString
}

// samplesFor copies the bounded sample for one kind. Called by the shard's
// owning goroutine only.
func (s *ledgerShard) samplesFor(kind Kind) []CellException {
	b, ok := s.buckets[kind]
	if !ok || len(b.samples) == 0 {
		return nil
	}
	out := make([]CellException, len(b.samples))
	copy(out, b.samples)
	return out
}
