package infer

// evaluate.go implements the per-cell conformance checks behind type
// inference. Each candidate type gets a pure parse function that handles the
// messy reality of user-provided CSV data:
//
//   - Multiple date formats and orderings (MDY, DMY, YMD)
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Width-tiered integers with explicit range checks
//   - float32 significant-digit limits
//   - Excel formula prefixes (="value") and stray quotes
//
// No parse function ever panics on data; a non-conforming value yields an
// exception reason, never an error.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a plain numeric format.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted. Years that
// would land more than this many years in the future are assumed to be in
// the previous century.
var TwoDigitYearPivot = 20

// Date layouts per ordering, split by year format for pivot handling.
// A time-of-day suffix is tried for every four-digit layout.
var (
	mdyFourDigit = []string{"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006"}
	mdyTwoDigit  = []string{"1/2/06", "01/02/06", "1-2-06", "1.2.06"}
	dmyFourDigit = []string{"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006"}
	dmyTwoDigit  = []string{"2/1/06", "02/01/06", "2-1-06", "2.1.06"}
	ymdFourDigit = []string{"2006/1/2", "2006/01/02", "2006-1-2", "2006-01-02", "2006.01.02"}

	timeSuffixes = []string{" 15:04:05", " 15:04", "T15:04:05"}
)

func init() {
	Register(CandidateType{Kind: KindBool, Parse: parseBool, Priority: 0})
	Register(CandidateType{Kind: KindInt8, Parse: parseIntFunc(8), Priority: 1})
	Register(CandidateType{Kind: KindInt16, Parse: parseIntFunc(16), Priority: 2})
	Register(CandidateType{Kind: KindInt32, Parse: parseIntFunc(32), Priority: 3})
	Register(CandidateType{Kind: KindInt64, Parse: parseIntFunc(64), Priority: 4})
	Register(CandidateType{Kind: KindFloat32, Parse: parseFloat32, Priority: 5})
	Register(CandidateType{Kind: KindFloat64, Parse: parseFloat64, Priority: 6})
	Register(CandidateType{Kind: KindComplex, Parse: parseComplex, Priority: 7})
	Register(CandidateType{Kind: KindDuration, Parse: parseDuration, Priority: 8})
	Register(CandidateType{Kind: KindDateMDY, Parse: parseDateFunc(mdyFourDigit, mdyTwoDigit), Priority: 9})
	Register(CandidateType{Kind: KindDateDMY, Parse: parseDateFunc(dmyFourDigit, dmyTwoDigit), Priority: 10})
	Register(CandidateType{Kind: KindDateYMD, Parse: parseDateFunc(ymdFourDigit, nil), Priority: 11})
	Register(CandidateType{Kind: KindCategory, Priority: 12})
	Register(CandidateType{Kind: KindString, Priority: 13})
}

// Evaluate tests one raw cell value against one candidate type. It is pure
// and safe to invoke concurrently for different cells.
//
// Empty strings and configured NA values are never exceptions: they are
// classified missing and excluded from both match and exception counts.
// Candidate types without a parse function (string, category) conform to
// every non-missing value; categorical cardinality is enforced by the
// accumulator, which owns the per-column distinct-value state.
func Evaluate(raw string, ct CandidateType, hints *Hints) Outcome {
	cell := CleanCell(raw)
	if hints.IsMissing(cell) {
		return Outcome{Status: OutcomeMissing}
	}
	if ct.Parse == nil {
		return Outcome{Status: OutcomeMatch, Value: cell}
	}
	v, ok, reason := ct.Parse(cell)
	if !ok {
		return Outcome{Status: OutcomeException, Reason: reason}
	}
	return Outcome{Status: OutcomeMatch, Value: v}
}

// CleanCell removes common CSV artifacts from a cell value:
// trims whitespace, removes the Excel formula prefix (="..."), and strips
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// parseBool accepts the usual textual representations, case-insensitive.
func parseBool(cell string) (any, bool, string) {
	switch strings.ToLower(cell) {
	case "true", "t", "yes", "y", "1":
		return true, true, ""
	case "false", "f", "no", "n", "0":
		return false, true, ""
	default:
		return nil, false, ReasonWrongFormat
	}
}

// parseIntFunc returns a parser for a signed integer of the given bit width.
// Decimal values with a zero fractional part conform ("3.0" is an int);
// values outside the width's range are out-of-range exceptions, not panics.
func parseIntFunc(bits int) ParseFunc {
	min := int64(-1) << (bits - 1)
	max := int64(1)<<(bits-1) - 1

	return func(cell string) (any, bool, string) {
		if i, err := strconv.ParseInt(cell, 10, bits); err == nil {
			return i, true, ""
		} else if numErr, isNum := err.(*strconv.NumError); isNum && numErr.Err == strconv.ErrRange {
			return nil, false, ReasonOutOfRange
		}

		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false, ReasonWrongFormat
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, false, ReasonWrongFormat
		}
		if f < float64(min) || f > float64(max) {
			return nil, false, ReasonOutOfRange
		}
		return int64(f), true, ""
	}
}

// parseFloat32 conforms when the value fits a float32 without losing
// precision: at most 6 significant digits and within range.
func parseFloat32(cell string) (any, bool, string) {
	if !numericRegex.MatchString(cell) {
		return nil, false, ReasonWrongFormat
	}
	if significantDigits(cell) > 6 {
		return nil, false, ReasonPrecisionLoss
	}
	f, err := strconv.ParseFloat(cell, 32)
	if err != nil {
		if numErr, isNum := err.(*strconv.NumError); isNum && numErr.Err == strconv.ErrRange {
			return nil, false, ReasonOutOfRange
		}
		return nil, false, ReasonWrongFormat
	}
	return float32(f), true, ""
}

func parseFloat64(cell string) (any, bool, string) {
	if !numericRegex.MatchString(cell) {
		return nil, false, ReasonWrongFormat
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		if numErr, isNum := err.(*strconv.NumError); isNum && numErr.Err == strconv.ErrRange {
			return nil, false, ReasonOutOfRange
		}
		return nil, false, ReasonWrongFormat
	}
	return f, true, ""
}

// parseComplex accepts Go complex syntax ("3+4i") and the "j" suffix form
// ("3+4j") common in exported scientific data. Plain numerics also conform.
func parseComplex(cell string) (any, bool, string) {
	if c, err := strconv.ParseComplex(cell, 128); err == nil {
		return c, true, ""
	}
	if strings.ContainsAny(cell, "jJ") {
		swapped := strings.Map(func(r rune) rune {
			if r == 'j' || r == 'J' {
				return 'i'
			}
			return r
		}, cell)
		if c, err := strconv.ParseComplex(swapped, 128); err == nil {
			return c, true, ""
		}
	}
	return nil, false, ReasonWrongFormat
}

// parseDuration accepts Go duration syntax ("1h30m"), clock notation
// ("01:30:00"), and day counts ("3 days", "1 day 02:15:00"). Plain numbers
// never conform; a bare "42" is not a duration.
func parseDuration(cell string) (any, bool, string) {
	if numericRegex.MatchString(cell) {
		return nil, false, ReasonWrongFormat
	}

	if d, err := time.ParseDuration(cell); err == nil {
		return d, true, ""
	}

	rest := cell
	var days int64
	if fields := strings.Fields(cell); len(fields) >= 2 {
		unit := strings.ToLower(fields[1])
		if unit == "day" || unit == "days" {
			n, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return nil, false, ReasonWrongFormat
			}
			days = n
			rest = strings.Join(fields[2:], " ")
			if rest == "" {
				return time.Duration(days) * 24 * time.Hour, true, ""
			}
		}
	}

	d, ok := parseClock(rest)
	if !ok {
		return nil, false, ReasonWrongFormat
	}
	return time.Duration(days)*24*time.Hour + d, true, ""
}

// parseClock parses "HH:MM" or "HH:MM:SS[.fff]" into a duration.
func parseClock(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || h < 0 {
		return 0, false
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	if len(parts) == 3 {
		sec, err := strconv.ParseFloat(parts[2], 64)
		if err != nil || sec < 0 || sec >= 60 {
			return 0, false
		}
		d += time.Duration(sec * float64(time.Second))
	}
	return d, true
}

// parseDateFunc returns a parser for one date ordering. Four-digit-year
// layouts are tried first (unambiguous), then two-digit-year layouts with a
// pivot adjustment. Plain numbers never conform to a date.
func parseDateFunc(fourDigit, twoDigit []string) ParseFunc {
	return func(cell string) (any, bool, string) {
		if numericRegex.MatchString(cell) {
			return nil, false, ReasonWrongFormat
		}

		for _, layout := range fourDigit {
			if t, err := time.Parse(layout, cell); err == nil {
				return t, true, ""
			}
			for _, suffix := range timeSuffixes {
				if t, err := time.Parse(layout+suffix, cell); err == nil {
					return t, true, ""
				}
			}
		}

		pivotYear := time.Now().Year() + TwoDigitYearPivot
		for _, layout := range twoDigit {
			if t, err := time.Parse(layout, cell); err == nil {
				if t.Year() > pivotYear {
					t = t.AddDate(-100, 0, 0)
				}
				return t, true, ""
			}
		}

		return nil, false, ReasonWrongFormat
	}
}

// significantDigits counts the significant digits in a numeric string,
// ignoring the decimal point, the exponent, and leading/trailing zeros.
func significantDigits(s string) int {
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimLeft(s, "+-")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Trim(s, "0")
	if s == "" {
		return 1
	}
	return len(s)
}
