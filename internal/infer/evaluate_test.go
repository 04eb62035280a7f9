package infer

import (
	"testing"
	"time"
)

func mustLookup(t *testing.T, kind Kind) CandidateType {
	t.Helper()
	ct, ok := Lookup(kind)
	if !ok {
		t.Fatalf("candidate type %q not registered", kind)
	}
	return ct
}

func defaultHints(t *testing.T) *Hints {
	t.Helper()
	h := Hints{NAValues: []string{"NA", "N/A", "null"}}
	if err := h.Validate(); err != nil {
		t.Fatalf("validate hints: %v", err)
	}
	return &h
}

func TestEvaluateStatus(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		raw    string
		status OutcomeStatus
		reason string
	}{
		// missing values are never exceptions
		{"empty is missing", KindInt64, "", OutcomeMissing, ""},
		{"whitespace is missing", KindInt64, "   ", OutcomeMissing, ""},
		{"NA token is missing", KindFloat64, "NA", OutcomeMissing, ""},
		{"null token is missing", KindBool, "null", OutcomeMissing, ""},

		// bool
		{"bool yes", KindBool, "yes", OutcomeMatch, ""},
		{"bool uppercase", KindBool, "TRUE", OutcomeMatch, ""},
		{"bool zero", KindBool, "0", OutcomeMatch, ""},
		{"bool reject word", KindBool, "maybe", OutcomeException, ReasonWrongFormat},
		{"bool reject number", KindBool, "2", OutcomeException, ReasonWrongFormat},

		// integer widths
		{"int8 max", KindInt8, "127", OutcomeMatch, ""},
		{"int8 overflow", KindInt8, "128", OutcomeException, ReasonOutOfRange},
		{"int8 min", KindInt8, "-128", OutcomeMatch, ""},
		{"int8 underflow", KindInt8, "-129", OutcomeException, ReasonOutOfRange},
		{"int16 overflow", KindInt16, "40000", OutcomeException, ReasonOutOfRange},
		{"int32 in range", KindInt32, "2147483647", OutcomeMatch, ""},
		{"int32 overflow", KindInt32, "2147483648", OutcomeException, ReasonOutOfRange},
		{"int64 big", KindInt64, "9223372036854775807", OutcomeMatch, ""},
		{"int accepts zero fraction", KindInt64, "3.0", OutcomeMatch, ""},
		{"int rejects fraction", KindInt64, "3.5", OutcomeException, ReasonWrongFormat},
		{"int rejects text", KindInt64, "abc", OutcomeException, ReasonWrongFormat},

		// floats
		{"float32 six sig digits", KindFloat32, "3.14159", OutcomeMatch, ""},
		{"float32 seven sig digits", KindFloat32, "3.141592", OutcomeException, ReasonPrecisionLoss},
		{"float32 trailing zeros ignored", KindFloat32, "1200000", OutcomeMatch, ""},
		{"float32 rejects text", KindFloat32, "pi", OutcomeException, ReasonWrongFormat},
		{"float64 scientific", KindFloat64, "6.022e23", OutcomeMatch, ""},
		{"float64 rejects mixed", KindFloat64, "12abc", OutcomeException, ReasonWrongFormat},

		// complex
		{"complex go syntax", KindComplex, "3+4i", OutcomeMatch, ""},
		{"complex j suffix", KindComplex, "3+4j", OutcomeMatch, ""},
		{"complex plain number", KindComplex, "42", OutcomeMatch, ""},
		{"complex rejects text", KindComplex, "foo", OutcomeException, ReasonWrongFormat},

		// duration
		{"duration go syntax", KindDuration, "1h30m", OutcomeMatch, ""},
		{"duration clock", KindDuration, "01:30:00", OutcomeMatch, ""},
		{"duration days", KindDuration, "3 days", OutcomeMatch, ""},
		{"duration day plus clock", KindDuration, "1 day 02:15:00", OutcomeMatch, ""},
		{"duration rejects bare number", KindDuration, "42", OutcomeException, ReasonWrongFormat},
		{"duration rejects decimal", KindDuration, "4.2", OutcomeException, ReasonWrongFormat},

		// dates
		{"mdy slash", KindDateMDY, "12/31/2024", OutcomeMatch, ""},
		{"mdy rejects day first", KindDateMDY, "31/12/2024", OutcomeException, ReasonWrongFormat},
		{"dmy slash", KindDateDMY, "31/12/2024", OutcomeMatch, ""},
		{"ymd dash", KindDateYMD, "2024-12-31", OutcomeMatch, ""},
		{"ymd with time", KindDateYMD, "2024-12-31 23:59:59", OutcomeMatch, ""},
		{"date rejects bare number", KindDateYMD, "20241231", OutcomeException, ReasonWrongFormat},

		// fallback kinds match everything non-missing
		{"string matches anything", KindString, "!@#$%", OutcomeMatch, ""},
		{"category matches anything", KindCategory, "red", OutcomeMatch, ""},
	}

	hints := defaultHints(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Evaluate(tt.raw, mustLookup(t, tt.kind), hints)
			if out.Status != tt.status {
				t.Fatalf("Evaluate(%q, %s) status = %v, want %v", tt.raw, tt.kind, out.Status, tt.status)
			}
			if out.Reason != tt.reason {
				t.Errorf("Evaluate(%q, %s) reason = %q, want %q", tt.raw, tt.kind, out.Reason, tt.reason)
			}
		})
	}
}

func TestEvaluateAmbiguousDate(t *testing.T) {
	// 01/02/2024 is valid under both MDY and DMY; each ordering parses it
	// by its own convention.
	hints := defaultHints(t)

	mdy := Evaluate("01/02/2024", mustLookup(t, KindDateMDY), hints)
	if mdy.Status != OutcomeMatch {
		t.Fatalf("MDY should match: %+v", mdy)
	}
	if d := mdy.Value.(time.Time); d.Month() != time.January || d.Day() != 2 {
		t.Errorf("MDY parsed %v, want January 2", d)
	}

	dmy := Evaluate("01/02/2024", mustLookup(t, KindDateDMY), hints)
	if dmy.Status != OutcomeMatch {
		t.Fatalf("DMY should match: %+v", dmy)
	}
	if d := dmy.Value.(time.Time); d.Month() != time.February || d.Day() != 1 {
		t.Errorf("DMY parsed %v, want February 1", d)
	}
}

func TestEvaluateTwoDigitYearPivot(t *testing.T) {
	hints := defaultHints(t)
	out := Evaluate("1/2/99", mustLookup(t, KindDateMDY), hints)
	if out.Status != OutcomeMatch {
		t.Fatalf("two-digit year should match: %+v", out)
	}
	if y := out.Value.(time.Time).Year(); y != 1999 {
		t.Errorf("pivot year = %d, want 1999", y)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"surrounding spaces", "  42  ", "42"},
		{"excel formula prefix", `="000123"`, "000123"},
		{"bare equals prefix", "=42", "42"},
		{"double quotes", `"quoted"`, "quoted"},
		{"single quotes", "'quoted'", "quoted"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCustomNAValues(t *testing.T) {
	h := Hints{NAValues: []string{"-", "missing"}}
	if err := h.Validate(); err != nil {
		t.Fatalf("validate hints: %v", err)
	}

	if out := Evaluate("-", mustLookup(t, KindInt64), &h); out.Status != OutcomeMissing {
		t.Errorf("custom NA value should be missing, got %+v", out)
	}
	// Default tokens are not special once overridden.
	if out := Evaluate("NA", mustLookup(t, KindInt64), &h); out.Status != OutcomeException {
		t.Errorf("non-configured token should be an exception, got %+v", out)
	}
}

func TestSignificantDigits(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"3.14159", 6},
		{"3.141592", 7},
		{"1200000", 2},
		{"0.00042", 2},
		{"1.5e10", 2},
		{"-0.5", 1},
		{"0", 1},
	}

	for _, tt := range tests {
		if got := significantDigits(tt.input); got != tt.want {
			t.Errorf("significantDigits(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
