package infer

import (
	"fmt"
	"testing"
)

func TestLedgerSampleCapAndExactTotals(t *testing.T) {
	ledger := NewExceptionLedger(2)
	for i := 0; i < 5; i++ {
		ledger.Record(CellException{
			Row: int64(i), Column: "age", Kind: KindInt8,
			Raw: fmt.Sprintf("bad%d", i), Reason: ReasonWrongFormat,
		})
	}

	if got := ledger.Count("age", KindInt8); got != 5 {
		t.Errorf("Count = %d, want exact total 5", got)
	}
	samples := ledger.Query("age", KindInt8, 0)
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want cap of 2", len(samples))
	}
	// First K observed.
	if samples[0].Row != 0 || samples[1].Row != 1 {
		t.Errorf("samples rows = %d,%d, want 0,1", samples[0].Row, samples[1].Row)
	}
}

func TestLedgerQueryLimitAndIsolation(t *testing.T) {
	ledger := NewExceptionLedger(10)
	for i := 0; i < 4; i++ {
		ledger.Record(CellException{Row: int64(i), Column: "c", Kind: KindBool, Raw: "x"})
	}

	limited := ledger.Query("c", KindBool, 2)
	if len(limited) != 2 {
		t.Fatalf("limited query = %d entries, want 2", len(limited))
	}

	// The returned slice is a copy; mutating it must not leak back.
	limited[0].Raw = "mutated"
	if again := ledger.Query("c", KindBool, 1); again[0].Raw != "x" {
		t.Errorf("ledger state mutated through query result: %q", again[0].Raw)
	}

	if got := ledger.Query("missing", KindBool, 0); got != nil {
		t.Errorf("query for unknown column = %v, want nil", got)
	}
	if got := ledger.Query("c", KindFloat64, 0); got != nil {
		t.Errorf("query for unknown kind = %v, want nil", got)
	}
}

func TestLedgerKeysAreIndependent(t *testing.T) {
	ledger := NewExceptionLedger(0)
	ledger.Record(CellException{Column: "a", Kind: KindInt8, Raw: "x"})
	ledger.Record(CellException{Column: "a", Kind: KindBool, Raw: "x"})
	ledger.Record(CellException{Column: "b", Kind: KindInt8, Raw: "x"})

	tests := []struct {
		column string
		kind   Kind
		want   int64
	}{
		{"a", KindInt8, 1},
		{"a", KindBool, 1},
		{"b", KindInt8, 1},
		{"b", KindBool, 0},
	}
	for _, tt := range tests {
		if got := ledger.Count(tt.column, tt.kind); got != tt.want {
			t.Errorf("Count(%q, %s) = %d, want %d", tt.column, tt.kind, got, tt.want)
		}
	}
}

func TestLedgerCountAbove(t *testing.T) {
	ledger := NewExceptionLedger(0)
	for i := 0; i < 3; i++ {
		ledger.Record(CellException{Column: "c", Kind: KindInt8, Raw: "x"})
	}

	if !ledger.CountAbove("c", 2) {
		t.Error("CountAbove(c, 2) = false, want true with 3 exceptions")
	}
	if ledger.CountAbove("c", 3) {
		t.Error("CountAbove(c, 3) = true, want false with exactly 3 exceptions")
	}
	if ledger.CountAbove("other", 0) {
		t.Error("CountAbove for unknown column should be false")
	}
}

func TestLedgerDefaultCap(t *testing.T) {
	ledger := NewExceptionLedger(0)
	for i := 0; i < DefaultExceptionSampleCap+5; i++ {
		ledger.Record(CellException{Row: int64(i), Column: "c", Kind: KindInt8})
	}
	if got := len(ledger.Query("c", KindInt8, 0)); got != DefaultExceptionSampleCap {
		t.Errorf("samples = %d, want default cap %d", got, DefaultExceptionSampleCap)
	}
	if got := ledger.Count("c", KindInt8); got != int64(DefaultExceptionSampleCap+5) {
		t.Errorf("total = %d, want %d", got, DefaultExceptionSampleCap+5)
	}
}
