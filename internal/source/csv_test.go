package source

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func drain(t *testing.T, src interface {
	Next(ctx context.Context) ([][]string, error)
}) [][]string {
	t.Helper()
	var rows [][]string
	for {
		batch, err := src.Next(context.Background())
		rows = append(rows, batch...)
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestCSVSource(t *testing.T) {
	input := "name,age\nalice,30\nbob,25\ncarol,41\n"
	src, err := NewCSVSource(strings.NewReader(input), 2, int64(len(input)))
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}

	if want := []string{"name", "age"}; !reflect.DeepEqual(src.Header(), want) {
		t.Errorf("header = %v, want %v", src.Header(), want)
	}

	first, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if len(first) != 2 {
		t.Errorf("first batch = %d rows, want 2", len(first))
	}

	// The final, short batch arrives together with io.EOF.
	second, err := src.Next(context.Background())
	if err != io.EOF {
		t.Fatalf("second batch err = %v, want io.EOF", err)
	}
	if len(second) != 1 || second[0][0] != "carol" {
		t.Errorf("second batch = %v, want carol row", second)
	}

	if _, err := src.Next(context.Background()); err != io.EOF {
		t.Errorf("exhausted source err = %v, want io.EOF", err)
	}
}

func TestCSVSourceEmptyInput(t *testing.T) {
	if _, err := NewCSVSource(strings.NewReader(""), 10, 0); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
}

func TestCSVSourceHeaderOnly(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader("a,b,c\n"), 10, 0)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	batch, err := src.Next(context.Background())
	if err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
	if len(batch) != 0 {
		t.Errorf("batch = %v, want empty", batch)
	}
}

func TestCSVSourceBOMAndEncoding(t *testing.T) {
	input := "\xEF\xBB\xBFname,note\nalice,caf\xFF\n"
	src, err := NewCSVSource(strings.NewReader(input), 10, 0)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	if src.Header()[0] != "name" {
		t.Errorf("BOM leaked into header: %q", src.Header()[0])
	}
	rows := drain(t, src)
	if len(rows) != 1 || rows[0][1] != "caf?" {
		t.Errorf("rows = %v, want invalid byte replaced", rows)
	}
}

func TestCSVSourceRaggedRows(t *testing.T) {
	input := "a,b\n1,2\n3\n4,5,6\n"
	src, err := NewCSVSource(strings.NewReader(input), 10, 0)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	rows := drain(t, src)
	want := [][]string{{"1", "2"}, {"3"}, {"4", "5", "6"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v (ragged rows pass through)", rows, want)
	}
}

func TestCSVSourceCancellation(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader("a\n1\n2\n"), 1, 0)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSliceSourceReset(t *testing.T) {
	rows := [][]string{{"1"}, {"2"}, {"3"}}
	src := NewSliceSource([]string{"n"}, rows, 2)

	first := drain(t, src)
	if !reflect.DeepEqual(first, rows) {
		t.Fatalf("first pass = %v, want %v", first, rows)
	}

	src.Reset()
	second := drain(t, src)
	if !reflect.DeepEqual(second, rows) {
		t.Errorf("second pass after Reset = %v, want %v", second, rows)
	}
}

func TestRecorderReplay(t *testing.T) {
	inner := NewSliceSource([]string{"n"}, [][]string{{"1"}, {"2"}, {"3"}}, 2)
	rec := NewRecorder(inner, 10)

	streamed := drain(t, rec)
	if len(streamed) != 3 {
		t.Fatalf("streamed %d rows, want 3", len(streamed))
	}

	replay, ok := rec.Replay(1)
	if !ok {
		t.Fatal("replay should be available within the cap")
	}
	replayed := drain(t, replay)
	if !reflect.DeepEqual(replayed, streamed) {
		t.Errorf("replayed = %v, want %v", replayed, streamed)
	}
}

func TestRecorderOverflow(t *testing.T) {
	inner := NewSliceSource([]string{"n"}, [][]string{{"1"}, {"2"}, {"3"}}, 2)
	rec := NewRecorder(inner, 2)

	drain(t, rec)
	if _, ok := rec.Replay(1); ok {
		t.Error("replay should be unavailable after overflow")
	}
}

func TestRecorderIncompleteStream(t *testing.T) {
	inner := NewSliceSource([]string{"n"}, [][]string{{"1"}, {"2"}}, 1)
	rec := NewRecorder(inner, 10)

	if _, err := rec.Next(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rec.Replay(1); ok {
		t.Error("replay should require a fully consumed stream")
	}
}

func TestRecorderCachesCopies(t *testing.T) {
	rows := [][]string{{"original"}}
	inner := NewSliceSource([]string{"n"}, rows, 1)
	rec := NewRecorder(inner, 10)

	batch, _ := rec.Next(context.Background())
	batch[0][0] = "mutated"
	drain(t, rec)

	replay, ok := rec.Replay(1)
	if !ok {
		t.Fatal("replay should be available")
	}
	got := drain(t, replay)
	if got[0][0] != "original" {
		t.Errorf("cached row = %q, want deep copy %q", got[0][0], "original")
	}
}
