package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{String("name"), String("qty"), String("when"), String("ok")},
		{String("widget, large"), Number(3), Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), Bool(true)},
		{String(`say "hi"`), Null(), Date(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)), Bool(false)},
		{String("short")},
	}

	var buf bytes.Buffer
	n, err := WriteCSV(context.Background(), &buf, NewSliceWindow(rows))
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if n != 4 {
		t.Errorf("wrote %d rows, want 4", n)
	}

	want := strings.Join([]string{
		"name,qty,when,ok",
		`"widget, large",3,2024-01-15,TRUE`,
		`"say ""hi""",,2024-01-15T09:30:00,FALSE`,
		"short",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_EmptySheet(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(context.Background(), &buf, NewSliceWindow(nil))
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("wrote %d rows, %d bytes; want nothing", n, buf.Len())
	}
}

// flushRecorder records how many rows had been written at each flush.
type flushRecorder struct {
	bytes.Buffer
	flushes []int
}

func (f *flushRecorder) Flush() error {
	f.flushes = append(f.flushes, strings.Count(f.String(), "\n"))
	return nil
}

func TestWriteCSV_FlushesEveryRow(t *testing.T) {
	var rec flushRecorder
	if _, err := WriteCSV(context.Background(), &rec, NewSliceWindow(dataSheet())); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := []int{1, 2, 3, 4}
	if len(rec.flushes) != len(want) {
		t.Fatalf("flushes = %v, want %v", rec.flushes, want)
	}
	for i := range want {
		if rec.flushes[i] != want[i] {
			t.Errorf("flush %d after %d rows, want %d", i, rec.flushes[i], want[i])
		}
	}
}

// failingWriter accepts n bytes and then fails.
type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errors.New("client went away")
	}
	w.n -= len(p)
	return len(p), nil
}

func TestWriteCSV_WriteError(t *testing.T) {
	w := NewSliceWindow(dataSheet())
	n, err := WriteCSV(context.Background(), &failingWriter{n: 4}, w)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Errorf("wrote %d rows before failing, want 1", n)
	}
	// Reading stops at the failure.
	if w.Consumed() != 2 {
		t.Errorf("consumed %d rows, want 2", w.Consumed())
	}
}

func TestWriteCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := WriteCSV(ctx, &buf, NewSliceWindow(dataSheet()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCollectRows(t *testing.T) {
	rows := []Row{
		{String("a"), String("b")},
		{Number(1.5), Null()},
		{Bool(true), Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
	}

	got, err := CollectRows(context.Background(), NewSliceWindow(rows))
	if err != nil {
		t.Fatalf("CollectRows: %v", err)
	}

	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[["a","b"],[1.5,""],[true,"2024-03-01"]]`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

func TestCollectRows_Empty(t *testing.T) {
	got, err := CollectRows(context.Background(), NewSliceWindow(nil))
	if err != nil {
		t.Fatalf("CollectRows: %v", err)
	}
	b, _ := json.Marshal(got)
	if string(b) != "[]" {
		t.Errorf("json = %s, want []", b)
	}
}
