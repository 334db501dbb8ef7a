package core

import (
	"context"
	"errors"
	"fmt"
)

// numRows builds a sheet of integer rows, e.g. numRows([]int{1, 2}) is the
// single row [1, 2].
func numRows(rows ...[]int) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = make(Row, len(r))
		for j, v := range r {
			out[i][j] = Number(float64(v))
		}
	}
	return out
}

// dataSheet is header [A, B] plus data rows [1,2], [3,4], [5,6].
func dataSheet() []Row {
	return append(
		[]Row{{String("A"), String("B")}},
		numRows([]int{1, 2}, []int{3, 4}, []int{5, 6})...,
	)
}

// fakeWorkbook is an in-memory Workbook that records open and close calls.
type fakeWorkbook struct {
	names   []string
	sheets  map[string][]Row
	closed  bool
	windows []*SliceWindow
}

func (wb *fakeWorkbook) SheetNames() []string { return wb.names }

func (wb *fakeWorkbook) OpenRows(sheet string) (RowWindow, error) {
	rows, ok := wb.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	w := NewSliceWindow(rows)
	wb.windows = append(wb.windows, w)
	return w, nil
}

func (wb *fakeWorkbook) Close() error {
	wb.closed = true
	return nil
}

// fakeParser treats the uploaded bytes as a key into a table of workbooks.
type fakeParser struct {
	books  map[string]func() *fakeWorkbook
	parses int
	last   *fakeWorkbook
}

func (p *fakeParser) Parse(ctx context.Context, data []byte) (Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.parses++
	build, ok := p.books[string(data)]
	if !ok {
		return nil, &ParseError{Err: errors.New("not a workbook")}
	}
	p.last = build()
	return p.last, nil
}

// errWindow yields rows and then fails.
type errWindow struct {
	rows []Row
	err  error
}

func (w *errWindow) Next() (Row, error) {
	if len(w.rows) == 0 {
		return nil, w.err
	}
	r := w.rows[0]
	w.rows = w.rows[1:]
	return r, nil
}

func (w *errWindow) Close() error { return nil }

// parserFunc adapts a function to Parser.
type parserFunc func(ctx context.Context, data []byte) (Workbook, error)

func (f parserFunc) Parse(ctx context.Context, data []byte) (Workbook, error) {
	return f(ctx, data)
}

// windowWorkbook is a single-sheet Workbook backed by a caller-built window.
type windowWorkbook struct {
	name   string
	window RowWindow
}

func (wb *windowWorkbook) SheetNames() []string { return []string{wb.name} }

func (wb *windowWorkbook) OpenRows(sheet string) (RowWindow, error) {
	if sheet != wb.name {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return wb.window, nil
}

func (wb *windowWorkbook) Close() error { return nil }
