package core

import (
	"context"
	"io"
)

// Parser turns raw workbook bytes into a Workbook.
// Each call is independent; implementations keep no state between calls.
// Failures are reported as *ParseError.
type Parser interface {
	Parse(ctx context.Context, data []byte) (Workbook, error)
}

// Workbook is one parsed copy of an uploaded file.
type Workbook interface {
	// SheetNames returns sheet names in workbook order.
	SheetNames() []string

	// OpenRows starts a fresh forward-only cursor at row zero of the named
	// sheet. It returns ErrSheetNotFound for unknown names.
	OpenRows(sheet string) (RowWindow, error)

	Close() error
}

// RowWindow is a forward-only cursor over the rows of one sheet.
//
// Next returns io.EOF once the sheet is exhausted. There is no rewind, seek
// or peek: skipping rows means calling Next and discarding the result.
// A window is never shared between requests.
type RowWindow interface {
	Next() (Row, error)
	Close() error
}

// HasSheet reports whether wb contains a sheet with exactly this name.
// Sheet names are case-sensitive.
func HasSheet(wb Workbook, name string) bool {
	for _, s := range wb.SheetNames() {
		if s == name {
			return true
		}
	}
	return false
}

// SliceWindow is a RowWindow over rows already held in memory.
// It backs tests and callers that have materialized a sheet.
type SliceWindow struct {
	rows   []Row
	pos    int
	closed bool
}

// NewSliceWindow returns a window yielding rows in order.
func NewSliceWindow(rows []Row) *SliceWindow {
	return &SliceWindow{rows: rows}
}

// Next implements RowWindow.
func (w *SliceWindow) Next() (Row, error) {
	if w.closed || w.pos >= len(w.rows) {
		return nil, io.EOF
	}
	r := w.rows[w.pos]
	w.pos++
	return r, nil
}

// Close implements RowWindow.
func (w *SliceWindow) Close() error {
	w.closed = true
	return nil
}

// Consumed returns how many rows Next has handed out.
func (w *SliceWindow) Consumed() int { return w.pos }

// Closed reports whether Close was called.
func (w *SliceWindow) Closed() bool { return w.closed }

// sheetWindow closes its workbook together with the row cursor so a caller
// holding only the window releases the whole parse.
type sheetWindow struct {
	RowWindow
	wb Workbook
}

func (w *sheetWindow) Close() error {
	err := w.RowWindow.Close()
	if cerr := w.wb.Close(); err == nil {
		err = cerr
	}
	return err
}
