package core

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ctxCheckInterval is how many rows are scanned between context checks.
const ctxCheckInterval = 1024

// PageResult is one (offset, limit) window of a sheet's data rows.
//
// TotalRows always counts every row in the sheet, header included, whatever
// window was requested. Done is true when the window reaches the last data row.
type PageResult struct {
	Sheet     string `json:"sheet"`
	Header    Row    `json:"header"`
	Rows      []Row  `json:"rows"`
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
	TotalRows int    `json:"total_rows"`
	Done      bool   `json:"done"`
}

// Paginate reads one page from a fresh window.
//
// The first row is the header. Offset and limit apply to the data rows after
// it. The window is always drained so TotalRows is exact; a call therefore
// costs time proportional to the whole sheet, not to the page size. There is
// no saved cursor between requests: every page rescans from row zero.
//
// Paginate does not close w.
func Paginate(ctx context.Context, w RowWindow, sheet string, offset, limit int) (*PageResult, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset %d must be >= 0", ErrInvalidPage, offset)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit %d must be >= 1", ErrInvalidPage, limit)
	}

	page := &PageResult{
		Sheet:  sheet,
		Rows:   make([]Row, 0, min(limit, 256)),
		Offset: offset,
		Limit:  limit,
	}

	header, err := w.Next()
	if errors.Is(err, io.EOF) {
		page.Done = true
		return page, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	page.Header = header
	page.TotalRows = 1

	scanned := 0
	next := func() (Row, bool, error) {
		scanned++
		if scanned%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
		}
		row, err := w.Next()
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		page.TotalRows++
		return row, true, nil
	}

	exhausted := false
	for skipped := 0; skipped < offset; skipped++ {
		_, ok, err := next()
		if err != nil {
			return nil, fmt.Errorf("skip to offset: %w", err)
		}
		if !ok {
			exhausted = true
			break
		}
	}

	for !exhausted && len(page.Rows) < limit {
		row, ok, err := next()
		if err != nil {
			return nil, fmt.Errorf("read page: %w", err)
		}
		if !ok {
			exhausted = true
			break
		}
		page.Rows = append(page.Rows, row)
	}

	for !exhausted {
		_, ok, err := next()
		if err != nil {
			return nil, fmt.Errorf("count rows: %w", err)
		}
		exhausted = !ok
	}

	page.Done = offset+len(page.Rows) >= page.TotalRows-1
	return page, nil
}
