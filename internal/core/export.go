package core

// export.go renders a whole sheet for download.
//
// CSV is streamed: each row is encoded and flushed before the next is read,
// so memory stays O(row width) regardless of sheet size. JSON is
// materialized into one array. Both render null cells as "" and do not
// treat the header row specially.

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
)

// flusher is satisfied by writers that buffer, such as an HTTP response
// wrapped in a ResponseController.
type flusher interface {
	Flush() error
}

// WriteCSV streams every row of w to dst as CSV and returns the number of
// rows written. It stops at the first write error or when ctx is cancelled.
// WriteCSV does not close w.
func WriteCSV(ctx context.Context, dst io.Writer, w RowWindow) (int, error) {
	cw := csv.NewWriter(dst)
	f, canFlush := dst.(flusher)

	written := 0
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		row, err := w.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}

		if err := cw.Write(row.Texts()); err != nil {
			return written, err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return written, err
		}
		if canFlush {
			if err := f.Flush(); err != nil {
				return written, err
			}
		}
		written++
	}
}

// CollectRows materializes every row of w as JSON-ready values.
// CollectRows does not close w.
func CollectRows(ctx context.Context, w RowWindow) ([][]any, error) {
	rows := make([][]any, 0, 64)
	for {
		if len(rows)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := w.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row.ExportValues())
	}
}
