package core

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Sample limits for preview requests.
const (
	DefaultSampleRows = 25
	MaxSampleRows     = 500
)

// SheetPreview summarizes one sheet: its header, the first data rows and
// the total row count (header included when the sheet has one).
type SheetPreview struct {
	Name      string `json:"name"`
	Headers   Row    `json:"headers"`
	Sample    []Row  `json:"sample"`
	TotalRows int    `json:"total_rows"`
}

// PreviewResult is the response to an upload: the token to use for later
// page and export requests plus a preview of every sheet.
type PreviewResult struct {
	Token      string         `json:"token"`
	Sheets     []SheetPreview `json:"sheets"`
	SheetCount int            `json:"sheet_count"`
}

// PreviewSheet walks a fresh window once, keeping the header and up to
// sampleRows data rows while counting all of them.
//
// An empty sheet yields empty headers, an empty sample and TotalRows 0.
// PreviewSheet does not close w.
func PreviewSheet(ctx context.Context, w RowWindow, name string, sampleRows int) (SheetPreview, error) {
	if sampleRows < 0 {
		sampleRows = 0
	}
	preview := SheetPreview{
		Name:    name,
		Headers: Row{},
		Sample:  make([]Row, 0, min(sampleRows, 64)),
	}

	header, err := w.Next()
	if errors.Is(err, io.EOF) {
		return preview, nil
	}
	if err != nil {
		return preview, fmt.Errorf("read header of %q: %w", name, err)
	}
	if header != nil {
		preview.Headers = header
	}

	dataRows := 0
	for {
		if dataRows%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return preview, err
			}
		}
		row, err := w.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return preview, fmt.Errorf("read rows of %q: %w", name, err)
		}
		dataRows++
		if len(preview.Sample) < sampleRows {
			preview.Sample = append(preview.Sample, row)
		}
	}

	preview.TotalRows = dataRows + 1
	return preview, nil
}

// PreviewWorkbook previews every sheet of wb in workbook order, opening a
// fresh window per sheet. The returned result has no token yet.
func PreviewWorkbook(ctx context.Context, wb Workbook, sampleRows int) (*PreviewResult, error) {
	names := wb.SheetNames()
	result := &PreviewResult{
		Sheets:     make([]SheetPreview, 0, len(names)),
		SheetCount: len(names),
	}

	for _, name := range names {
		w, err := wb.OpenRows(name)
		if err != nil {
			return nil, fmt.Errorf("open sheet %q: %w", name, err)
		}
		sp, err := PreviewSheet(ctx, w, name, sampleRows)
		w.Close()
		if err != nil {
			return nil, err
		}
		result.Sheets = append(result.Sheets, sp)
	}

	return result, nil
}
