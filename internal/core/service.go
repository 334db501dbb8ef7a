package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// supportedExtensions are the Open XML workbook formats the parser reads.
var supportedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// IsSupportedFile reports whether filename has a workbook extension.
// The check is case-insensitive.
func IsSupportedFile(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Service is the entry point for preview, paging and export.
// It is safe for concurrent use; the store is the only shared state.
type Service struct {
	store   WorkbookStore
	parser  Parser
	limiter *UploadLimiter
}

// NewService wires a store, a parser and an upload limiter together.
// A nil limiter gets the defaults.
func NewService(store WorkbookStore, parser Parser, limiter *UploadLimiter) *Service {
	if limiter == nil {
		limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
	return &Service{
		store:   store,
		parser:  parser,
		limiter: limiter,
	}
}

// Preview parses an uploaded workbook, previews every sheet and caches the
// bytes. The token in the result addresses the cached bytes for later
// Page and OpenExport calls. Nothing is cached if parsing fails.
func (s *Service) Preview(ctx context.Context, filename string, data []byte, sampleRows int) (*PreviewResult, error) {
	if !IsSupportedFile(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(filename))
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()

	wb, err := s.parser.Parse(ctx, data)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	result, err := PreviewWorkbook(ctx, wb, sampleRows)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ParseError{Err: err}
	}

	token, err := s.store.Put(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("store workbook: %w", err)
	}
	result.Token = token

	slog.Info("workbook previewed",
		"file", filename,
		"bytes", len(data),
		"sheets", result.SheetCount,
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// Page returns one window of a cached sheet's data rows.
func (s *Service) Page(ctx context.Context, token, sheet string, offset, limit int) (*PageResult, error) {
	w, err := s.OpenSheet(ctx, token, sheet)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	page, err := Paginate(ctx, w, sheet, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("page %q: %w", sheet, err)
	}
	return page, nil
}

// OpenSheet resolves token, re-parses the cached bytes and opens a fresh
// window at row zero of sheet. Closing the window releases the parse.
func (s *Service) OpenSheet(ctx context.Context, token, sheet string) (RowWindow, error) {
	data, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	wb, err := s.parser.Parse(ctx, data)
	if err != nil {
		return nil, err
	}

	if !HasSheet(wb, sheet) {
		wb.Close()
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	w, err := wb.OpenRows(sheet)
	if err != nil {
		wb.Close()
		return nil, err
	}
	return &sheetWindow{RowWindow: w, wb: wb}, nil
}

// Export is an opened sheet ready to be written out.
// Lookup failures surface from OpenExport, before any output is produced.
type Export struct {
	Sheet  string
	window RowWindow
}

// OpenExport resolves token and sheet for a download.
// The caller must Close the export.
func (s *Service) OpenExport(ctx context.Context, token, sheet string) (*Export, error) {
	w, err := s.OpenSheet(ctx, token, sheet)
	if err != nil {
		return nil, err
	}
	return &Export{Sheet: sheet, window: w}, nil
}

// WriteCSV streams the sheet to dst one row at a time.
func (e *Export) WriteCSV(ctx context.Context, dst io.Writer) (int, error) {
	n, err := WriteCSV(ctx, dst, e.window)
	if err != nil {
		return n, &ExportError{Sheet: e.Sheet, Err: err}
	}
	return n, nil
}

// Rows materializes the sheet for a JSON export.
func (e *Export) Rows(ctx context.Context) ([][]any, error) {
	rows, err := CollectRows(ctx, e.window)
	if err != nil {
		return nil, &ExportError{Sheet: e.Sheet, Err: err}
	}
	return rows, nil
}

// Close releases the row cursor and the parsed workbook.
func (e *Export) Close() error {
	return e.window.Close()
}

// StoreStats reports the cache state when the store supports it.
func (s *Service) StoreStats() (StoreStats, bool) {
	sr, ok := s.store.(interface{ Stats() StoreStats })
	if !ok {
		return StoreStats{}, false
	}
	return sr.Stats(), true
}

// UploadLimiterStatus returns the current upload limiter state.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight previews finish parsing.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
