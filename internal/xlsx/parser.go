// Package xlsx reads Open XML workbooks with excelize and exposes them
// through the core.Parser, core.Workbook and core.RowWindow interfaces.
//
// Row values are streamed with excelize's Rows iterator and read raw, so a
// number keeps its stored value whatever its display format. Cell types and
// number formats come from the parsed worksheet, which excelize loads the
// first time a sheet's cells are typed.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/sheetinspect/internal/core"
	"github.com/xuri/excelize/v2"
)

// Options configures the parser.
type Options struct {
	// UnzipSizeLimit caps the total uncompressed size of a workbook
	// (0 keeps excelize's default of 16GB).
	UnzipSizeLimit int64
}

// Parser implements core.Parser. It holds no per-call state.
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse opens data as a workbook. Failures are returned as *core.ParseError.
func (p *Parser) Parse(ctx context.Context, data []byte) (core.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &core.ParseError{Err: fmt.Errorf("empty file")}
	}

	var xopts excelize.Options
	if p.opts.UnzipSizeLimit > 0 {
		xopts.UnzipSizeLimit = p.opts.UnzipSizeLimit
		xopts.UnzipXMLSizeLimit = min(p.opts.UnzipSizeLimit, 16<<20)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), xopts)
	if err != nil {
		return nil, &core.ParseError{Err: err}
	}

	wb := &workbook{
		file:       f,
		sheets:     f.GetSheetList(),
		dateStyles: make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

// workbook implements core.Workbook over an excelize file.
type workbook struct {
	file     *excelize.File
	sheets   []string
	date1904 bool

	mu         sync.Mutex
	dateStyles map[int]bool // style ID -> renders as date
}

func (wb *workbook) SheetNames() []string {
	return slices.Clone(wb.sheets)
}

func (wb *workbook) OpenRows(sheet string) (core.RowWindow, error) {
	if !slices.Contains(wb.sheets, sheet) {
		return nil, fmt.Errorf("%w: %q", core.ErrSheetNotFound, sheet)
	}
	rows, err := wb.file.Rows(sheet)
	if err != nil {
		return nil, &core.ParseError{Err: fmt.Errorf("open rows of %q: %w", sheet, err)}
	}
	return &rowWindow{wb: wb, sheet: sheet, rows: rows}, nil
}

func (wb *workbook) Close() error {
	return wb.file.Close()
}

// isDateCell reports whether the cell's number format displays a date.
func (wb *workbook) isDateCell(sheet, ref string) bool {
	id, err := wb.file.GetCellStyle(sheet, ref)
	if err != nil || id == 0 {
		return false
	}

	wb.mu.Lock()
	defer wb.mu.Unlock()
	if isDate, ok := wb.dateStyles[id]; ok {
		return isDate
	}
	isDate := false
	if style, err := wb.file.GetStyle(id); err == nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isDateFormatID(style.NumFmt)
		}
	}
	wb.dateStyles[id] = isDate
	return isDate
}
