package xlsx

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/sheetinspect/internal/core"
	"github.com/xuri/excelize/v2"
)

// rowWindow adapts excelize.Rows to core.RowWindow.
type rowWindow struct {
	wb    *workbook
	sheet string
	rows  *excelize.Rows
	row   int
	done  bool
}

// Next returns the next row or io.EOF. Rows missing from the sheet XML
// come back as empty rows so row positions are preserved.
func (w *rowWindow) Next() (core.Row, error) {
	if w.done {
		return nil, io.EOF
	}
	if !w.rows.Next() {
		w.done = true
		if err := w.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	w.row++

	cols, err := w.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	row := make(core.Row, len(cols))
	for i, v := range cols {
		row[i] = w.cell(i+1, v)
	}
	return row, nil
}

func (w *rowWindow) Close() error {
	w.done = true
	return w.rows.Close()
}

// cell types a raw value using the type and number format stored for it.
// Text cells stay text whatever they contain. Only numeric cells consult
// the style, to tell dates from plain numbers.
func (w *rowWindow) cell(col int, raw string) core.Cell {
	if raw == "" {
		return core.Null()
	}
	ref, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		return core.String(raw)
	}
	typ, err := w.wb.file.GetCellType(w.sheet, ref)
	if err != nil {
		return core.String(raw)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return core.String(raw)
	case excelize.CellTypeBool:
		return core.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return core.Date(t)
		}
		return core.String(raw)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return core.String(raw)
	}
	if w.wb.isDateCell(w.sheet, ref) {
		if t, err := excelize.ExcelDateToTime(f, w.wb.date1904); err == nil {
			return core.Date(t)
		}
	}
	return core.Number(f)
}

// isoLayouts cover the values stored in cells typed t="d".
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISODate(v string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// isDateFormatID reports whether a built-in number format renders a date
// or time. 27-36 and 50-58 are the East Asian locale date formats, 71-81
// the Thai ones.
func isDateFormatID(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58,
		id >= 71 && id <= 81:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code renders a date or
// time. Only the first section counts. Quoted literals, escaped characters
// and bracketed color/locale/elapsed sections are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		case c == ';':
			i = len(code)
		default:
			b.WriteByte(c)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ymdh")
}
