// Package xlsxtest builds small in-memory workbooks for tests.
package xlsxtest

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a fixture workbook. Row values are written with
// excelize's SetSheetRow, so ints, floats, strings, bools and time.Time all work.
// Strings are stored as text cells even when they look like numbers.
type Sheet struct {
	Name string
	Rows [][]any
}

// Styled is a row value written with a number format. Set NumFmt for a
// built-in format ID or CustomNumFmt for a format code.
type Styled struct {
	Value        any
	NumFmt       int
	CustomNumFmt string
}

// Build encodes sheets, in order, as .xlsx bytes.
func Build(tb testing.TB, sheets ...Sheet) []byte {
	tb.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				tb.Fatalf("rename first sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			tb.Fatalf("add sheet %q: %v", s.Name, err)
		}

		for r, values := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				tb.Fatalf("cell name: %v", err)
			}
			row := make([]any, len(values))
			for c, v := range values {
				row[c] = v
				if st, ok := v.(Styled); ok {
					row[c] = st.Value
				}
			}
			if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
				tb.Fatalf("write row %d of %q: %v", r+1, s.Name, err)
			}

			for c, v := range values {
				st, ok := v.(Styled)
				if !ok {
					continue
				}
				applyStyle(tb, f, s.Name, c+1, r+1, st)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		tb.Fatalf("encode workbook: %v", err)
	}
	return buf.Bytes()
}

func applyStyle(tb testing.TB, f *excelize.File, sheet string, col, row int, st Styled) {
	tb.Helper()

	style := &excelize.Style{NumFmt: st.NumFmt}
	if st.CustomNumFmt != "" {
		style.CustomNumFmt = &st.CustomNumFmt
	}
	id, err := f.NewStyle(style)
	if err != nil {
		tb.Fatalf("new style: %v", err)
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		tb.Fatalf("cell name: %v", err)
	}
	if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
		tb.Fatalf("style %s of %q: %v", cell, sheet, err)
	}
}

// DataSheet is the three-row fixture used across packages:
// header [A, B] and data rows [1,2], [3,4], [5,6].
func DataSheet() Sheet {
	return Sheet{
		Name: "Data",
		Rows: [][]any{
			{"A", "B"},
			{1, 2},
			{3, 4},
			{5, 6},
		},
	}
}
