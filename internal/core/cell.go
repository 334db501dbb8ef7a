package core

import (
	"encoding/json"
	"strconv"
	"time"
)

// CellKind identifies which variant of the Cell union is populated.
type CellKind uint8

const (
	KindNull CellKind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

// String returns the lowercase kind name.
func (k CellKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Cell is a single typed worksheet value.
// The zero value is a null cell.
type Cell struct {
	kind CellKind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Row is an ordered sequence of cells. Width may differ between rows.
type Row []Cell

// Null returns the null cell.
func Null() Cell { return Cell{} }

// String returns a string cell.
func String(s string) Cell { return Cell{kind: KindString, str: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Bool returns a boolean cell.
func Bool(b bool) Cell { return Cell{kind: KindBool, b: b} }

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{kind: KindDate, t: t} }

// Kind reports the populated variant.
func (c Cell) Kind() CellKind { return c.kind }

// IsNull reports whether the cell is empty.
func (c Cell) IsNull() bool { return c.kind == KindNull }

// Str returns the string payload; ok is false for other kinds.
func (c Cell) Str() (string, bool) { return c.str, c.kind == KindString }

// Float returns the numeric payload; ok is false for other kinds.
func (c Cell) Float() (float64, bool) { return c.num, c.kind == KindNumber }

// Boolean returns the boolean payload; ok is false for other kinds.
func (c Cell) Boolean() (bool, bool) { return c.b, c.kind == KindBool }

// Time returns the date payload; ok is false for other kinds.
func (c Cell) Time() (time.Time, bool) { return c.t, c.kind == KindDate }

// Equal reports whether two cells hold the same kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case KindString:
		return c.str == o.str
	case KindNumber:
		return c.num == o.num
	case KindBool:
		return c.b == o.b
	case KindDate:
		return c.t.Equal(o.t)
	default:
		return true
	}
}

// Text returns the canonical text used by both export formats.
// Null cells render as the empty string.
func (c Cell) Text() string {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindBool:
		if c.b {
			return "TRUE"
		}
		return "FALSE"
	case KindDate:
		return formatDate(c.t)
	default:
		return ""
	}
}

// Value returns the cell as a plain Go value suitable for encoding/json.
// Null cells return nil.
func (c Cell) Value() any {
	switch c.kind {
	case KindString:
		return c.str
	case KindNumber:
		return c.num
	case KindBool:
		return c.b
	case KindDate:
		return formatDate(c.t)
	default:
		return nil
	}
}

// ExportValue is Value with null rendered as "" so JSON exports match CSV.
func (c Cell) ExportValue() any {
	if c.kind == KindNull {
		return ""
	}
	return c.Value()
}

// MarshalJSON encodes the cell as a JSON scalar (null for empty cells).
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// Texts renders every cell of the row with Text.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text()
	}
	return out
}

// ExportValues renders every cell of the row with ExportValue.
func (r Row) ExportValues() []any {
	out := make([]any, len(r))
	for i, c := range r {
		out[i] = c.ExportValue()
	}
	return out
}

// Equal reports whether two rows hold equal cells in the same order.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}
