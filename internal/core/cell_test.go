package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCell_Text(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"null", Null(), ""},
		{"string", String("hello"), "hello"},
		{"integer", Number(42), "42"},
		{"fraction", Number(0.1), "0.1"},
		{"negative", Number(-3.25), "-3.25"},
		{"large", Number(1e21), "1000000000000000000000"},
		{"true", Bool(true), "TRUE"},
		{"false", Bool(false), "FALSE"},
		{"date", Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), "2024-01-15"},
		{"datetime", Date(time.Date(2024, 1, 15, 8, 5, 9, 0, time.UTC)), "2024-01-15T08:05:09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCell_JSON(t *testing.T) {
	row := Row{Null(), String("x"), Number(2), Bool(false), Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))}

	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[null,"x",2,false,"2024-01-15"]`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}

	b, err = json.Marshal(row.ExportValues())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want = `["","x",2,false,"2024-01-15"]`
	if string(b) != want {
		t.Errorf("export json = %s, want %s", b, want)
	}
}

func TestCell_Accessors(t *testing.T) {
	if _, ok := String("x").Float(); ok {
		t.Error("Float() on string cell reported ok")
	}
	if f, ok := Number(1.5).Float(); !ok || f != 1.5 {
		t.Errorf("Float() = %v, %v", f, ok)
	}
	if s, ok := String("x").Str(); !ok || s != "x" {
		t.Errorf("Str() = %q, %v", s, ok)
	}
	if b, ok := Bool(true).Boolean(); !ok || !b {
		t.Errorf("Boolean() = %v, %v", b, ok)
	}
	if !(Cell{}).IsNull() {
		t.Error("zero Cell is not null")
	}
	if Number(0).Equal(String("0")) {
		t.Error("cells of different kinds compared equal")
	}
	if Number(0).Kind().String() != "number" {
		t.Errorf("Kind().String() = %q", Number(0).Kind().String())
	}
}
