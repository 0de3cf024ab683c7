package services

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"renovationcost/testhelpers"
)

func TestLoadPriceList(t *testing.T) {
	rows, err := LoadPriceList(bytes.NewReader(testhelpers.NewPriceList(t)), PriceListOptions{})
	if err != nil {
		t.Fatalf("LoadPriceList() error = %v", err)
	}
	if len(rows) != len(testhelpers.PriceListRows) {
		t.Fatalf("got %d rows, want %d", len(rows), len(testhelpers.PriceListRows))
	}

	roof := rows[2]
	if roof.Item != "1.01" || roof.Unit != "M2" || roof.UnitPrice != 12000 || roof.Measurement != MeasureRoofArea {
		t.Errorf("row 2 = %+v", roof)
	}
	if rows[1].Name != "PRELIMINARES" {
		t.Errorf("row 1 name = %q, want PRELIMINARES", rows[1].Name)
	}

	c := BuildCatalog(rows, nil)
	if got := len(c.Categories()); got != 3 {
		t.Errorf("categories = %d, want 3", got)
	}
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}

	modes := map[string]CostMode{
		"1.01": PlainMeasurement,
		"1.02": UserSupplied,
		"2.01": FormulaDefault,
		"2.02": HeightScaled,
		"3.01": PlainMeasurement,
	}
	for key, want := range modes {
		a, ok := c.Lookup(key)
		if !ok {
			t.Errorf("Lookup(%q) not found", key)
			continue
		}
		if a.Mode != want {
			t.Errorf("Lookup(%q).Mode = %v, want %v", key, a.Mode, want)
		}
	}
}

func TestLoadPriceList_FallsBackToFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	values := []any{"Item", "Actividad de obra", "Unidad", "Valor unitario", "Area"}
	if err := f.SetSheetRow("Sheet1", "A1", &values); err != nil {
		t.Fatal(err)
	}
	data := []any{"9.01", "Aseo final", "GL", "$ 150,000", "USUARIO"}
	if err := f.SetSheetRow("Sheet1", "A2", &data); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	rows, err := LoadPriceList(&buf, PriceListOptions{})
	if err != nil {
		t.Fatalf("LoadPriceList() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].UnitPrice != 150000 || rows[0].Measurement != "USUARIO" || rows[0].Formula != "" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestLoadPriceList_NumericItemCodes(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"Item", "Actividad de obra", "Unidad", "Valor unitario", "Área"},
		{"", "PISOS", "", "", ""},
		{1.1, "Piso uno", "M2", 100, MeasureFloorArea},
		{1.1, "Piso diez", "M2", 200, MeasureFloorArea},
		{1.1, "Piso repetido", "M2", 300, MeasureFloorArea},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	// The second code is typed as 1.10 with two fixed decimals.
	twoDecimals, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle("Sheet1", "A4", "A4", twoDecimals); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadPriceList(&buf, PriceListOptions{})
	if err != nil {
		t.Fatalf("LoadPriceList() error = %v", err)
	}
	var items []string
	for _, r := range loaded[1:] {
		items = append(items, r.Item)
	}
	if want := []string{"1.1", "1.10", "1.1"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %q, want %q", items, want)
	}
	if loaded[2].UnitPrice != 200 {
		t.Errorf("unit price = %v, want 200", loaded[2].UnitPrice)
	}

	c := BuildCatalog(loaded, nil)
	var keys []string
	for _, a := range c.All() {
		keys = append(keys, a.Key())
	}
	if want := []string{"1.1", "1.10", "1.1-2"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("catalog keys = %q, want %q", keys, want)
	}
}

func TestLoadPriceList_MissingActivityColumn(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	values := []any{"Item", "Descripción", "Unidad"}
	if err := f.SetSheetRow("Sheet1", "A1", &values); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPriceList(&buf, PriceListOptions{}); err == nil {
		t.Error("expected an error for a sheet without the activity column")
	}
}

func TestLoadPriceList_NotAWorkbook(t *testing.T) {
	if _, err := LoadPriceList(bytes.NewReader([]byte("not a workbook")), PriceListOptions{}); err == nil {
		t.Error("expected an error for non-xlsx input")
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input  string
		expect float64
	}{
		{"12000", 12000},
		{"12000.5", 12000.5},
		{"$ 12,000", 12000},
		{" 45,000", 45000},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		got := parseMoney(tt.input)
		if got != tt.expect || math.IsNaN(got) {
			t.Errorf("parseMoney(%q) = %v, want %v", tt.input, got, tt.expect)
		}
	}
}
