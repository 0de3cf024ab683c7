package services

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// DefaultPriceListSheet is the sheet holding the unit-price offer.
const DefaultPriceListSheet = "FORMATO DE OFERTA ECONÓMICA"

// headerSearchRows bounds how far down the sheet the header row is looked for.
const headerSearchRows = 20

// Price-list column header prefixes, compared after normalizeKey.
const (
	colItem        = "ITEM"
	colActivity    = "ACTIVIDAD DE OBRA"
	colUnit        = "UNIDAD"
	colUnitPrice   = "VALOR UNITARIO"
	colMeasurement = "ÁREA"
	colFormula     = "FORMULA"
)

// PriceListOptions configures LoadPriceList.
type PriceListOptions struct {
	// Sheet to read. Empty means DefaultPriceListSheet, falling back to the
	// first sheet when that one is absent.
	Sheet string
}

// priceListColumns holds column positions; -1 marks an absent column.
type priceListColumns struct {
	item, activity, unit, unitPrice, measurement, formula int
}

// LoadPriceList reads the price-list workbook and returns its rows in sheet
// order. Only the activity-name column is mandatory.
func LoadPriceList(r io.Reader, opts PriceListOptions) ([]PriceListRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open price list: %w", err)
	}
	defer f.Close()

	sheetName := resolvePriceListSheet(f, opts.Sheet)
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	headerIdx, cols, ok := findPriceListHeader(rows)
	if !ok {
		return nil, fmt.Errorf("sheet %q has no %q column in its first %d rows", sheetName, colActivity, headerSearchRows)
	}

	// Item codes are read as displayed so that 1.10 is not collapsed to 1.1.
	display, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	var out []PriceListRow
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		item := cellAt(row, cols.item)
		if i < len(display) {
			item = cellAt(display[i], cols.item)
		}
		out = append(out, PriceListRow{
			Item:        item,
			Name:        cellAt(row, cols.activity),
			Unit:        cellAt(row, cols.unit),
			UnitPrice:   parseMoney(cellAt(row, cols.unitPrice)),
			Measurement: cellAt(row, cols.measurement),
			Formula:     cellAt(row, cols.formula),
		})
	}
	return out, nil
}

func resolvePriceListSheet(f *excelize.File, requested string) string {
	want := requested
	if want == "" {
		want = DefaultPriceListSheet
	}
	for _, name := range f.GetSheetList() {
		if normalizeKey(name) == normalizeKey(want) {
			return name
		}
	}
	return f.GetSheetName(0)
}

func findPriceListHeader(rows [][]string) (int, priceListColumns, bool) {
	limit := len(rows)
	if limit > headerSearchRows {
		limit = headerSearchRows
	}
	for i := 0; i < limit; i++ {
		cols := priceListColumns{-1, -1, -1, -1, -1, -1}
		for j, cell := range rows[i] {
			h := normalizeKey(cell)
			switch {
			case h == "":
			case strings.HasPrefix(h, colActivity):
				cols.activity = j
			case strings.HasPrefix(h, colItem):
				cols.item = j
			case strings.HasPrefix(h, colUnitPrice):
				cols.unitPrice = j
			case strings.HasPrefix(h, colUnit):
				cols.unit = j
			case strings.HasPrefix(h, colMeasurement) || strings.HasPrefix(h, "AREA"):
				cols.measurement = j
			case strings.HasPrefix(h, colFormula) || strings.HasPrefix(h, "FÓRMULA"):
				cols.formula = j
			}
		}
		if cols.activity >= 0 {
			return i, cols, true
		}
	}
	return 0, priceListColumns{}, false
}

// parseMoney reads a unit price cell. Currency symbols, spaces and thousands
// commas are dropped; anything unreadable is 0.
func parseMoney(s string) float64 {
	s = strings.NewReplacer("$", "", " ", "", "\u00a0", "", ",", "").Replace(s)
	if s == "" {
		return 0
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
