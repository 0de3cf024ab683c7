// Package testhelpers provides fixtures for testing the estimator: a sample
// survey export, a price-list workbook and a report template.
package testhelpers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SurveyExport is a MagicPlan-style room export with a title, a key-value
// block, the room geometry table, a table without geometry columns and a
// freeform block.
const SurveyExport = `Proyecto Casa Gómez

Nombre: Casa Gómez,
Dirección: Calle 10 # 5-20,
Fecha: 2025-02-01

Nombre,Tierra Superficie: : m²,Paredes sin apertura: m²,Tierra Perímetro: m,Techo Perímetro: m
Piso 1,58.20,120.00,40.00,40.00
#Cocina,10.00,25.50,12.00,12.05
#Baño,4.50,18.20,8.60,8.80
Habitación 1,12.00,30.00,14.00,14.00

Puertas,Ancho: m,Alto: m
Puerta principal,0.90,2.10

nota libre sin estructura
otra línea, con coma
`

// PriceListSheet is the sheet name used by NewPriceList.
const PriceListSheet = "FORMATO DE OFERTA ECONÓMICA"

// PriceListHeader is the header row written by NewPriceList.
var PriceListHeader = []any{
	"Item",
	"ACTIVIDAD DE OBRA - LISTA DE PRECIOS UNITARIOS",
	"Unidad",
	"Valor Unitario ofertado (**)",
	"ÁREA",
	"FORMULA",
}

// PriceListRows are the data rows written below PriceListHeader. The first
// row precedes any category and is expected to be dropped.
var PriceListRows = [][]any{
	{"0.01", "Visita técnica", "UND", 80000, "USUARIO", ""},
	{"", "PRELIMINARES", "", "", "", ""},
	{"1.01", "Desmonte de cubierta existente", "M2", 12000, "MAGICPLAN - ÁREA CUBIERTA", ""},
	{"1.02", "Retiro de escombros", "UND", 35000, "USUARIO", ""},
	{"", "PISOS Y ENCHAPES", "", "", "", ""},
	{"2.01", "Suministro e instalación de piso cerámico", "M2", 45000, "MAGICPLAN - ÁREA PISO", "SI"},
	{"2.02", "Enchape de muros", "M2", 50000, "MAGICPLAN - PERIMETRO PISO", "ALTURA"},
	{"", "PINTURA", "", "", "", ""},
	{"3.01", "Pintura de muros", "M2", 9000, "MAGICPLAN - ÁREA PARED", ""},
}

// NewPriceList builds the price-list workbook in memory. Two banner rows
// precede the header, as in the programme's offer format.
func NewPriceList(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), PriceListSheet); err != nil {
		t.Fatalf("failed to rename sheet: %v", err)
	}
	setRow(t, f, PriceListSheet, 1, []any{"FORMATO DE OFERTA ECONÓMICA"})
	setRow(t, f, PriceListSheet, 3, PriceListHeader)
	for i, r := range PriceListRows {
		setRow(t, f, PriceListSheet, i+4, r)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to write price list: %v", err)
	}
	return buf.Bytes()
}

// WritePriceList saves NewPriceList into a temporary directory and returns the path.
func WritePriceList(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "precios.xlsx")
	if err := os.WriteFile(path, NewPriceList(t), 0o644); err != nil {
		t.Fatalf("failed to save price list: %v", err)
	}
	return path
}

// TemplateSheet is the sheet name of the report template.
const TemplateSheet = "Presupuesto"

// NewTemplate writes a report template into a temporary directory and
// returns its path. The title row is merged across A1:O1 and every range in
// merges (e.g. "A31:B31") is merged as well. Column O of the data rows
// carries a bold font so tests can check the template style is kept.
func NewTemplate(t *testing.T, merges ...string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		t.Fatalf("failed to rename sheet: %v", err)
	}
	if err := f.SetCellValue(TemplateSheet, "A1", "PRESUPUESTO DE MEJORAMIENTO DE VIVIENDA"); err != nil {
		t.Fatalf("failed to write title: %v", err)
	}
	if err := f.MergeCell(TemplateSheet, "A1", "O1"); err != nil {
		t.Fatalf("failed to merge title: %v", err)
	}
	if err := f.SetCellValue(TemplateSheet, "N94", "TOTAL"); err != nil {
		t.Fatalf("failed to write total label: %v", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		t.Fatalf("failed to create style: %v", err)
	}
	if err := f.SetCellStyle(TemplateSheet, "O31", "O94", bold); err != nil {
		t.Fatalf("failed to style subtotal column: %v", err)
	}

	for _, m := range merges {
		var start, end string
		if _, err := fmt.Sscanf(splitRange(m), "%s %s", &start, &end); err != nil {
			t.Fatalf("bad merge range %q: %v", m, err)
		}
		if err := f.MergeCell(TemplateSheet, start, end); err != nil {
			t.Fatalf("failed to merge %s: %v", m, err)
		}
	}

	path := filepath.Join(t.TempDir(), "plantilla.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save template: %v", err)
	}
	return path
}

func splitRange(r string) string {
	for i := 0; i < len(r); i++ {
		if r[i] == ':' {
			return r[:i] + " " + r[i+1:]
		}
	}
	return r
}

func setRow(t *testing.T, f *excelize.File, sheet string, row int, values []any) {
	t.Helper()

	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		t.Fatalf("bad row %d: %v", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		t.Fatalf("failed to write row %d: %v", row, err)
	}
}
