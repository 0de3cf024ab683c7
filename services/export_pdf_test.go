package services

import (
	"testing"
)

func TestGenerateSummaryPDF(t *testing.T) {
	rows := sampleSummary()
	totals := Aggregate([]string{"#Cocina", "#Baño"}, []CostEntry{
		{Room: "#Cocina", Activity: "2.01", Cost: 450000.5},
		{Room: "#Baño", Activity: "1.01", Cost: 62100.4},
	})
	data := ReportData{
		Title:       "Presupuesto Casa Gómez",
		CreatedDate: "2025-02-01",
		Rows:        rows,
		Totals:      totals,
		Budget:      DefaultBudget().Check(totals.GrandTotal),
	}

	result, err := GenerateSummaryPDF(data)
	if err != nil {
		t.Fatalf("GenerateSummaryPDF() error = %v", err)
	}
	if len(result) < 5 || string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header")
	}
}

func TestGenerateSummaryPDF_Empty(t *testing.T) {
	result, err := GenerateSummaryPDF(ReportData{})
	if err != nil {
		t.Fatalf("GenerateSummaryPDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateSummaryPDF() returned empty bytes")
	}
}

func TestGenerateSummaryPDF_OverBudget(t *testing.T) {
	rows := []CostSummaryRow{
		{Item: "1", Category: "OBRA", Activity: "Reforzamiento estructural", Unit: "GL", UnitPrice: 20_000_000, Quantity: 1, Cost: 20_000_000},
	}
	data := ReportData{
		Rows:   rows,
		Budget: DefaultBudget().Check(20_000_000),
	}
	if !data.Budget.OverBudget {
		t.Fatal("fixture should be over budget")
	}

	result, err := GenerateSummaryPDF(data)
	if err != nil {
		t.Fatalf("GenerateSummaryPDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateSummaryPDF() returned empty bytes")
	}
}
