package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "casa.csv", "casa.csv"},
		{"strips directories", "uploads/2025/casa.csv", "casa.csv"},
		{"backslashes", "C:\\obra\\casa.csv", "C:_obra_casa.csv"},
		{"dot dot", "..", "_"},
		{"embedded dot dot", "casa..csv", "casa_csv"},
		{"empty", "", "unnamed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestReportTitle(t *testing.T) {
	tests := []struct {
		survey string
		want   string
	}{
		{"casa.csv", "Presupuesto de obra - casa"},
		{"casa.txt", "Presupuesto de obra - casa"},
		{"casa", "Presupuesto de obra - casa"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := reportTitle(tt.survey); got != tt.want {
			t.Errorf("reportTitle(%q) = %q, want %q", tt.survey, got, tt.want)
		}
	}
}

func TestHandleReportXLSX_Headers(t *testing.T) {
	c := newTestClient(t, newTestServer(testConfig(t)))
	c.loadSamples()
	c.send(http.MethodPut, activityPath("#Cocina", "2.01"), nil)

	rec := c.get("/report.xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	ct := rec.Header().Get("Content-Type")
	if !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("expected Excel content type, got %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty body")
	}
}

func TestHandleReportPDF_Headers(t *testing.T) {
	c := newTestClient(t, newTestServer(testConfig(t)))
	c.loadSamples()

	rec := c.get("/report.pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty PDF body")
	}
}

func TestHandleReport_NoSurvey(t *testing.T) {
	c := newTestClient(t, newTestServer(testConfig(t)))

	for _, path := range []string{"/report.xlsx", "/report.pdf", "/totals"} {
		if rec := c.get(path); rec.Code != http.StatusConflict {
			t.Errorf("GET %s: expected 409, got %d", path, rec.Code)
		}
	}
}
