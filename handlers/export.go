package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"renovationcost/services"
)

// estimate is one evaluation of a workspace.
type estimate struct {
	Entries []services.CostEntry
	Totals  services.Totals
	Status  services.BudgetStatus
}

// buildEstimate evaluates every enabled activity of the selected rooms and
// compares the grand total with the budget. It must be called with ws.mu held.
func buildEstimate(ws *Workspace) (estimate, error) {
	if !ws.hasSurvey() {
		return estimate{}, errNoSurvey
	}
	if ws.Catalog == nil {
		return estimate{}, errNoPriceList
	}

	entries, err := services.EvaluateSession(ws.Catalog, ws.Extraction, ws.Selection)
	if err != nil {
		return estimate{}, err
	}
	totals := services.Aggregate(ws.Selection.SelectedRooms(ws.Extraction), entries)
	return estimate{
		Entries: entries,
		Totals:  totals,
		Status:  ws.Budget.Check(totals.GrandTotal),
	}, nil
}

var (
	errNoSurvey    = errors.New("no survey loaded")
	errNoPriceList = errors.New("no price list loaded")
)

func (s *Server) estimateError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoSurvey) || errors.Is(err, errNoPriceList) {
		ErrorToast(w, http.StatusConflict, err.Error())
		return
	}
	ErrorToast(w, http.StatusUnprocessableEntity, err.Error())
}

type missingMeasurementView struct {
	Room     string `json:"room"`
	Activity string `json:"activity"`
}

type totalsResponse struct {
	Subtotals map[string]float64       `json:"subtotals"`
	Rooms     []string                 `json:"rooms"`
	Entries   []services.CostEntry     `json:"entries"`
	Total     float64                  `json:"grand_total"`
	Budget    services.BudgetStatus    `json:"budget"`
	Display   map[string]string        `json:"display"`
	Warnings  []missingMeasurementView `json:"missing_measurements"`
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	ws.mu.Lock()
	est, err := buildEstimate(ws)
	ws.mu.Unlock()
	if err != nil {
		s.estimateError(w, err)
		return
	}

	resp := totalsResponse{
		Subtotals: est.Totals.Subtotals,
		Rooms:     est.Totals.Rooms,
		Entries:   est.Entries,
		Total:     est.Totals.GrandTotal,
		Budget:    est.Status,
		Display: map[string]string{
			"grand_total": services.FormatCurrency(est.Totals.GrandTotal),
			"ceiling":     services.FormatCurrency(est.Status.Ceiling),
			"remaining":   services.FormatCurrency(est.Status.Remaining),
		},
		Warnings: []missingMeasurementView{},
	}
	if resp.Rooms == nil {
		resp.Rooms = []string{}
	}
	if resp.Entries == nil {
		resp.Entries = []services.CostEntry{}
	}
	for _, e := range est.Entries {
		if e.MissingMeasurement {
			resp.Warnings = append(resp.Warnings, missingMeasurementView{Room: e.Room, Activity: e.Activity})
		}
	}

	if est.Status.OverBudget {
		SetToast(w, "warning", "budget exceeded: "+services.FormatCurrency(est.Totals.GrandTotal)+
			" > "+services.FormatCurrency(est.Status.Ceiling))
	}
	writeJSON(w, http.StatusOK, resp)
}

// reportSummary evaluates the workspace and returns the report rows, writing
// the error response when the report must not be produced.
func (s *Server) reportSummary(w http.ResponseWriter, ws *Workspace) (services.ReportData, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	est, err := buildEstimate(ws)
	if err != nil {
		s.estimateError(w, err)
		return services.ReportData{}, false
	}
	if est.Status.OverBudget {
		s.log.Info("report refused, over budget",
			"session", ws.ID,
			"total", est.Totals.GrandTotal,
			"ceiling", est.Status.Ceiling,
		)
		ErrorToast(w, http.StatusConflict, fmt.Sprintf("total %s exceeds the allowed cost %s",
			services.FormatCurrency(est.Totals.GrandTotal), services.FormatCurrency(est.Status.Ceiling)))
		return services.ReportData{}, false
	}

	return services.ReportData{
		Title:       reportTitle(ws.SurveyName),
		CreatedDate: time.Now().Format("2006-01-02"),
		Rows:        services.BuildSummary(ws.Catalog, est.Entries),
		Totals:      est.Totals,
		Budget:      est.Status,
	}, true
}

func reportTitle(survey string) string {
	name := strings.TrimSuffix(survey, ".csv")
	name = strings.TrimSuffix(name, ".txt")
	if name == "" {
		return ""
	}
	return "Presupuesto de obra - " + name
}

func (s *Server) exportError(w http.ResponseWriter, ws *Workspace, err error) {
	var notFound *services.TemplateNotFoundError
	switch {
	case errors.As(err, &notFound):
		s.log.Error("report template missing", "session", ws.ID, "path", notFound.Path)
		ErrorToast(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, services.ErrReportCapacity):
		ErrorToast(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error("report export failed", "session", ws.ID, "error", err)
		ErrorToast(w, http.StatusInternalServerError, "failed to generate report")
	}
}

// handleReportXLSX fills the report template and streams it back.
func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	data, ok := s.reportSummary(w, ws)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := services.WriteReport(data.Rows, s.cfg.TemplatePath, &buf); err != nil {
		s.exportError(w, ws, err)
		return
	}

	s.log.Info("report exported", "session", ws.ID, "rows", len(services.BillableRows(data.Rows)))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, s.cfg.ReportFileName))
	w.Write(buf.Bytes())
}

// handleReportSave writes the report to the configured output directory,
// replacing the previous one.
func (s *Server) handleReportSave(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	data, ok := s.reportSummary(w, ws)
	if !ok {
		return
	}

	path, err := services.ExportReport(data.Rows, s.cfg.TemplatePath, s.cfg.ReportPath())
	if err != nil {
		s.exportError(w, ws, err)
		return
	}

	s.log.Info("report saved", "session", ws.ID, "path", path)
	SetToast(w, "success", "report saved to "+path)
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r)

	data, ok := s.reportSummary(w, ws)
	if !ok {
		return
	}

	pdf, err := services.GenerateSummaryPDF(data)
	if err != nil {
		s.exportError(w, ws, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="Resumen_Presupuesto.pdf"`)
	w.Write(pdf)
}
