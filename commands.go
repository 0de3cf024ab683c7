package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"renovationcost/config"
	"renovationcost/handlers"
	"renovationcost/services"
)

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:          "renovationcost",
		Short:        "Estimate renovation costs from a room survey and a unit price list",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(cfg), newRoomsCmd(), newEstimateCmd(cfg))
	return root
}

func newLogger(cfg config.Config, w io.Writer, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newServeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cfg, os.Stdout, true)
			if err := cfg.Validate(); err != nil {
				log.Error("invalid configuration", "error", err)
				return err
			}
			return serve(cfg, log)
		},
	}
}

func serve(cfg config.Config, log *slog.Logger) error {
	catalog, err := loadCatalog(cfg.PriceListPath, cfg.PriceListSheet)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("default price list not found, sessions must upload one", "path", cfg.PriceListPath)
	case err != nil:
		return err
	default:
		log.Info("default price list loaded", "path", cfg.PriceListPath, "activities", catalog.Len())
	}
	if _, err := os.Stat(cfg.TemplatePath); err != nil {
		log.Warn("report template not found, exports will fail", "path", cfg.TemplatePath)
	}

	srv := handlers.NewServer(cfg, catalog, log)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting renovationcost", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		return err
	}
	return nil
}

func loadCatalog(path, sheet string) (*services.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := services.LoadPriceList(f, services.PriceListOptions{Sheet: sheet})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return services.BuildCatalog(rows, nil), nil
}

func loadSurvey(path string) (services.Extraction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return services.Extraction{}, err
	}
	sections, err := services.ParseSections(raw)
	if err != nil {
		return services.Extraction{}, fmt.Errorf("%s: %w", path, err)
	}
	return services.ExtractRooms(sections, services.DefaultSurveyColumns()), nil
}

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms <survey>",
		Short: "List the rooms of a survey export with their measurements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext, err := loadSurvey(args[0])
			if err != nil {
				return err
			}
			printRooms(cmd.OutOrStdout(), ext)
			return nil
		},
	}
}

func printRooms(out io.Writer, ext services.Extraction) {
	selectable := make(map[string]bool)
	for _, name := range ext.SelectableRooms() {
		selectable[name] = true
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Room\tFloor m²\tWalls m²\tRoof m²\tFloor perim. m\tCeiling perim. m\t")
	for _, name := range ext.Order {
		p := ext.Rooms[name]
		label := name
		switch {
		case !selectable[name]:
			label += " (level)"
		case services.DefaultSelected(name):
			label += " *"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			label, p.FloorArea, p.WallArea, p.RoofArea, p.FloorPerimeter, p.CeilingPerimeter)
	}
	tw.Flush()

	warn := color.New(color.FgYellow)
	for _, e := range ext.Errors {
		warn.Fprintln(out, e.Error())
	}
}

// Selections is the JSON file the estimate command reads: the rooms in the
// intervention and the activities enabled in each of them.
type Selections struct {
	// Rooms replaces the default selection ('#' rooms) when not empty.
	Rooms            []string         `json:"rooms"`
	ReductionPercent *float64         `json:"reduction_percent"`
	Entries          []SelectionEntry `json:"entries"`
}

type SelectionEntry struct {
	Room     string  `json:"room"`
	Activity string  `json:"activity"`
	Quantity float64 `json:"quantity"`
	Height   float64 `json:"height"`
}

type estimateOptions struct {
	SurveyPath     string
	PriceListPath  string
	PriceListSheet string
	SelectionsPath string
	TemplatePath   string
	OutputPath     string
	PDFPath        string
	Budget         services.Budget
}

var errOverBudget = errors.New("over budget, report not written")

func newEstimateCmd(cfg config.Config) *cobra.Command {
	opts := estimateOptions{
		PriceListPath:  cfg.PriceListPath,
		PriceListSheet: cfg.PriceListSheet,
		TemplatePath:   cfg.TemplatePath,
		OutputPath:     cfg.ReportPath(),
		Budget:         cfg.Budget(),
	}

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Evaluate a selection and write the cost report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cfg, cmd.ErrOrStderr(), false)
			if err := cfg.Validate(); err != nil {
				log.Error("invalid configuration", "error", err)
				return err
			}
			_, err := runEstimate(opts, cmd.OutOrStdout())
			if err != nil && !errors.Is(err, errOverBudget) {
				log.Error("estimate failed", "error", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.SurveyPath, "survey", "", "survey export (text)")
	f.StringVar(&opts.PriceListPath, "price-list", opts.PriceListPath, "price list workbook")
	f.StringVar(&opts.PriceListSheet, "sheet", opts.PriceListSheet, "price list sheet")
	f.StringVar(&opts.SelectionsPath, "selections", "", "selections JSON file")
	f.StringVar(&opts.TemplatePath, "template", opts.TemplatePath, "report template workbook")
	f.StringVar(&opts.OutputPath, "out", opts.OutputPath, "report output path")
	f.StringVar(&opts.PDFPath, "pdf", "", "also write a PDF summary to this path")
	f.Float64Var(&opts.Budget.ReductionPercent, "reduction", opts.Budget.ReductionPercent, "budget reduction percent")
	cmd.MarkFlagRequired("survey")
	cmd.MarkFlagRequired("selections")
	return cmd
}

func loadSelections(path string) (Selections, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Selections{}, err
	}
	var sel Selections
	if err := json.Unmarshal(raw, &sel); err != nil {
		return Selections{}, fmt.Errorf("%s: %w", path, err)
	}
	return sel, nil
}

// applySelections builds the session the selections file describes.
func applySelections(ext services.Extraction, c *services.Catalog, sel Selections) (*services.Session, error) {
	s := services.NewSession(ext)
	if len(sel.Rooms) > 0 {
		s.Rooms = make(map[string]bool)
		for _, room := range sel.Rooms {
			if _, ok := ext.Rooms[room]; !ok {
				return nil, fmt.Errorf("unknown room %q", room)
			}
			s.SelectRoom(room, true)
		}
	}
	for _, e := range sel.Entries {
		if _, ok := ext.Rooms[e.Room]; !ok {
			return nil, fmt.Errorf("unknown room %q", e.Room)
		}
		if _, ok := c.Lookup(e.Activity); !ok {
			return nil, fmt.Errorf("unknown activity %q", e.Activity)
		}
		if err := s.Save(e.Room, e.Activity, services.CostInput{Quantity: e.Quantity, Height: e.Height}); err != nil {
			return nil, fmt.Errorf("%s / %s: %w", e.Room, e.Activity, err)
		}
	}
	return s, nil
}

func runEstimate(opts estimateOptions, out io.Writer) (services.BudgetStatus, error) {
	ext, err := loadSurvey(opts.SurveyPath)
	if err != nil {
		return services.BudgetStatus{}, err
	}
	catalog, err := loadCatalog(opts.PriceListPath, opts.PriceListSheet)
	if err != nil {
		return services.BudgetStatus{}, err
	}
	sel, err := loadSelections(opts.SelectionsPath)
	if err != nil {
		return services.BudgetStatus{}, err
	}
	session, err := applySelections(ext, catalog, sel)
	if err != nil {
		return services.BudgetStatus{}, err
	}

	budget := opts.Budget
	if sel.ReductionPercent != nil {
		budget.ReductionPercent = *sel.ReductionPercent
	}
	if err := budget.Validate(); err != nil {
		return services.BudgetStatus{}, fmt.Errorf("budget: %w", err)
	}

	entries, err := services.EvaluateSession(catalog, ext, session)
	if err != nil {
		return services.BudgetStatus{}, err
	}
	totals := services.Aggregate(session.SelectedRooms(ext), entries)
	status := budget.Check(totals.GrandTotal)

	printTotals(out, totals, entries, status)
	if status.OverBudget {
		return status, errOverBudget
	}

	rows := services.BuildSummary(catalog, entries)
	path, err := services.ExportReport(rows, opts.TemplatePath, opts.OutputPath)
	if err != nil {
		return status, err
	}
	fmt.Fprintf(out, "Report written to %s\n", path)

	if opts.PDFPath != "" {
		pdf, err := services.GenerateSummaryPDF(services.ReportData{
			Title:       "Presupuesto de obra - " + filepath.Base(opts.SurveyPath),
			CreatedDate: time.Now().Format("2006-01-02"),
			Rows:        rows,
			Totals:      totals,
			Budget:      status,
		})
		if err != nil {
			return status, err
		}
		if err := os.WriteFile(opts.PDFPath, pdf, 0o644); err != nil {
			return status, fmt.Errorf("write PDF: %w", err)
		}
		fmt.Fprintf(out, "PDF summary written to %s\n", opts.PDFPath)
	}
	return status, nil
}

func printTotals(out io.Writer, totals services.Totals, entries []services.CostEntry, status services.BudgetStatus) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, room := range totals.Rooms {
		fmt.Fprintf(tw, "%s\t%s\n", room, services.FormatCurrency(totals.Subtotals[room]))
	}
	tw.Flush()
	out.Write(buf.Bytes())

	warn := color.New(color.FgYellow)
	for _, e := range entries {
		if e.MissingMeasurement {
			warn.Fprintf(out, "warning: %s has no measurement for activity %s, using 0\n", e.Room, e.Activity)
		}
	}

	fmt.Fprintf(out, "Total:    %s\n", services.FormatCurrency(status.Total))
	fmt.Fprintf(out, "Allowed:  %s\n", services.FormatCurrency(status.Ceiling))
	if status.OverBudget {
		color.New(color.FgRed, color.Bold).Fprintf(out, "Over budget by %s\n", services.FormatCurrency(-status.Remaining))
		return
	}
	color.New(color.FgGreen).Fprintf(out, "Remaining: %s\n", services.FormatCurrency(status.Remaining))
}
