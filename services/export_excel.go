package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// Report template layout.
const (
	ReportFirstRow        = 31
	ReportLastRow         = 93
	ReportTotalCell       = "O94"
	ReportTitleColumn     = "A"
	DefaultReportFileName = "Reporte_Resultado.xlsx"

	// CurrencyFormat shows whole pesos with thousands separators.
	CurrencyFormat = `"$"#,##0`
)

// reportColumn maps one summary field to a template column.
type reportColumn struct {
	col      string
	currency bool
	value    func(r CostSummaryRow) any
}

// reportColumns is written left to right for every activity row. N holds the
// activity cost and O repeats it as the subtotal summed in ReportTotalCell.
// G is cleared.
var reportColumns = []reportColumn{
	{col: "A", value: func(r CostSummaryRow) any { return sanitizeExcelCell(r.Item) }},
	{col: "B", value: func(r CostSummaryRow) any { return sanitizeExcelCell(r.Activity) }},
	{col: "K", value: func(r CostSummaryRow) any { return sanitizeExcelCell(r.Unit) }},
	{col: "M", currency: true, value: func(r CostSummaryRow) any { return r.UnitPrice }},
	{col: "L", value: func(r CostSummaryRow) any { return r.Quantity }},
	{col: "N", currency: true, value: func(r CostSummaryRow) any { return r.Cost }},
	{col: "O", currency: true, value: func(r CostSummaryRow) any { return r.Cost }},
	{col: "G", value: func(r CostSummaryRow) any { return nil }},
}

// ExportReport fills the template with the billable summary rows and saves
// the workbook at outputPath, replacing any earlier report. When no row has
// a positive quantity the output is an unmodified copy of the template. The
// template itself is never written.
func ExportReport(rows []CostSummaryRow, templatePath, outputPath string) (string, error) {
	if err := checkTemplate(templatePath); err != nil {
		return "", err
	}

	billable := BillableRows(rows)
	if len(billable) == 0 {
		raw, err := os.ReadFile(templatePath)
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
		return outputPath, nil
	}

	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	if err := fillReport(f, billable); err != nil {
		return "", err
	}
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return outputPath, nil
}

// WriteReport renders the same workbook as ExportReport into w.
func WriteReport(rows []CostSummaryRow, templatePath string, w io.Writer) error {
	if err := checkTemplate(templatePath); err != nil {
		return err
	}

	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	billable := BillableRows(rows)
	if len(billable) == 0 {
		_, err := w.Write(raw)
		return err
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	if err := fillReport(f, billable); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func checkTemplate(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return &TemplateNotFoundError{Path: path}
	}
	if err != nil {
		return fmt.Errorf("stat template: %w", err)
	}
	return nil
}

// reportBlock is one category with its rows, in first-seen order.
type reportBlock struct {
	category string
	rows     []CostSummaryRow
}

func groupByCategory(rows []CostSummaryRow) []reportBlock {
	var blocks []reportBlock
	index := make(map[string]int)
	for _, r := range rows {
		if r.Category == "" {
			continue
		}
		i, ok := index[r.Category]
		if !ok {
			i = len(blocks)
			index[r.Category] = i
			blocks = append(blocks, reportBlock{category: r.Category})
		}
		blocks[i].rows = append(blocks[i].rows, r)
	}
	return blocks
}

// lastReportRow returns the last sheet row the blocks occupy: one title row
// per category, one row per activity, one blank row between categories.
func lastReportRow(blocks []reportBlock) int {
	row := ReportFirstRow
	for i, b := range blocks {
		row += 1 + len(b.rows)
		if i < len(blocks)-1 {
			row++
		}
	}
	return row - 1
}

func fillReport(f *excelize.File, rows []CostSummaryRow) error {
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	blocks := groupByCategory(rows)
	if last := lastReportRow(blocks); last > ReportLastRow {
		return fmt.Errorf("%w: need rows %d-%d, template reserves %d-%d",
			ErrReportCapacity, ReportFirstRow, last, ReportFirstRow, ReportLastRow)
	}

	merged, err := mergedCellSet(f, sheet)
	if err != nil {
		return err
	}
	styles := &currencyStyles{f: f, sheet: sheet, cache: make(map[int]int)}

	row := ReportFirstRow
	for _, b := range blocks {
		titleCell := fmt.Sprintf("%s%d", ReportTitleColumn, row)
		if !merged[titleCell] {
			if err := f.SetCellValue(sheet, titleCell, sanitizeExcelCell(b.category)); err != nil {
				return fmt.Errorf("write category %q: %w", b.category, err)
			}
		}
		row++

		for _, r := range b.rows {
			for _, c := range reportColumns {
				cell := fmt.Sprintf("%s%d", c.col, row)
				if merged[cell] {
					continue
				}
				if !c.currency {
					if err := f.SetCellValue(sheet, cell, c.value(r)); err != nil {
						return fmt.Errorf("write %s: %w", cell, err)
					}
					continue
				}
				if err := writeCurrency(f, styles, sheet, cell, roundMoney(c.value(r))); err != nil {
					return err
				}
			}
			row++
		}
		row++
	}

	if !merged[ReportTotalCell] {
		formula := fmt.Sprintf("SUM(O%d:O%d)", ReportFirstRow, ReportLastRow)
		if err := f.SetCellFormula(sheet, ReportTotalCell, formula); err != nil {
			return fmt.Errorf("write total formula: %w", err)
		}
		style, err := styles.forCell(ReportTotalCell)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, ReportTotalCell, ReportTotalCell, style); err != nil {
			return fmt.Errorf("style total: %w", err)
		}
	}

	fullCalc := true
	if err := f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		return fmt.Errorf("set calc props: %w", err)
	}
	return nil
}

func writeCurrency(f *excelize.File, styles *currencyStyles, sheet, cell string, amount int64) error {
	if err := f.SetCellValue(sheet, cell, amount); err != nil {
		return fmt.Errorf("write %s: %w", cell, err)
	}
	style, err := styles.forCell(cell)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
		return fmt.Errorf("style %s: %w", cell, err)
	}
	return nil
}

// currencyStyles derives, per template style, a copy with CurrencyFormat so
// fonts, borders and fills of the template survive.
type currencyStyles struct {
	f     *excelize.File
	sheet string
	cache map[int]int
}

func (s *currencyStyles) forCell(cell string) (int, error) {
	base, err := s.f.GetCellStyle(s.sheet, cell)
	if err != nil {
		return 0, fmt.Errorf("read style of %s: %w", cell, err)
	}
	if id, ok := s.cache[base]; ok {
		return id, nil
	}

	style, err := s.f.GetStyle(base)
	if err != nil || style == nil {
		style = &excelize.Style{}
	}
	numFmt := CurrencyFormat
	style.NumFmt = 0
	style.DecimalPlaces = nil
	style.CustomNumFmt = &numFmt

	id, err := s.f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("create currency style: %w", err)
	}
	s.cache[base] = id
	return id, nil
}

// mergedCellSet lists every cell covered by a merged range of the sheet.
func mergedCellSet(f *excelize.File, sheet string) (map[string]bool, error) {
	ranges, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells: %w", err)
	}
	cells := make(map[string]bool)
	for _, mc := range ranges {
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("merged range start %q: %w", mc.GetStartAxis(), err)
		}
		c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("merged range end %q: %w", mc.GetEndAxis(), err)
		}
		for c := c1; c <= c2; c++ {
			for r := r1; r <= r2; r++ {
				name, err := excelize.CoordinatesToCellName(c, r)
				if err != nil {
					return nil, err
				}
				cells[name] = true
			}
		}
	}
	return cells, nil
}

// roundMoney rounds half to even to a whole amount. Values that are not
// finite numbers become 0.
func roundMoney(v any) int64 {
	amount, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return decimal.NewFromFloat(amount).RoundBank(0).IntPart()
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
