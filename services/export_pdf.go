package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateSummaryPDF renders the billable summary rows grouped by category,
// followed by room subtotals and the budget comparison. It returns the raw
// PDF bytes.
func GenerateSummaryPDF(data ReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for _, b := range groupByCategory(BillableRows(data.Rows)) {
		addCategoryRow(m, b.category)
		for _, r := range b.rows {
			addTableRow(m, r)
		}
	}
	addRoomSubtotals(m, data.Totals)
	addSummary(m, data.Budget)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the title and date to the PDF.
func addHeader(m core.Maroto, data ReportData) {
	title := data.Title
	if title == "" {
		title = "Presupuesto de obra"
	}
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	if data.CreatedDate != "" {
		m.AddRows(
			row.New(8).Add(
				col.New(12).Add(
					text.New(fmt.Sprintf("Fecha: %s", data.CreatedDate), props.Text{
						Size:  9,
						Align: align.Right,
						Color: &props.Color{Red: 80, Green: 80, Blue: 80},
					}),
				),
			),
		)
	}

	m.AddRows(row.New(4))
}

// addTableHeader adds the column header row of the activity table.
func addTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("Ítem", headerText)).WithStyle(&headerCell),
			col.New(5).Add(text.New("Actividad", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Unidad", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Cantidad", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Valor unitario", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Costo", headerText)).WithStyle(&headerCell),
		),
	)
}

// addCategoryRow adds a bold, shaded category title spanning the table.
func addCategoryRow(m core.Maroto, category string) {
	bg := &props.Color{Red: 235, Green: 235, Blue: 235}
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(
				text.New(category, props.Text{
					Size:  8,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			).WithStyle(&props.Cell{BackgroundColor: bg}),
		),
	)
}

// addTableRow adds one activity row.
func addTableRow(m core.Maroto, r CostSummaryRow) {
	baseText := props.Text{Size: 7, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	m.AddRows(
		row.New(7).Add(
			col.New(1).Add(text.New(r.Item, baseText)),
			col.New(5).Add(text.New(r.Activity, leftText)),
			col.New(1).Add(text.New(r.Unit, baseText)),
			col.New(1).Add(text.New(formatQty(r.Quantity), rightText)),
			col.New(2).Add(text.New(FormatCurrencyWhole(r.UnitPrice), rightText)),
			col.New(2).Add(text.New(FormatCurrencyWhole(r.Cost), rightText)),
		),
	)
}

// addRoomSubtotals lists the subtotal of every selected room.
func addRoomSubtotals(m core.Maroto, totals Totals) {
	if len(totals.Rooms) == 0 {
		return
	}
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New("Subtotales por habitación", props.Text{
					Size:  9,
					Style: fontstyle.Bold,
				}),
			),
		),
	)
	for _, room := range totals.Rooms {
		m.AddRows(
			row.New(6).Add(
				col.New(8).Add(text.New(room, props.Text{Size: 8})),
				col.New(4).Add(text.New(FormatCurrency(totals.Subtotals[room]), props.Text{
					Size:  8,
					Align: align.Right,
				})),
			),
		)
	}
}

// addSummary adds the grand total and the budget ceiling.
func addSummary(m core.Maroto, status BudgetStatus) {
	m.AddRows(row.New(6))

	summaryBg := &props.Color{Red: 240, Green: 240, Blue: 240}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := labelStyle
	if status.OverBudget {
		valueStyle.Color = &props.Color{Red: 200, Green: 30, Blue: 30}
	}

	lines := []struct {
		label string
		value float64
	}{
		{"Total general", status.Total},
		{"Costo permitido", status.Ceiling},
		{"Disponible", status.Remaining},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l.label, labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatCurrency(l.value), valueStyle)).WithStyle(summaryCell),
			),
		)
	}
}
