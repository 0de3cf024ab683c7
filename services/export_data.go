package services

// CostSummaryRow is one activity of the cost report, summed over all rooms.
type CostSummaryRow struct {
	Item      string  `json:"item"`
	Category  string  `json:"category"`
	Activity  string  `json:"activity"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	Cost      float64 `json:"cost"`
}

// ReportData holds everything the PDF summary needs.
type ReportData struct {
	Title       string
	CreatedDate string
	Rows        []CostSummaryRow
	Totals      Totals
	Budget      BudgetStatus
}

// BuildSummary produces one row per catalog activity, in catalog order, with
// quantities and costs summed across rooms by activity ID. Activities no
// entry refers to have zero quantity.
func BuildSummary(c *Catalog, entries []CostEntry) []CostSummaryRow {
	qty := make(map[string]float64)
	cost := make(map[string]float64)
	for _, e := range entries {
		qty[e.Activity] += e.Quantity
		cost[e.Activity] += e.Cost
	}

	var rows []CostSummaryRow
	for _, a := range c.All() {
		rows = append(rows, CostSummaryRow{
			Item:      a.Item,
			Category:  a.Category,
			Activity:  a.Name,
			Unit:      a.Unit,
			UnitPrice: a.UnitPrice,
			Quantity:  qty[a.Key()],
			Cost:      cost[a.Key()],
		})
	}
	return rows
}

// BillableRows keeps the rows with a positive quantity.
func BillableRows(rows []CostSummaryRow) []CostSummaryRow {
	var out []CostSummaryRow
	for _, r := range rows {
		if r.Quantity > 0 {
			out = append(out, r)
		}
	}
	return out
}
