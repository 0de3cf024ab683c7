package services

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatCurrency formats an amount for display as "$1,234,567.89": comma
// thousands separators and exactly 2 decimal places.
func FormatCurrency(amount float64) string {
	return formatAmount(amount, "#,###.##")
}

// FormatCurrencyWhole formats an amount without decimals, matching the
// number format of the exported report.
func FormatCurrencyWhole(amount float64) string {
	return formatAmount(float64(roundMoney(amount)), "#,###.")
}

func formatAmount(amount float64, pattern string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "$" + humanize.FormatFloat(pattern, amount)
}

// formatQty returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}
