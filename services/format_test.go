package services

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		expect string
	}{
		{"zero", 0, "$0.00"},
		{"small", 500, "$500.00"},
		{"thousands", 1500, "$1,500.00"},
		{"millions with decimals", 1234567.891, "$1,234,567.89"},
		{"budget ceiling", 14_300_000, "$14,300,000.00"},
		{"negative", -1500, "-$1,500.00"},
		{"not a number", math.NaN(), "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCurrency(tt.amount); got != tt.expect {
				t.Errorf("FormatCurrency(%v) = %q, want %q", tt.amount, got, tt.expect)
			}
		})
	}
}

func TestFormatCurrencyWhole(t *testing.T) {
	tests := []struct {
		amount float64
		expect string
	}{
		{0, "$0"},
		{62100.4, "$62,100"},
		{62100.6, "$62,101"},
		{450000.5, "$450,000"},
		{15_600_000, "$15,600,000"},
	}
	for _, tt := range tests {
		if got := FormatCurrencyWhole(tt.amount); got != tt.expect {
			t.Errorf("FormatCurrencyWhole(%v) = %q, want %q", tt.amount, got, tt.expect)
		}
	}
}

func TestFormatQty(t *testing.T) {
	tests := []struct {
		qty    float64
		expect string
	}{
		{10, "10"},
		{0, "0"},
		{5.175, "5.17"},
		{2.5, "2.50"},
	}
	for _, tt := range tests {
		if got := formatQty(tt.qty); got != tt.expect {
			t.Errorf("formatQty(%v) = %q, want %q", tt.qty, got, tt.expect)
		}
	}
}
