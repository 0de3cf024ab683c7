package services

import "strings"

// CountUnits are units of measure counted in whole pieces.
var CountUnits = []string{
	"UN",
	"UND",
}

// QuantityInput describes how a user-entered quantity is stepped and bounded.
type QuantityInput struct {
	Step float64 `json:"step"`
	Min  float64 `json:"min"`
}

// QuantityInputFor returns whole-number stepping for count units and
// fractional stepping for everything else.
func QuantityInputFor(unit string) QuantityInput {
	u := strings.ToUpper(strings.TrimSpace(unit))
	for _, c := range CountUnits {
		if u == c {
			return QuantityInput{Step: 1, Min: 0}
		}
	}
	return QuantityInput{Step: 0.0001, Min: 0}
}
