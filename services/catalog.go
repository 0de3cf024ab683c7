package services

import (
	"fmt"
	"strings"
)

// CostMode selects how an activity's cost is computed. It is resolved once
// when the catalog is built.
type CostMode int

const (
	// PlainMeasurement: cost = measured value × unit price.
	PlainMeasurement CostMode = iota
	// UserSupplied: cost = user-entered quantity × unit price.
	UserSupplied
	// HeightScaled: cost = measured value × unit price × entered height.
	HeightScaled
	// FormulaDefault: like PlainMeasurement, with the quantity input seeded
	// from the measured value.
	FormulaDefault
)

func (m CostMode) String() string {
	switch m {
	case UserSupplied:
		return "user_supplied"
	case HeightScaled:
		return "height_scaled"
	case FormulaDefault:
		return "formula_default"
	default:
		return "plain_measurement"
	}
}

// MarshalText lets CostMode appear by name in JSON.
func (m CostMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *CostMode) UnmarshalText(text []byte) error {
	for _, mode := range []CostMode{PlainMeasurement, UserSupplied, HeightScaled, FormulaDefault} {
		if mode.String() == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown cost mode %q", text)
}

// ResolveCostMode maps the loosely typed measurement and formula columns of
// the price list to a CostMode. A user-quantity marker in the measurement
// column wins over any formula tag.
func ResolveCostMode(measurement, formula string) CostMode {
	m := normalizeKey(measurement)
	if strings.Contains(m, "USUARIO") || strings.Contains(m, "USER") {
		return UserSupplied
	}
	f := normalizeKey(formula)
	switch {
	case strings.Contains(f, "ALTURA"):
		return HeightScaled
	case f != "":
		return FormulaDefault
	}
	return PlainMeasurement
}

// PriceListRow is one raw row of the price list.
type PriceListRow struct {
	Item        string
	Name        string
	Unit        string
	UnitPrice   float64
	Measurement string
	Formula     string
}

// Activity is one billable line item of the catalog.
type Activity struct {
	ID          string   `json:"id"`
	Item        string   `json:"item"`
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	UnitPrice   float64  `json:"unit_price"`
	Measurement string   `json:"measurement"`
	Formula     string   `json:"formula"`
	Category    string   `json:"category"`
	Mode        CostMode `json:"mode"`
}

// Key identifies the activity within the catalog. BuildCatalog assigns a
// unique ID; otherwise the key is the item code, or the name when the row
// has no code.
func (a Activity) Key() string {
	if a.ID != "" {
		return a.ID
	}
	return a.baseKey()
}

func (a Activity) baseKey() string {
	if a.Item != "" {
		return a.Item
	}
	return a.Name
}

// uniqueKey returns base, or base with the first free "-N" suffix when base
// is already taken. Price lists do repeat item codes.
func uniqueKey(base string, taken map[string]Activity) string {
	if _, dup := taken[base]; !dup {
		return base
	}
	for n := 2; ; n++ {
		key := fmt.Sprintf("%s-%d", base, n)
		if _, dup := taken[key]; !dup {
			return key
		}
	}
}

// CategoryPredicate reports whether a price-list activity name is a category
// header rather than an activity.
type CategoryPredicate func(name string) bool

// UppercaseCategory treats a non-empty name that is unchanged by upper-casing
// as a category header ("PISOS Y ENCHAPES"). Names with only digits or
// punctuation also qualify; callers with such rows should supply their own
// predicate.
func UppercaseCategory(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && toUpper(name) == name
}

// Catalog is the price list grouped into ordered categories.
type Catalog struct {
	categories []string
	activities map[string][]Activity
	byKey      map[string]Activity
}

// BuildCatalog groups price-list rows under the category header that precedes
// them. Rows before the first header and blank rows are dropped. A nil
// predicate means UppercaseCategory. Every activity gets its own ID: the
// first row with a given code keeps the code, later ones get a suffix.
func BuildCatalog(rows []PriceListRow, isCategory CategoryPredicate) *Catalog {
	if isCategory == nil {
		isCategory = UppercaseCategory
	}
	c := &Catalog{
		activities: make(map[string][]Activity),
		byKey:      make(map[string]Activity),
	}

	current := ""
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if isCategory(name) {
			current = name
			if _, seen := c.activities[current]; !seen {
				c.categories = append(c.categories, current)
				c.activities[current] = nil
			}
			continue
		}
		if current == "" || (name == "" && strings.TrimSpace(r.Item) == "") {
			continue
		}

		price := r.UnitPrice
		if price < 0 {
			price = 0
		}
		a := Activity{
			Item:        strings.TrimSpace(r.Item),
			Name:        name,
			Unit:        strings.TrimSpace(r.Unit),
			UnitPrice:   price,
			Measurement: strings.TrimSpace(r.Measurement),
			Formula:     strings.TrimSpace(r.Formula),
			Category:    current,
		}
		a.Mode = ResolveCostMode(a.Measurement, a.Formula)
		a.ID = uniqueKey(a.baseKey(), c.byKey)

		c.activities[current] = append(c.activities[current], a)
		c.byKey[a.ID] = a
	}
	return c
}

// Categories returns category names in first-seen order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Activities returns the activities of one category in price-list order.
func (c *Catalog) Activities(category string) []Activity {
	return append([]Activity(nil), c.activities[category]...)
}

// All returns every activity, category by category.
func (c *Catalog) All() []Activity {
	var out []Activity
	for _, cat := range c.categories {
		out = append(out, c.activities[cat]...)
	}
	return out
}

// Lookup finds an activity by its ID.
func (c *Catalog) Lookup(key string) (Activity, bool) {
	a, ok := c.byKey[key]
	return a, ok
}

// Len returns the number of activities.
func (c *Catalog) Len() int {
	n := 0
	for _, acts := range c.activities {
		n += len(acts)
	}
	return n
}
