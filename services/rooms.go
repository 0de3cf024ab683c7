package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Measurement keys used by the price list to reference room geometry.
const (
	MeasureFloorArea        = "MAGICPLAN - ÁREA PISO"
	MeasureWallArea         = "MAGICPLAN - ÁREA PARED"
	MeasureRoofArea         = "MAGICPLAN - ÁREA CUBIERTA"
	MeasureFloorPerimeter   = "MAGICPLAN - PERIMETRO PISO"
	MeasureCeilingPerimeter = "MAGICPLAN - PERIMETRO CUBIERTA"
)

// roofFactor is applied to the floor area when the floor and ceiling
// perimeters differ by at least roofPerimeterTolerance.
const (
	roofFactor             = 1.15
	roofPerimeterTolerance = 0.1
)

// SurveyColumns names the geometry columns of a survey table.
type SurveyColumns struct {
	FloorArea        string
	WallArea         string
	FloorPerimeter   string
	CeilingPerimeter string
}

// DefaultSurveyColumns returns the headers written by the MagicPlan room export.
func DefaultSurveyColumns() SurveyColumns {
	return SurveyColumns{
		FloorArea:        "Tierra Superficie: : m²",
		WallArea:         "Paredes sin apertura: m²",
		FloorPerimeter:   "Tierra Perímetro: m",
		CeilingPerimeter: "Techo Perímetro: m",
	}
}

// RoomProperties holds the geometry derived for one room.
type RoomProperties struct {
	FloorArea        float64 `json:"floor_area"`
	WallArea         float64 `json:"wall_area"`
	RoofArea         float64 `json:"roof_area"`
	FloorPerimeter   float64 `json:"floor_perimeter"`
	CeilingPerimeter float64 `json:"ceiling_perimeter"`
}

// NewRoomProperties derives the roof area from the floor area and perimeters.
// A perimeter mismatch means a sloped or irregular ceiling, which needs 15%
// more covering material.
func NewRoomProperties(floorArea, wallArea, floorPerimeter, ceilingPerimeter float64) RoomProperties {
	roof := floorArea
	if math.Abs(floorPerimeter-ceilingPerimeter) >= roofPerimeterTolerance {
		roof = floorArea * roofFactor
	}
	return RoomProperties{
		FloorArea:        floorArea,
		WallArea:         wallArea,
		RoofArea:         roof,
		FloorPerimeter:   floorPerimeter,
		CeilingPerimeter: ceilingPerimeter,
	}
}

// Measurement looks up a value by price-list measurement key.
func (p RoomProperties) Measurement(key string) (float64, bool) {
	switch normalizeKey(key) {
	case MeasureFloorArea:
		return p.FloorArea, true
	case MeasureWallArea:
		return p.WallArea, true
	case MeasureRoofArea:
		return p.RoofArea, true
	case MeasureFloorPerimeter:
		return p.FloorPerimeter, true
	case MeasureCeilingPerimeter:
		return p.CeilingPerimeter, true
	}
	return 0, false
}

// RoomError records a survey row that could not be turned into a room.
type RoomError struct {
	Label string `json:"label"`
	Row   int    `json:"row"`
	Err   error  `json:"-"`
}

func (e RoomError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Label, e.Row, e.Err)
}

// Extraction is the result of ExtractRooms. Order lists rooms as they appear
// in the export.
type Extraction struct {
	Rooms  map[string]RoomProperties `json:"rooms"`
	Order  []string                  `json:"order"`
	Errors []RoomError               `json:"errors,omitempty"`
}

var (
	errMissingRoomName = errors.New("row has no room name")
	errDuplicateRoom   = errors.New("room already defined")
)

// ExtractRooms computes room properties from every table section that holds
// both the floor-area and wall-area columns. Other sections are ignored.
// Rows are independent: a bad row is reported in Errors and the rest continue.
func ExtractRooms(sections []Section, cols SurveyColumns) Extraction {
	ext := Extraction{Rooms: make(map[string]RoomProperties)}

	for _, s := range sections {
		if s.Kind != SectionTable || s.Table == nil {
			continue
		}
		floorIdx := findColumn(s.Table, cols.FloorArea)
		wallIdx := findColumn(s.Table, cols.WallArea)
		if floorIdx < 0 || wallIdx < 0 {
			continue
		}
		floorPerimIdx := findColumn(s.Table, cols.FloorPerimeter)
		ceilingPerimIdx := findColumn(s.Table, cols.CeilingPerimeter)

		for i, row := range s.Table.Rows {
			rowNum := i + 2 // 1-indexed, +1 for header row
			name := cellAt(row, 0)
			if name == "" {
				ext.Errors = append(ext.Errors, RoomError{Label: "error in " + s.Key(), Row: rowNum, Err: errMissingRoomName})
				continue
			}
			if _, exists := ext.Rooms[name]; exists {
				ext.Errors = append(ext.Errors, RoomError{
					Label: "error in " + s.Key(),
					Row:   rowNum,
					Err:   fmt.Errorf("%w: %q", errDuplicateRoom, name),
				})
				continue
			}

			ext.Rooms[name] = NewRoomProperties(
				coerceMeasure(cellAt(row, floorIdx)),
				coerceMeasure(cellAt(row, wallIdx)),
				coerceMeasure(cellAt(row, floorPerimIdx)),
				coerceMeasure(cellAt(row, ceilingPerimIdx)),
			)
			ext.Order = append(ext.Order, name)
		}
	}
	return ext
}

// SelectableRooms returns the rooms offered for selection, in export order.
// Level rows ("Piso 1", "Segundo piso") summarise a whole floor and are left out.
func (e Extraction) SelectableRooms() []string {
	var out []string
	for _, name := range e.Order {
		if strings.Contains(strings.ToLower(name), "piso") {
			continue
		}
		out = append(out, name)
	}
	return out
}

// DefaultSelected reports whether a room starts out selected. Surveyors
// prefix rooms that are part of the intervention with '#'.
func DefaultSelected(room string) bool {
	return strings.HasPrefix(room, "#")
}

func findColumn(t *Table, name string) int {
	if name == "" {
		return -1
	}
	want := normalizeKey(name)
	for i, c := range t.Columns {
		if normalizeKey(c) == want {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// coerceMeasure reads a geometry cell. Blank, unparsable, negative and
// non-finite values all become 0.
func coerceMeasure(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
