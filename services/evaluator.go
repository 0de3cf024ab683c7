package services

import (
	"errors"
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CostInput is what the user entered for one (room, activity) pair.
// Quantity is used by user-supplied activities, Height by height-scaled ones.
type CostInput struct {
	Quantity float64 `json:"quantity"`
	Height   float64 `json:"height"`
}

// Validate rejects negative and non-finite inputs.
func (in CostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Quantity, validation.By(finiteNonNegative)),
		validation.Field(&in.Height, validation.By(finiteNonNegative)),
	)
}

func finiteNonNegative(value interface{}) error {
	v, ok := value.(float64)
	if !ok {
		return errors.New("must be a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New("must be a finite number")
	}
	if v < 0 {
		return errors.New("must be no less than 0")
	}
	return nil
}

// CostResult is the evaluated cost of one activity in one room.
// MissingMeasurement is set when the room has no value for the activity's
// measurement key and 0 was used instead.
type CostResult struct {
	Quantity           float64 `json:"quantity"`
	Height             float64 `json:"height,omitempty"`
	Cost               float64 `json:"cost"`
	MissingMeasurement bool    `json:"missing_measurement,omitempty"`
}

// CalcLineCost is quantity × unit price.
func CalcLineCost(quantity, unitPrice float64) float64 {
	return quantity * unitPrice
}

// Evaluate computes the cost of activity a in a room. The result is not
// rounded. Only invalid input is an error; a missing measurement yields a
// zero quantity with MissingMeasurement set.
func Evaluate(a Activity, room RoomProperties, in CostInput) (CostResult, error) {
	if err := in.Validate(); err != nil {
		return CostResult{}, fmt.Errorf("invalid input for %q: %w", a.Name, err)
	}

	if a.Mode == UserSupplied {
		return CostResult{
			Quantity: in.Quantity,
			Cost:     CalcLineCost(in.Quantity, a.UnitPrice),
		}, nil
	}

	measured, ok := room.Measurement(a.Measurement)
	res := CostResult{Quantity: measured, MissingMeasurement: !ok}

	switch a.Mode {
	case HeightScaled:
		res.Height = in.Height
		res.Cost = CalcLineCost(measured, a.UnitPrice) * in.Height
	default:
		res.Cost = CalcLineCost(measured, a.UnitPrice)
	}
	return res, nil
}

// Seed returns the value a quantity input starts from: the room's measured
// value for measurement-driven activities, 0 for user-supplied ones.
func Seed(a Activity, room RoomProperties) float64 {
	if a.Mode == UserSupplied {
		return 0
	}
	v, _ := room.Measurement(a.Measurement)
	return v
}
