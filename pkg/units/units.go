// Package units centralizes mass unit conversions so call sites never
// repeat ad hoc ounce/gram/pound arithmetic.
package units

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a supported mass unit
type Unit string

const (
	Grams     Unit = "g"
	Kilograms Unit = "kg"
	Ounces    Unit = "oz"
	Pounds    Unit = "lb"
)

var gramsPer = map[Unit]decimal.Decimal{
	Grams:     decimal.NewFromInt(1),
	Kilograms: decimal.NewFromInt(1000),
	Ounces:    decimal.RequireFromString("28.349523125"),
	Pounds:    decimal.RequireFromString("453.59237"),
}

// ParseUnit parses a unit symbol, case-insensitively
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case Grams, "gram", "grams":
		return Grams, nil
	case Kilograms, "kilogram", "kilograms":
		return Kilograms, nil
	case Ounces, "ounce", "ounces":
		return Ounces, nil
	case Pounds, "lbs", "pound", "pounds":
		return Pounds, nil
	}
	return "", fmt.Errorf("unknown mass unit %q", s)
}

// Mass is a mass quantity held internally in grams
type Mass struct {
	grams decimal.Decimal
}

// NewMass creates a Mass from an amount in the given unit
func NewMass(amount decimal.Decimal, unit Unit) (Mass, error) {
	factor, ok := gramsPer[unit]
	if !ok {
		return Mass{}, fmt.Errorf("unknown mass unit %q", unit)
	}
	return Mass{grams: amount.Mul(factor)}, nil
}

// MassFromGrams creates a Mass from a float amount of grams
func MassFromGrams(grams float64) Mass {
	return Mass{grams: decimal.NewFromFloat(grams)}
}

// Add returns the sum of two masses
func (m Mass) Add(other Mass) Mass {
	return Mass{grams: m.grams.Add(other.grams)}
}

// Mul returns the mass scaled by a factor
func (m Mass) Mul(factor decimal.Decimal) Mass {
	return Mass{grams: m.grams.Mul(factor)}
}

// In converts the mass to the given unit
func (m Mass) In(unit Unit) (decimal.Decimal, error) {
	factor, ok := gramsPer[unit]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown mass unit %q", unit)
	}
	return m.grams.DivRound(factor, 3), nil
}

// Grams returns the mass in grams as a float
func (m Mass) Grams() float64 {
	f, _ := m.grams.Float64()
	return f
}

// IsZero reports whether the mass is zero
func (m Mass) IsZero() bool {
	return m.grams.IsZero()
}

// String formats the mass in the most natural unit
func (m Mass) String() string {
	if m.grams.GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		kg, _ := m.In(Kilograms)
		return kg.StringFixed(2) + " kg"
	}
	return m.grams.StringFixed(0) + " g"
}
