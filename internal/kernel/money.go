// Package kernel holds the money and fiscal-calendar primitives that every
// other component depends on. It performs no I/O.
package kernel

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Centavos is an integer amount of 1/100ths of the tenant's display
// currency unit. It is the only money representation allowed outside the
// wire-boundary conversion layer.
type Centavos int64

// maxSafeInteger mirrors the ±2^53 bound the wire layer enforces on
// incoming amounts before they ever reach ToCentavos.
const maxSafeInteger = 1 << 53

// ToCentavos converts a decimal peso amount to Centavos, rounding
// half-away-from-zero at the 0.01 boundary.
func ToCentavos(pesos decimal.Decimal) (Centavos, error) {
	f, _ := pesos.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite amount", ErrInvalidAmount)
	}
	if f > maxSafeInteger || f < -maxSafeInteger {
		return 0, fmt.Errorf("%w: amount out of range", ErrInvalidAmount)
	}

	scaled := pesos.Mul(decimal.NewFromInt(100))
	rounded := scaled.Round(0)

	// decimal.Round uses half-away-from-zero (banker's rounding is NOT the
	// default here), which matches the spec's requirement directly.
	return Centavos(rounded.IntPart()), nil
}

// FromCentavos converts Centavos back to a decimal peso amount for display.
func FromCentavos(c Centavos) decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(decimal.NewFromInt(100))
}

// Add returns the sum of two Centavos amounts.
func (c Centavos) Add(other Centavos) Centavos {
	return c + other
}

// Neg returns the additive inverse.
func (c Centavos) Neg() Centavos {
	return -c
}

// Abs returns the absolute value.
func (c Centavos) Abs() Centavos {
	if c < 0 {
		return -c
	}
	return c
}

// SumWithinTolerance reports whether total equals the sum of parts within
// the given tolerance (inclusive), used for the split-allocation invariant.
func SumWithinTolerance(total Centavos, parts []Centavos, tolerance Centavos) bool {
	var sum Centavos
	for _, p := range parts {
		sum += p
	}
	diff := (total - sum).Abs()
	return diff <= tolerance
}
