package market

import (
	"math"

	"github.com/shopspring/decimal"
)

// Price is a fixed-point price with nine implied decimal places
// (1 unit = 1e-9 of the instrument's currency), the upstream wire
// convention. Arithmetic on raw int64 values avoids float drift on the
// delivery path; conversions are provided for display and analytics.
type Price int64

// PriceUndefined marks a price field the venue did not populate.
const PriceUndefined Price = math.MaxInt64

// priceScale is the number of implied decimal places.
const priceScale = 9

// IsUndefined reports whether the price field was unpopulated.
func (p Price) IsUndefined() bool {
	return p == PriceUndefined
}

// Decimal returns the price as an exact decimal value.
// Undefined prices return the zero decimal.
func (p Price) Decimal() decimal.Decimal {
	if p.IsUndefined() {
		return decimal.Decimal{}
	}
	return decimal.New(int64(p), -priceScale)
}

// Float64 returns the price as a float64. Undefined prices return NaN.
func (p Price) Float64() float64 {
	if p.IsUndefined() {
		return math.NaN()
	}
	return float64(p) / 1e9
}

// String formats the price with full precision, or "undefined".
func (p Price) String() string {
	if p.IsUndefined() {
		return "undefined"
	}
	return p.Decimal().String()
}

// PriceFromDecimal converts a decimal value to the fixed-point representation.
// Precision beyond nine decimal places is truncated toward zero.
func PriceFromDecimal(d decimal.Decimal) Price {
	return Price(d.Shift(priceScale).IntPart())
}

// PriceFromFloat converts a float to the fixed-point representation.
// NaN maps to PriceUndefined.
func PriceFromFloat(f float64) Price {
	if math.IsNaN(f) {
		return PriceUndefined
	}
	return PriceFromDecimal(decimal.NewFromFloat(f))
}
