/*
Package generic provides the domain-agnostic pieces of the reporting engine.

PURPOSE:
  Money arithmetic, percentages, date windows, ranking and pagination are the
  same whether we are summing commission for an agency or counting door knocks
  on a street. They live here so the commission package only has to describe
  WHAT is folded, never HOW numbers are added, capped or sliced.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - Progress: actual-vs-target percentage capped at 100
  - Ratio: uncapped percentage (conversion rate)
  - Float: NaN/Inf-safe resolution of optional numeric inputs

DESIGN PRINCIPLES:
  1. Precision: Money uses decimal.Decimal, so summing 10000 + 15000 is exact
  2. Totality: Every helper is defined for every input (NaN, Inf, nil -> 0)
  3. No rounding until display: only Round1 rounds, and only for percentages

USAGE:
  earned := generic.MoneyFromFloat(400000).MulPercent(2.5)  // 10000
  pct := generic.Progress(40, 100)                          // 40.0

SEE ALSO:
  - period.go: Date windows used by filters
  - rank.go:   Descending ranking and Top-N
  - page.go:   Page arithmetic and the Pager cursor
*/
package generic

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount (currency code is a display concern)
// =============================================================================

// Money is an exact currency amount.
type Money struct {
	Value decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ZeroMoney returns an amount of zero.
func ZeroMoney() Money { return Money{Value: decimal.Zero} }

// MoneyFromFloat converts a float. NaN and infinities resolve to zero.
func MoneyFromFloat(f float64) Money {
	return Money{Value: decimal.NewFromFloat(Float(f))}
}

// MoneyFromString parses a decimal string, returning zero on failure.
func MoneyFromString(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(b Money) Money         { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money         { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) IsZero() bool              { return m.Value.IsZero() }
func (m Money) IsPositive() bool          { return m.Value.IsPositive() }
func (m Money) IsNegative() bool          { return m.Value.IsNegative() }
func (m Money) GreaterThan(b Money) bool  { return m.Value.GreaterThan(b.Value) }
func (m Money) Equal(b Money) bool        { return m.Value.Equal(b.Value) }
func (m Money) Cmp(b Money) int           { return m.Value.Cmp(b.Value) }
func (m Money) Float64() float64          { return m.Value.InexactFloat64() }
func (m Money) String() string            { return m.Value.StringFixed(2) }

// MulPercent returns m * (rate / 100).
func (m Money) MulPercent(rate float64) Money {
	r := decimal.NewFromFloat(Float(rate))
	return Money{Value: m.Value.Mul(r).Div(hundred)}
}

// =============================================================================
// NUMERIC HELPERS
// =============================================================================

// Float resolves NaN and infinities to zero.
func Float(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FloatOr dereferences an optional float, treating nil as zero.
func FloatOr(f *float64) float64 {
	if f == nil {
		return 0
	}
	return Float(*f)
}

// IntOr dereferences an optional int, treating nil as zero.
func IntOr(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// Progress returns actual/target*100 capped to [0, 100], rounded to one
// decimal place. A target of zero yields zero.
func Progress(actual, target float64) float64 {
	actual, target = Float(actual), Float(target)
	if target <= 0 {
		return 0
	}
	pct := actual / target * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return Round1(pct)
}

// Ratio returns numerator/denominator*100 without a cap. Zero denominator
// yields zero.
func Ratio(numerator, denominator float64) float64 {
	numerator, denominator = Float(numerator), Float(denominator)
	if denominator == 0 {
		return 0
	}
	return Float(numerator / denominator * 100)
}

// Round1 rounds half away from zero to one decimal place.
func Round1(f float64) float64 {
	return math.Round(Float(f)*10) / 10
}

// Mean is the arithmetic mean, zero for an empty sum.
func Mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return Float(sum / float64(n))
}
