package commission

import "github.com/warp/agency-reports/generic"

// =============================================================================
// COMMISSION CALCULATOR
// =============================================================================

// Commission is the derived commission for a single property.
type Commission struct {
	Earned generic.Money
	Rate   float64 // percent
	Base   generic.Money
	Sold   bool
}

// Calculate derives commission for p.
//
//	rate   = stored rate, 0 when absent or NaN
//	base   = sold price when sold and a sold price exists, else listing price
//	earned = base * rate / 100 when both are positive, else 0
//
// Calculate never panics; non-finite inputs resolve to 0 independently.
func Calculate(p Property) Commission {
	rate := generic.FloatOr(p.CommissionRate)
	sold := p.IsSold()

	base := generic.Float(p.ListingPrice)
	if sold && p.SoldPrice != nil {
		if price := generic.Float(*p.SoldPrice); price > 0 {
			base = price
		}
	}
	if base < 0 {
		base = 0
	}

	c := Commission{
		Earned: generic.ZeroMoney(),
		Rate:   rate,
		Base:   generic.MoneyFromFloat(base),
		Sold:   sold,
	}
	if base > 0 && rate > 0 {
		c.Earned = c.Base.MulPercent(rate)
	}
	return c
}
