package export

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/warp/agency-reports/generic"
)

// DefaultCurrencyCode is used when no currency is configured.
const DefaultCurrencyCode = money.AUD

// CurrencyFormatter renders an amount for display.
type CurrencyFormatter func(generic.Money) string

// DefaultCurrency formats in DefaultCurrencyCode.
var DefaultCurrency = MoneyFormatter(DefaultCurrencyCode)

// MoneyFormatter formats amounts in the ISO 4217 currency code, e.g.
// "A$25,000.00" for AUD, "$25,000.00" for USD. Unknown codes fall back to DefaultCurrencyCode.
func MoneyFormatter(code string) CurrencyFormatter {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !KnownCurrency(code) {
		code = DefaultCurrencyCode
	}
	return func(m generic.Money) string {
		return money.New(minorUnits(m, code), code).Display()
	}
}

// KnownCurrency reports whether code is an ISO 4217 code go-money knows.
func KnownCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// minorUnits rounds m to the currency's smallest unit.
func minorUnits(m generic.Money, code string) int64 {
	fraction := int32(money.GetCurrency(code).Fraction)
	return m.Value.Shift(fraction).Round(0).IntPart()
}
