package mailbox

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// FormatMoney renders amount with two decimals and the currency symbol when
// one is known, otherwise prefixed by the ISO code ("CHF 12.50").
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}
	value := amount.StringFixed(2)
	if sym, ok := currencySymbols[code]; ok {
		if amount.IsNegative() {
			return "-" + sym + amount.Abs().StringFixed(2)
		}
		return sym + value
	}
	return code + " " + value
}
