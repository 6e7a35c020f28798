package pricecheck

import (
	"github.com/shopspring/decimal"

	"github.com/tripwise/tripwise/internal/offer"
)

// DefaultThreshold is the fractional drop that counts as a price drop.
const DefaultThreshold = 0.05

var hundred = decimal.NewFromInt(100)

// Result is the outcome of comparing a stored snapshot against fresh offers.
type Result struct {
	OldPrice         float64 `json:"oldPrice"`
	NewPrice         float64 `json:"newPrice"`
	Currency         string  `json:"currency"`
	PercentageChange float64 `json:"percentageChange"`
	PriceDropped     bool    `json:"priceDropped"`
}

// ComparePrices compares the cheapest known price of old against the cheapest
// of fresh. It returns nil when either side has no positive price.
// A positive PercentageChange means fresh is cheaper.
func ComparePrices(old, fresh []offer.Flight, threshold float64) *Result {
	oldPrice, ok := offer.CheapestFlight(old)
	if !ok {
		return nil
	}
	newPrice, ok := offer.CheapestFlight(fresh)
	if !ok {
		return nil
	}

	currency := offer.DefaultCurrency
	if len(fresh) > 0 {
		currency = fresh[0].Price.CurrencyOrDefault()
	}

	o := decimal.NewFromFloat(oldPrice.Total)
	n := decimal.NewFromFloat(newPrice.Total)
	pct := o.Sub(n).Div(o).Mul(hundred)

	return &Result{
		OldPrice:         oldPrice.Total,
		NewPrice:         newPrice.Total,
		Currency:         currency,
		PercentageChange: pct.InexactFloat64(),
		PriceDropped:     pct.GreaterThanOrEqual(decimal.NewFromFloat(threshold).Mul(hundred)),
	}
}

// Saved returns the absolute amount saved, or zero when the price rose.
func (r *Result) Saved() decimal.Decimal {
	d := decimal.NewFromFloat(r.OldPrice).Sub(decimal.NewFromFloat(r.NewPrice))
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
