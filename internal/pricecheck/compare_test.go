package pricecheck_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/offer"
	"github.com/tripwise/tripwise/internal/pricecheck"
)

func flights(prices ...float64) []offer.Flight {
	out := make([]offer.Flight, 0, len(prices))
	for _, p := range prices {
		out = append(out, offer.Flight{Price: offer.Price{Total: p, Currency: "USD"}})
	}
	return out
}

func TestComparePrices_Drop(t *testing.T) {
	res := pricecheck.ComparePrices(flights(620, 500), flights(460, 700), pricecheck.DefaultThreshold)
	require.NotNil(t, res)
	assert.Equal(t, 500.0, res.OldPrice)
	assert.Equal(t, 460.0, res.NewPrice)
	assert.InDelta(t, 8.0, res.PercentageChange, 1e-9)
	assert.True(t, res.PriceDropped)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, "40", res.Saved().String())
}

func TestComparePrices_SmallDrop(t *testing.T) {
	res := pricecheck.ComparePrices(flights(500), flights(490), pricecheck.DefaultThreshold)
	require.NotNil(t, res)
	assert.InDelta(t, 2.0, res.PercentageChange, 1e-9)
	assert.False(t, res.PriceDropped)
}

func TestComparePrices_Threshold(t *testing.T) {
	tests := []struct {
		name     string
		newPrice float64
		dropped  bool
	}{
		{"4.9 percent", 951, false},
		{"5.0 percent", 950, true},
		{"5.1 percent", 949, true},
		{"rise", 1100, false},
		{"unchanged", 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pricecheck.ComparePrices(flights(1000), flights(tt.newPrice), 0.05)
			require.NotNil(t, res)
			assert.Equal(t, tt.dropped, res.PriceDropped)
		})
	}
}

func TestComparePrices_RiseHasNegativeChange(t *testing.T) {
	res := pricecheck.ComparePrices(flights(400), flights(500), 0.05)
	require.NotNil(t, res)
	assert.InDelta(t, -25.0, res.PercentageChange, 1e-9)
	assert.True(t, res.Saved().IsZero())
}

func TestComparePrices_NoComparablePrices(t *testing.T) {
	assert.Nil(t, pricecheck.ComparePrices(nil, flights(400), 0.05))
	assert.Nil(t, pricecheck.ComparePrices(flights(400), nil, 0.05))
	assert.Nil(t, pricecheck.ComparePrices(flights(0, -5), flights(400), 0.05))
	assert.Nil(t, pricecheck.ComparePrices(flights(400), flights(0), 0.05))
}

func TestComparePrices_IgnoresInvalidEntries(t *testing.T) {
	res := pricecheck.ComparePrices(flights(0, 500), flights(-1, 450), 0.05)
	require.NotNil(t, res)
	assert.Equal(t, 500.0, res.OldPrice)
	assert.Equal(t, 450.0, res.NewPrice)
}

func TestComparePrices_CurrencyFromFirstFreshOffer(t *testing.T) {
	fresh := []offer.Flight{
		{Price: offer.Price{Total: 470, Currency: "EUR"}},
		{Price: offer.Price{Total: 460, Currency: "USD"}},
	}
	res := pricecheck.ComparePrices(flights(500), fresh, 0.05)
	require.NotNil(t, res)
	assert.Equal(t, "EUR", res.Currency)

	fresh[0].Price.Currency = ""
	res = pricecheck.ComparePrices(flights(500), fresh, 0.05)
	require.NotNil(t, res)
	assert.Equal(t, "USD", res.Currency)
}

func TestComparePrices_CurrencyFromUnpricedFirstOffer(t *testing.T) {
	var fresh []offer.Flight
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"1","price":{"currency":"EUR"}},
		{"id":"2","price":{"total":"450.00","currency":"EUR"}}
	]`), &fresh))

	res := pricecheck.ComparePrices(flights(500), fresh, 0.05)
	require.NotNil(t, res)
	assert.Equal(t, 450.0, res.NewPrice)
	assert.Equal(t, "EUR", res.Currency)
}
