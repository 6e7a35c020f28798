package scorer_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/offer"
	"github.com/tripwise/tripwise/internal/scorer"
)

func flightAt(price float64, dep, arr string, extraSegments int) offer.Flight {
	segs := []offer.Segment{{
		Departure: offer.Endpoint{At: dep},
		Arrival:   offer.Endpoint{At: arr},
	}}
	for i := 0; i < extraSegments; i++ {
		segs = append(segs, offer.Segment{Departure: offer.Endpoint{At: arr}, Arrival: offer.Endpoint{At: arr}})
	}
	return offer.Flight{
		Price:       offer.Price{Total: price, Currency: "USD"},
		Itineraries: []offer.Itinerary{{Segments: segs}},
	}
}

func hotelAt(price, rating float64) offer.Hotel {
	return offer.Hotel{Price: offer.Price{Total: price}, Rating: rating}
}

func TestScoreFlight_Weights(t *testing.T) {
	// 6h, direct, half the budget.
	f := flightAt(500, "2026-05-01T08:00:00", "2026-05-01T14:00:00", 0)

	s := scorer.ScoreFlight(f, 1000)
	assert.Equal(t, 500.0, s.Price)
	assert.Equal(t, 360.0, s.DurationMin)
	assert.Equal(t, 0, s.Stops)
	assert.InDelta(t, 0.5*0.55+0.75*0.25+1*0.20, s.Score, 1e-9)
}

func TestScoreFlight_MissingDataUsesSentinels(t *testing.T) {
	s := scorer.ScoreFlight(offer.Flight{}, 1000)

	assert.Equal(t, scorer.UnknownPrice, s.Price)
	assert.Equal(t, scorer.DefaultDurationMinutes, s.DurationMin)
	assert.Equal(t, 0, s.Stops)
	// price and duration contribute nothing, zero stops contributes fully.
	assert.InDelta(t, 0.20, s.Score, 1e-9)
}

func TestScoreFlight_NoBudget(t *testing.T) {
	f := flightAt(400, "2026-05-01T08:00:00", "2026-05-01T08:00:00", 0)

	s := scorer.ScoreFlight(f, 0)
	// priceScore = 1 - 400/401
	assert.InDelta(t, (1-400.0/401.0)*0.55+0.25+0.20, s.Score, 1e-9)
}

func TestScoreFlight_Stops(t *testing.T) {
	f := flightAt(100, "2026-05-01T08:00:00", "2026-05-01T09:00:00", 7)

	s := scorer.ScoreFlight(f, 1000)
	assert.Equal(t, 7, s.Stops)
	assert.GreaterOrEqual(t, s.Score, 0.0)
}

func TestScoreHotel(t *testing.T) {
	tests := []struct {
		name   string
		hotel  offer.Hotel
		budget float64
		want   float64
	}{
		{"priced and rated", hotelAt(300, 4), 1000, 0.7*0.6 + 0.8*0.4},
		{"rating clamped at five", hotelAt(300, 9), 1000, 0.7*0.6 + 0.4},
		{"unpriced listing", hotelAt(0, 5), 1000, 0.4},
		{"over budget", hotelAt(2000, 0), 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scorer.ScoreHotel(tt.hotel, tt.budget)
			assert.InDelta(t, tt.want, s.Score, 1e-9)
		})
	}
}

func TestScores_AreBounded(t *testing.T) {
	flights := []offer.Flight{
		{},
		flightAt(1, "2026-05-01T10:00:00", "2026-05-01T08:00:00", 0), // arrival before departure
		flightAt(5_000_000, "2026-05-01T08:00:00", "2026-05-04T08:00:00", 12),
		flightAt(250, "2026-05-01T08:00:00", "2026-05-01T09:00:00", 1),
	}
	hotels := []offer.Hotel{{}, hotelAt(1, 100), hotelAt(99999, 0), hotelAt(80, 3.5)}

	for _, budget := range []float64{1, 500, 1e7} {
		for _, f := range flights {
			s := scorer.ScoreFlight(f, budget).Score
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
		for _, h := range hotels {
			s := scorer.ScoreHotel(h, budget).Score
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestScoreFlight_CheaperNeverScoresLower(t *testing.T) {
	for _, budget := range []float64{300, 1000, 5000} {
		for p := 50.0; p < 6000; p += 250 {
			cheap := flightAt(p, "2026-05-01T08:00:00", "2026-05-01T12:00:00", 1)
			pricey := flightAt(p+100, "2026-05-01T08:00:00", "2026-05-01T12:00:00", 1)
			assert.GreaterOrEqual(t,
				scorer.ScoreFlight(cheap, budget).Score,
				scorer.ScoreFlight(pricey, budget).Score,
			)
		}
	}
}

func TestFindBestPackage_EmptyInputs(t *testing.T) {
	flights := []offer.Flight{flightAt(100, "2026-05-01T08:00:00", "2026-05-01T09:00:00", 0)}
	hotels := []offer.Hotel{hotelAt(100, 3)}

	assert.Nil(t, scorer.FindBestPackage(nil, hotels, 1000))
	assert.Nil(t, scorer.FindBestPackage(flights, nil, 1000))
	assert.Nil(t, scorer.FindBestPackage(nil, nil, 1000))
}

func TestFindBestPackage_ScenarioA(t *testing.T) {
	var flights []offer.Flight
	require.NoError(t, json.Unmarshal([]byte(`[{"price":{"total":500},"itineraries":[{"segments":[
		{"departure":{"at":"2025-01-01T08:00:00Z"},"arrival":{"at":"2025-01-01T08:00:00Z"}}]}]}]`), &flights))
	var hotels []offer.Hotel
	require.NoError(t, json.Unmarshal([]byte(`[{"offers":[{"price":{"total":300}}]}]`), &hotels))

	best := scorer.FindBestPackage(flights, hotels, 1000)
	require.NotNil(t, best)
	assert.Equal(t, 800.0, best.CombinedPrice)
	assert.True(t, best.FitsBudget)
	assert.InDelta(t, 0.725, best.FlightScore, 1e-9)
	assert.InDelta(t, 0.42, best.HotelScore, 1e-9)
	assert.InDelta(t, 0.725*0.6+0.42*0.4, best.CombinedScore, 1e-9)
}

func TestFindBestPackage_PrefersComboWithinBudget(t *testing.T) {
	// The cheap flight scores well; the luxury hotel scores best on its own
	// but pushes every combination over budget.
	flights := []offer.Flight{flightAt(300, "2026-05-01T08:00:00", "2026-05-01T10:00:00", 0)}
	hotels := []offer.Hotel{hotelAt(800, 5), hotelAt(500, 2)}

	best := scorer.FindBestPackage(flights, hotels, 1000)
	require.NotNil(t, best)
	assert.True(t, best.FitsBudget)
	assert.Equal(t, 800.0, best.CombinedPrice)
}

func TestFindBestPackage_FallsBackWhenNothingFits(t *testing.T) {
	flights := []offer.Flight{
		flightAt(900, "2026-05-01T08:00:00", "2026-05-01T10:00:00", 0),
		flightAt(950, "2026-05-01T08:00:00", "2026-05-01T20:00:00", 2),
	}
	hotels := []offer.Hotel{hotelAt(400, 4), hotelAt(600, 5)}

	best := scorer.FindBestPackage(flights, hotels, 1000)
	require.NotNil(t, best)
	assert.False(t, best.FitsBudget)
	assert.Equal(t, 900.0, best.Flight.Price.Total)
	assert.Equal(t, 400.0, best.Hotel.Price.Total)
}

func TestFindBestPackage_OnlyTopFiveConsidered(t *testing.T) {
	// Five strong flights plus a sixth that is cheap but very slow; it ranks
	// sixth by score and must never appear in the result.
	var flights []offer.Flight
	for i := 0; i < 5; i++ {
		flights = append(flights, flightAt(200, "2026-05-01T08:00:00", "2026-05-01T09:00:00", 0))
	}
	slow := flightAt(190, "2026-05-01T08:00:00", "2026-05-03T08:00:00", 5)
	flights = append(flights, slow)

	best := scorer.FindBestPackage(flights, []offer.Hotel{hotelAt(100, 3)}, 1000)
	require.NotNil(t, best)
	assert.Equal(t, 200.0, best.Flight.Price.Total)
}
