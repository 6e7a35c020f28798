// Package scorer ranks flight and hotel offers against a budget and picks the
// best flight+hotel package. Scoring is total: malformed offers are scored with
// sentinel values instead of failing.
package scorer

import (
	"cmp"
	"slices"

	"github.com/tripwise/tripwise/internal/offer"
)

const (
	// UnknownPrice is used for offers without a usable price so they rank last on price.
	UnknownPrice = 1_000_000.0

	// DefaultDurationMinutes is assumed when a flight's outbound duration cannot be read.
	DefaultDurationMinutes = 24 * 60.0

	maxStops  = 5.0
	maxRating = 5.0

	// TopK bounds how many flights and hotels enter the package cross product.
	TopK = 5
)

// FlightScore is the result of scoring one flight offer.
type FlightScore struct {
	Score       float64 `json:"score"`
	Price       float64 `json:"price"`
	DurationMin float64 `json:"durationMin"`
	Stops       int     `json:"stops"`
}

// HotelScore is the result of scoring one hotel offer.
type HotelScore struct {
	Score  float64 `json:"score"`
	Price  float64 `json:"price"`
	Rating float64 `json:"rating"`
}

// Package is a flight+hotel combination.
type Package struct {
	Flight        offer.Flight `json:"flight"`
	Hotel         offer.Hotel  `json:"hotel"`
	CombinedPrice float64      `json:"combinedPrice"`
	CombinedScore float64      `json:"combinedScore"`
	FitsBudget    bool         `json:"fitsBudget"`
	FlightScore   float64      `json:"flightScore"`
	HotelScore    float64      `json:"hotelScore"`
}

// ScoreFlight scores a flight on price (55%), outbound duration (25%) and stops (20%).
func ScoreFlight(f offer.Flight, budget float64) FlightScore {
	price := UnknownPrice
	if f.Price.IsKnown() {
		price = f.Price.Total
	}

	durationMin := DefaultDurationMinutes
	if d, ok := f.OutboundDuration(); ok {
		durationMin = d.Minutes()
	}

	stops := f.OutboundStops()

	priceScore := priceScore(price, budget)
	durationScore := clamp01(1 - durationMin/DefaultDurationMinutes)
	stopsScore := clamp01(1 - float64(stops)/maxStops)

	return FlightScore{
		Score:       priceScore*0.55 + durationScore*0.25 + stopsScore*0.20,
		Price:       price,
		DurationMin: durationMin,
		Stops:       stops,
	}
}

// ScoreHotel scores a hotel on price (60%) and star rating (40%).
func ScoreHotel(h offer.Hotel, budget float64) HotelScore {
	price := UnknownPrice
	if h.Price.IsKnown() {
		price = h.Price.Total
	}

	rating := h.Rating
	ratingScore := clamp01(rating / maxRating)

	return HotelScore{
		Score:  priceScore(price, budget)*0.6 + ratingScore*0.4,
		Price:  price,
		Rating: rating,
	}
}

// priceScore falls back to price+1 as denominator when there is no budget,
// which drives the score to (almost) zero instead of dividing by zero.
func priceScore(price, budget float64) float64 {
	denom := budget
	if denom <= 0 {
		denom = price + 1
	}
	return clamp01(1 - price/denom)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

type scoredFlight struct {
	flight offer.Flight
	FlightScore
}

type scoredHotel struct {
	hotel offer.Hotel
	HotelScore
}

// FindBestPackage pairs the top flights with the top hotels and returns the
// highest scoring combination within budget. When nothing fits, the best
// combination overall is returned so the caller still has a recommendation.
// It returns nil when either list is empty.
func FindBestPackage(flights []offer.Flight, hotels []offer.Hotel, budget float64) *Package {
	if len(flights) == 0 || len(hotels) == 0 {
		return nil
	}

	sf := make([]scoredFlight, 0, len(flights))
	for _, f := range flights {
		sf = append(sf, scoredFlight{flight: f, FlightScore: ScoreFlight(f, budget)})
	}
	slices.SortStableFunc(sf, func(a, b scoredFlight) int { return cmp.Compare(b.Score, a.Score) })

	sh := make([]scoredHotel, 0, len(hotels))
	for _, h := range hotels {
		sh = append(sh, scoredHotel{hotel: h, HotelScore: ScoreHotel(h, budget)})
	}
	slices.SortStableFunc(sh, func(a, b scoredHotel) int { return cmp.Compare(b.Score, a.Score) })

	topF := offer.Truncate(sf, TopK)
	topH := offer.Truncate(sh, TopK)

	combos := make([]Package, 0, len(topF)*len(topH))
	for _, f := range topF {
		for _, h := range topH {
			combined := f.Price + h.Price
			combos = append(combos, Package{
				Flight:        f.flight,
				Hotel:         h.hotel,
				CombinedPrice: combined,
				CombinedScore: f.Score*0.6 + h.Score*0.4,
				FitsBudget:    combined <= budget,
				FlightScore:   f.Score,
				HotelScore:    h.Score,
			})
		}
	}

	candidates := make([]Package, 0, len(combos))
	for _, c := range combos {
		if c.FitsBudget {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = combos
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.CombinedScore > best.CombinedScore {
			best = c
		}
	}
	return &best
}
