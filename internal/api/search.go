package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/tripwise/tripwise/internal/amadeus"
	"github.com/tripwise/tripwise/internal/mailbox"
	"github.com/tripwise/tripwise/internal/offer"
	"github.com/tripwise/tripwise/internal/scorer"
	"github.com/tripwise/tripwise/internal/trip"
)

const (
	searchMax     = 12
	defaultBudget = "1000"
	minKeywordLen = 2
)

// recommendation is a scored package plus the plain prices the client displays.
type recommendation struct {
	*scorer.Package
	Currency    string  `json:"currency"`
	FlightPrice float64 `json:"flightPrice"`
	HotelPrice  float64 `json:"hotelPrice"`
}

type searchResponse struct {
	Tip         string          `json:"tip"`
	Recommended *recommendation `json:"recommended"`
	Flights     []offer.Flight  `json:"flights"`
	Hotels      []offer.Hotel   `json:"hotels"`
	Currency    string          `json:"currency"`
}

type recommendationResponse struct {
	Tip         string          `json:"tip"`
	Recommended *recommendation `json:"recommended"`
}

// Search handles GET /api/v1/search.
// Cache hit → score. Miss → provider search, cache, score. With tripId the
// caller's trip snapshot is overwritten with the fresh offers.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	origin := strings.ToUpper(strings.TrimSpace(params.Get("originCityCode")))
	dest := strings.ToUpper(strings.TrimSpace(params.Get("destinationCityCode")))
	rawStart, rawEnd := params.Get("startDate"), params.Get("endDate")
	if origin == "" || dest == "" || rawStart == "" || rawEnd == "" {
		writeError(w, http.StatusBadRequest, "originCityCode, destinationCityCode, startDate and endDate are required")
		return
	}

	start, err := trip.ParseDate(rawStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := trip.ParseDate(rawEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "endDate must not be before startDate")
		return
	}

	rawBudget := params.Get("budget")
	if rawBudget == "" {
		rawBudget = defaultBudget
	}
	budget, err := cast.ToFloat64E(rawBudget)
	if err != nil || budget < 0 {
		writeError(w, http.StatusBadRequest, "budget must be a non-negative number")
		return
	}

	tripID := params.Get("tripId")
	if tripID != "" {
		if _, err := uuid.Parse(tripID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid tripId")
			return
		}
	}

	q := amadeus.Query{
		Origin:        origin,
		Destination:   dest,
		DepartureDate: trip.FormatDate(start),
		ReturnDate:    trip.FormatDate(end),
		Max:           searchMax,
	}

	results, err := h.cache.Get(ctx, q)
	if err != nil {
		h.log.Error("cache get failed", "origin", origin, "destination", dest, "err", err)
	}
	if results == nil {
		results, err = h.searcher.Search(ctx, q)
		if err != nil {
			h.log.Error("offer search failed", "origin", origin, "destination", dest,
				"kind", amadeus.ErrorKind(err), "err", err)
			var apiErr *amadeus.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
				writeError(w, http.StatusBadRequest, apiErr.Error())
				return
			}
			writeError(w, http.StatusBadGateway, "offer search failed")
			return
		}
		if err := h.cache.Set(ctx, q, results); err != nil {
			h.log.Warn("cache set failed after search", "origin", origin, "destination", dest, "err", err)
		}
	}

	currency := resultsCurrency(results)
	best := scorer.FindBestPackage(results.Flights, results.Hotels, budget)

	flights := offer.Truncate(results.Flights, trip.MaxSnapshot)
	hotels := offer.Truncate(results.Hotels, trip.MaxSnapshot)

	if tripID != "" {
		found, err := h.trips.ReplaceSnapshot(ctx, tripID, UserID(ctx), trip.Snapshot{Flights: flights, Hotels: hotels})
		if err != nil {
			h.log.Error("snapshot update failed", "trip_id", tripID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "trip not found")
			return
		}
	}

	if flights == nil {
		flights = []offer.Flight{}
	}
	if hotels == nil {
		hotels = []offer.Hotel{}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Tip:         tipFor(best, len(results.Flights), len(results.Hotels), budget, currency),
		Recommended: recommend(best, currency),
		Flights:     flights,
		Hotels:      hotels,
		Currency:    currency,
	})
}

// Locations handles GET /api/v1/locations?keyword=.
func (h *Handlers) Locations(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if len(keyword) < minKeywordLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("keyword must be at least %d characters", minKeywordLen))
		return
	}

	locs, err := h.locations.Locations(r.Context(), keyword)
	if err != nil {
		h.log.Error("location lookup failed", "keyword", keyword, "kind", amadeus.ErrorKind(err), "err", err)
		writeError(w, http.StatusBadGateway, "location lookup failed")
		return
	}
	if locs == nil {
		locs = []amadeus.Location{}
	}

	writeJSON(w, http.StatusOK, locs)
}

func resultsCurrency(res *amadeus.Results) string {
	if res.Currency != "" {
		return res.Currency
	}
	if len(res.Flights) > 0 {
		return res.Flights[0].Price.CurrencyOrDefault()
	}
	return offer.DefaultCurrency
}

func recommend(p *scorer.Package, currency string) *recommendation {
	if p == nil {
		return nil
	}
	return &recommendation{
		Package:     p,
		Currency:    currency,
		FlightPrice: p.Flight.Price.Total,
		HotelPrice:  p.Hotel.Price.Total,
	}
}

func money(v float64, currency string) string {
	return mailbox.FormatMoney(decimal.NewFromFloat(v), currency)
}

func tipFor(p *scorer.Package, flights, hotels int, budget float64, currency string) string {
	switch {
	case flights == 0:
		return "No flights found for these dates"
	case hotels == 0:
		return "No hotels found at the destination"
	case p == nil:
		return "No package fits budget " + money(budget, currency)
	}

	hotel := "price unavailable"
	if p.Hotel.Price.IsKnown() {
		hotel = money(p.Hotel.Price.Total, currency)
	}
	tip := fmt.Sprintf("Recommended: flight %s + hotel %s", money(p.Flight.Price.Total, currency), hotel)
	if !p.FitsBudget {
		tip += " (over budget " + money(budget, currency) + ")"
	}
	return tip
}
