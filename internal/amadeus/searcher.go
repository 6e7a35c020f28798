package amadeus

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tripwise/tripwise/internal/offer"
)

// flightSearcher is the interface satisfied by Client.
type flightSearcher interface {
	SearchFlights(ctx context.Context, q FlightQuery) ([]offer.Flight, error)
}

// hotelLister is the interface satisfied by Client.
type hotelLister interface {
	HotelsByCity(ctx context.Context, cityCode string) ([]offer.Hotel, error)
}

// Query is a combined flight and hotel search for one trip.
type Query struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Max           int
	Currency      string
}

// Results is the combined answer of a Search.
type Results struct {
	Flights  []offer.Flight `json:"flights"`
	Hotels   []offer.Hotel  `json:"hotels"`
	Currency string         `json:"currency"`
}

// Searcher runs the flight and hotel searches for a trip in parallel.
type Searcher struct {
	flights flightSearcher
	hotels  hotelLister
}

// NewSearcher constructs a Searcher backed by c for both searches.
func NewSearcher(c *Client) *Searcher {
	return &Searcher{flights: c, hotels: c}
}

// NewSearcherWithClients constructs a Searcher with injectable clients (used in tests).
func NewSearcherWithClients(f flightSearcher, h hotelLister) *Searcher {
	return &Searcher{flights: f, hotels: h}
}

// Search fetches flights and hotels in parallel. A flight failure fails the
// search; a hotel failure is logged and yields an empty hotel list.
func (s *Searcher) Search(ctx context.Context, q Query) (*Results, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var flights []offer.Flight
	var hotels []offer.Hotel

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("flight search panicked", "recover", r)
				err = fmt.Errorf("flight search panicked: %v", r)
			}
		}()
		fs, fetchErr := s.flights.SearchFlights(gCtx, FlightQuery{
			Origin:        q.Origin,
			Destination:   q.Destination,
			DepartureDate: q.DepartureDate,
			ReturnDate:    q.ReturnDate,
			Max:           q.Max,
			Currency:      q.Currency,
		})
		if fetchErr != nil {
			return fetchErr
		}
		flights = fs
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("hotel search panicked", "recover", r)
				err = fmt.Errorf("hotel search panicked: %v", r)
			}
		}()
		hs, fetchErr := s.hotels.HotelsByCity(gCtx, q.Destination)
		if fetchErr != nil {
			slog.Warn("hotel search failed", "city", q.Destination, "err", fetchErr)
			return nil
		}
		hotels = hs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("searching offers %s-%s: %w", q.Origin, q.Destination, err)
	}

	currency := q.Currency
	if len(flights) > 0 && flights[0].Price.Currency != "" {
		currency = flights[0].Price.Currency
	}
	if currency == "" {
		currency = offer.DefaultCurrency
	}

	return &Results{Flights: flights, Hotels: hotels, Currency: currency}, nil
}
