package amadeus_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripwise/internal/amadeus"
	"github.com/tripwise/tripwise/internal/offer"
)

type mockFlights struct {
	fn func(ctx context.Context, q amadeus.FlightQuery) ([]offer.Flight, error)
}

func (m *mockFlights) SearchFlights(ctx context.Context, q amadeus.FlightQuery) ([]offer.Flight, error) {
	return m.fn(ctx, q)
}

type mockHotels struct {
	fn func(ctx context.Context, city string) ([]offer.Hotel, error)
}

func (m *mockHotels) HotelsByCity(ctx context.Context, city string) ([]offer.Hotel, error) {
	return m.fn(ctx, city)
}

func sampleQuery() amadeus.Query {
	return amadeus.Query{Origin: "NYC", Destination: "PAR", DepartureDate: "2026-07-01", ReturnDate: "2026-07-08", Max: 12}
}

func TestSearch_Success(t *testing.T) {
	var gotQuery amadeus.FlightQuery
	var gotCity string
	s := amadeus.NewSearcherWithClients(
		&mockFlights{fn: func(_ context.Context, q amadeus.FlightQuery) ([]offer.Flight, error) {
			gotQuery = q
			return []offer.Flight{{Price: offer.Price{Total: 400, Currency: "EUR"}}}, nil
		}},
		&mockHotels{fn: func(_ context.Context, city string) ([]offer.Hotel, error) {
			gotCity = city
			return []offer.Hotel{{HotelID: "H1"}}, nil
		}},
	)

	res, err := s.Search(context.Background(), sampleQuery())
	require.NoError(t, err)
	require.Len(t, res.Flights, 1)
	require.Len(t, res.Hotels, 1)
	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, "PAR", gotCity)
	assert.Equal(t, "2026-07-08", gotQuery.ReturnDate)
	assert.Equal(t, 12, gotQuery.Max)
}

func TestSearch_HotelFailureIsNotFatal(t *testing.T) {
	s := amadeus.NewSearcherWithClients(
		&mockFlights{fn: func(_ context.Context, _ amadeus.FlightQuery) ([]offer.Flight, error) {
			return []offer.Flight{{Price: offer.Price{Total: 400}}}, nil
		}},
		&mockHotels{fn: func(_ context.Context, _ string) ([]offer.Hotel, error) {
			return nil, fmt.Errorf("hotels down")
		}},
	)

	res, err := s.Search(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.Len(t, res.Flights, 1)
	assert.Empty(t, res.Hotels)
	assert.Equal(t, "USD", res.Currency)
}

func TestSearch_FlightFailureIsFatal(t *testing.T) {
	s := amadeus.NewSearcherWithClients(
		&mockFlights{fn: func(_ context.Context, _ amadeus.FlightQuery) ([]offer.Flight, error) {
			return nil, &amadeus.APIError{StatusCode: 400, Title: "INVALID DATE"}
		}},
		&mockHotels{fn: func(_ context.Context, _ string) ([]offer.Hotel, error) {
			return []offer.Hotel{{HotelID: "H1"}}, nil
		}},
	)

	_, err := s.Search(context.Background(), sampleQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID DATE")
}

func TestSearch_PanicBecomesError(t *testing.T) {
	s := amadeus.NewSearcherWithClients(
		&mockFlights{fn: func(_ context.Context, _ amadeus.FlightQuery) ([]offer.Flight, error) {
			panic("boom")
		}},
		&mockHotels{fn: func(_ context.Context, _ string) ([]offer.Hotel, error) { return nil, nil }},
	)

	_, err := s.Search(context.Background(), sampleQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}
