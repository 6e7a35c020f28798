package api

import (
	"context"

	"github.com/tripwise/tripwise/internal/amadeus"
	"github.com/tripwise/tripwise/internal/trip"
)

// TripRepo defines the trip storage operations needed by handlers.
// Every method is scoped to the owning user.
type TripRepo interface {
	CreateTrip(ctx context.Context, t *trip.Trip) error
	GetTrip(ctx context.Context, id, userID string) (*trip.Trip, error)
	ListTrips(ctx context.Context, userID string) ([]*trip.Trip, error)
	UpdateNotifications(ctx context.Context, id, userID string, n trip.Notifications) (bool, error)
	DeleteTrip(ctx context.Context, id, userID string) (bool, error)
	ReplaceSnapshot(ctx context.Context, id, userID string, snap trip.Snapshot) (bool, error)
}

// OfferCache defines the cache operations needed by handlers.
type OfferCache interface {
	Get(ctx context.Context, q amadeus.Query) (*amadeus.Results, error)
	Set(ctx context.Context, q amadeus.Query, res *amadeus.Results) error
}

// OfferSearcher runs a combined flight and hotel search.
type OfferSearcher interface {
	Search(ctx context.Context, q amadeus.Query) (*amadeus.Results, error)
}

// LocationFinder resolves free text to city and airport codes.
type LocationFinder interface {
	Locations(ctx context.Context, keyword string) ([]amadeus.Location, error)
}
