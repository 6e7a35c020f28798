package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tripwise/tripwise/internal/trip"
)

const tripColumns = `
	t.id, t.user_id, t.trip_name, t.origin, t.origin_city_code,
	t.destination, t.destination_city_code, t.start_date, t.end_date,
	t.budget::float8, t.flight_options, t.hotel_options, t.notifications,
	t.validation_status, t.created_at, t.updated_at
`

// scanTrip reads one trip row. With withUser the four owner columns
// (id, first_name, last_name, email) are expected after the trip columns.
func scanTrip(s rowScanner, withUser bool) (*trip.Trip, error) {
	var t trip.Trip
	var flightsJSON, hotelsJSON, notificationsJSON, statusJSON []byte

	dest := []any{
		&t.ID,
		&t.UserID,
		&t.TripName,
		&t.Origin,
		&t.OriginCityCode,
		&t.Destination,
		&t.DestinationCityCode,
		&t.StartDate,
		&t.EndDate,
		&t.Budget,
		&flightsJSON,
		&hotelsJSON,
		&notificationsJSON,
		&statusJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
	}

	var u trip.User
	if withUser {
		dest = append(dest, &u.ID, &u.FirstName, &u.LastName, &u.Email)
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name string
		data []byte
		dst  any
	}{
		{"flight_options", flightsJSON, &t.FlightOptions},
		{"hotel_options", hotelsJSON, &t.HotelOptions},
		{"notifications", notificationsJSON, &t.Notifications},
		{"validation_status", statusJSON, &t.ValidationStatus},
	} {
		if len(f.data) == 0 {
			continue
		}
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("unmarshaling %s of trip %s: %w", f.name, t.ID, err)
		}
	}

	t.StartDate = trip.CalendarDate(t.StartDate)
	t.EndDate = trip.CalendarDate(t.EndDate)
	if withUser {
		t.User = &u
	}

	return &t, nil
}

// CreateTrip inserts t, assigning an id when it has none, and fills in the
// timestamps chosen by the database.
func (r *Repository) CreateTrip(ctx context.Context, t *trip.Trip) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	flightsJSON, err := jsonArray(t.FlightOptions)
	if err != nil {
		return fmt.Errorf("marshaling flight options: %w", err)
	}
	hotelsJSON, err := jsonArray(t.HotelOptions)
	if err != nil {
		return fmt.Errorf("marshaling hotel options: %w", err)
	}
	notificationsJSON, err := json.Marshal(t.Notifications)
	if err != nil {
		return fmt.Errorf("marshaling notifications: %w", err)
	}
	statusJSON, err := json.Marshal(t.ValidationStatus)
	if err != nil {
		return fmt.Errorf("marshaling validation status: %w", err)
	}

	const q = `
		INSERT INTO trips (
			id, user_id, trip_name, origin, origin_city_code, destination,
			destination_city_code, start_date, end_date, budget,
			flight_options, hotel_options, notifications, validation_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err = r.q.QueryRow(ctx, q,
		t.ID, t.UserID, t.TripName, t.Origin, t.OriginCityCode, t.Destination,
		t.DestinationCityCode, trip.CalendarDate(t.StartDate), trip.CalendarDate(t.EndDate), t.Budget,
		flightsJSON, hotelsJSON, notificationsJSON, statusJSON,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting trip %q: %w", t.TripName, err)
	}

	return nil
}

// GetTrip retrieves a trip owned by userID.
// Returns nil, nil when no such trip exists.
func (r *Repository) GetTrip(ctx context.Context, id, userID string) (*trip.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips t WHERE t.id = $1 AND t.user_id = $2`

	t, err := scanTrip(r.q.QueryRow(ctx, q, id, userID), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying trip %s: %w", id, err)
	}

	return t, nil
}

// ListTrips returns the trips of userID ordered by start date.
func (r *Repository) ListTrips(ctx context.Context, userID string) ([]*trip.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips t WHERE t.user_id = $1 ORDER BY t.start_date, t.created_at`

	return r.queryTrips(ctx, false, q, userID)
}

// ListPriceWatchTrips returns trips opted into price-drop emails that have not
// ended by today and carry a flight snapshot, joined with their owner.
func (r *Repository) ListPriceWatchTrips(ctx context.Context, today time.Time) ([]*trip.Trip, error) {
	q := `
		SELECT ` + tripColumns + `, u.id, u.first_name, u.last_name, u.email
		FROM trips t
		JOIN users u ON u.id = t.user_id
		WHERE (t.notifications->>'priceDrop')::boolean
		AND (t.notifications->>'email')::boolean
		AND t.end_date >= $1
		AND jsonb_array_length(t.flight_options) > 0
		ORDER BY t.created_at, t.id
	`

	return r.queryTrips(ctx, true, q, trip.CalendarDate(today))
}

func (r *Repository) queryTrips(ctx context.Context, withUser bool, q string, args ...any) ([]*trip.Trip, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	var results []*trip.Trip
	for rows.Next() {
		t, err := scanTrip(rows, withUser)
		if err != nil {
			return nil, fmt.Errorf("scanning trip row: %w", err)
		}
		results = append(results, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trip rows: %w", err)
	}

	return results, nil
}

// UpdateNotifications replaces the notification flags of a trip owned by userID.
// It reports whether the trip was found.
func (r *Repository) UpdateNotifications(ctx context.Context, id, userID string, n trip.Notifications) (bool, error) {
	notificationsJSON, err := json.Marshal(n)
	if err != nil {
		return false, fmt.Errorf("marshaling notifications: %w", err)
	}

	const q = `
		UPDATE trips
		SET notifications = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	tag, err := r.q.Exec(ctx, q, id, userID, notificationsJSON)
	if err != nil {
		return false, fmt.Errorf("updating notifications of trip %s: %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteTrip removes a trip owned by userID. It reports whether the trip was found.
func (r *Repository) DeleteTrip(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM trips WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting trip %s: %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpdateValidationStatus records the outcome of a price check that did not
// reach the provider or was rejected by it.
func (r *Repository) UpdateValidationStatus(ctx context.Context, id string, status trip.ValidationStatus) error {
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling validation status: %w", err)
	}

	const q = `
		UPDATE trips
		SET validation_status = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.q.Exec(ctx, q, id, statusJSON); err != nil {
		return fmt.Errorf("updating validation status of trip %s: %w", id, err)
	}

	return nil
}

// snapshotArgs encodes a snapshot. An empty list is sent as NULL, which the
// UPDATE statements turn into "keep the stored options".
func snapshotArgs(snap trip.Snapshot) ([]byte, []byte, error) {
	var flightsJSON, hotelsJSON []byte
	var err error

	if len(snap.Flights) > 0 {
		flightsJSON, err = json.Marshal(snap.Flights)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling flight snapshot: %w", err)
		}
	}
	if len(snap.Hotels) > 0 {
		hotelsJSON, err = json.Marshal(snap.Hotels)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling hotel snapshot: %w", err)
		}
	}

	return flightsJSON, hotelsJSON, nil
}

// UpdateSnapshot replaces the offer snapshot of a trip together with its
// validation status.
func (r *Repository) UpdateSnapshot(ctx context.Context, id string, snap trip.Snapshot, status trip.ValidationStatus) error {
	flightsJSON, hotelsJSON, err := snapshotArgs(snap)
	if err != nil {
		return err
	}
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling validation status: %w", err)
	}

	const q = `
		UPDATE trips
		SET flight_options    = COALESCE($2::jsonb, flight_options),
		    hotel_options     = COALESCE($3::jsonb, hotel_options),
		    validation_status = $4,
		    updated_at        = NOW()
		WHERE id = $1
	`

	if _, err := r.q.Exec(ctx, q, id, flightsJSON, hotelsJSON, statusJSON); err != nil {
		return fmt.Errorf("updating snapshot of trip %s: %w", id, err)
	}

	return nil
}

// ReplaceSnapshot stores the offers of an interactive search on a trip owned
// by userID. It reports whether the trip was found.
func (r *Repository) ReplaceSnapshot(ctx context.Context, id, userID string, snap trip.Snapshot) (bool, error) {
	flightsJSON, hotelsJSON, err := snapshotArgs(snap)
	if err != nil {
		return false, err
	}

	const q = `
		UPDATE trips
		SET flight_options = COALESCE($3::jsonb, flight_options),
		    hotel_options  = COALESCE($4::jsonb, hotel_options),
		    updated_at     = NOW()
		WHERE id = $1 AND user_id = $2
	`

	tag, err := r.q.Exec(ctx, q, id, userID, flightsJSON, hotelsJSON)
	if err != nil {
		return false, fmt.Errorf("replacing snapshot of trip %s: %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}
