package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripwise/tripwise/internal/offer"
	"github.com/tripwise/tripwise/internal/scorer"
	"github.com/tripwise/tripwise/internal/trip"
)

type notificationsPatch struct {
	PriceDrop *bool `json:"priceDrop"`
	Email     *bool `json:"email"`
}

// pathTripID reads and validates the {id} path parameter, writing a 400 when it is malformed.
func pathTripID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trip id")
		return "", false
	}
	return id, true
}

// CreateTrip handles POST /api/v1/trips.
func (h *Handlers) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var in trip.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := in.Build(UserID(r.Context()))
	if err != nil {
		if errors.Is(err, trip.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.trips.CreateTrip(r.Context(), t); err != nil {
		h.log.Error("create trip failed", "user_id", t.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store trip")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// ListTrips handles GET /api/v1/trips.
func (h *Handlers) ListTrips(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	trips, err := h.trips.ListTrips(r.Context(), userID)
	if err != nil {
		h.log.Error("list trips failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if trips == nil {
		trips = []*trip.Trip{}
	}

	writeJSON(w, http.StatusOK, trips)
}

// GetTrip handles GET /api/v1/trips/{id}.
func (h *Handlers) GetTrip(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTrip(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateNotifications handles PATCH /api/v1/trips/{id}/notifications.
// Omitted fields keep their stored value.
func (h *Handlers) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var patch notificationsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.PriceDrop == nil && patch.Email == nil {
		writeError(w, http.StatusBadRequest, "priceDrop or email is required")
		return
	}

	t, ok := h.loadTrip(w, r)
	if !ok {
		return
	}

	n := t.Notifications
	if patch.PriceDrop != nil {
		n.PriceDrop = *patch.PriceDrop
	}
	if patch.Email != nil {
		n.Email = *patch.Email
	}

	found, err := h.trips.UpdateNotifications(r.Context(), t.ID, t.UserID, n)
	if err != nil {
		h.log.Error("update notifications failed", "trip_id", t.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}

	t.Notifications = n
	writeJSON(w, http.StatusOK, t)
}

// DeleteTrip handles DELETE /api/v1/trips/{id}.
func (h *Handlers) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTripID(w, r)
	if !ok {
		return
	}

	found, err := h.trips.DeleteTrip(r.Context(), id, UserID(r.Context()))
	if err != nil {
		h.log.Error("delete trip failed", "trip_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recommendation handles GET /api/v1/trips/{id}/recommendation.
// The best package is computed from the offers stored on the trip; no provider call is made.
func (h *Handlers) Recommendation(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTrip(w, r)
	if !ok {
		return
	}

	currency := offer.DefaultCurrency
	if len(t.FlightOptions) > 0 {
		currency = t.FlightOptions[0].Price.CurrencyOrDefault()
	}
	best := scorer.FindBestPackage(t.FlightOptions, t.HotelOptions, t.Budget)

	writeJSON(w, http.StatusOK, recommendationResponse{
		Tip:         tipFor(best, len(t.FlightOptions), len(t.HotelOptions), t.Budget, currency),
		Recommended: recommend(best, currency),
	})
}

func (h *Handlers) loadTrip(w http.ResponseWriter, r *http.Request) (*trip.Trip, bool) {
	id, ok := pathTripID(w, r)
	if !ok {
		return nil, false
	}

	t, err := h.trips.GetTrip(r.Context(), id, UserID(r.Context()))
	if err != nil {
		h.log.Error("get trip failed", "trip_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "trip not found")
		return nil, false
	}
	return t, true
}
