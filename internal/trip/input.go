package trip

import (
	"errors"
	"fmt"
	"strings"
)

// CreateInput is the request body for creating a trip.
type CreateInput struct {
	TripName            string         `json:"tripName"`
	Origin              string         `json:"origin"`
	OriginCityCode      string         `json:"originCityCode"`
	Destination         string         `json:"destination"`
	DestinationCityCode string         `json:"destinationCityCode"`
	StartDate           string         `json:"startDate"`
	EndDate             string         `json:"endDate"`
	Budget              float64        `json:"budget"`
	Notifications       *Notifications `json:"notifications,omitempty"`
}

// ErrInvalidInput wraps every validation failure returned by Build.
var ErrInvalidInput = errors.New("invalid trip input")

// Build validates the input and returns an unsaved Trip owned by userID.
// Notifications default to on, as a new trip watches prices unless told otherwise.
func (in CreateInput) Build(userID string) (*Trip, error) {
	var problems []string

	required := map[string]string{
		"tripName":    in.TripName,
		"origin":      in.Origin,
		"destination": in.Destination,
	}
	for _, field := range []string{"tripName", "origin", "destination"} {
		if strings.TrimSpace(required[field]) == "" {
			problems = append(problems, field+" is required")
		}
	}

	origin := strings.ToUpper(strings.TrimSpace(in.OriginCityCode))
	dest := strings.ToUpper(strings.TrimSpace(in.DestinationCityCode))
	if !isCityCode(origin) {
		problems = append(problems, "originCityCode must be a 3-letter IATA code")
	}
	if !isCityCode(dest) {
		problems = append(problems, "destinationCityCode must be a 3-letter IATA code")
	}

	start, errStart := ParseDate(in.StartDate)
	if errStart != nil {
		problems = append(problems, "startDate must be YYYY-MM-DD")
	}
	end, errEnd := ParseDate(in.EndDate)
	if errEnd != nil {
		problems = append(problems, "endDate must be YYYY-MM-DD")
	}
	if errStart == nil && errEnd == nil && end.Before(start) {
		problems = append(problems, "endDate must not be before startDate")
	}

	if in.Budget < 0 {
		problems = append(problems, "budget must not be negative")
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}

	notif := Notifications{PriceDrop: true, Email: true}
	if in.Notifications != nil {
		notif = *in.Notifications
	}

	return &Trip{
		UserID:              userID,
		TripName:            strings.TrimSpace(in.TripName),
		Origin:              strings.TrimSpace(in.Origin),
		OriginCityCode:      origin,
		Destination:         strings.TrimSpace(in.Destination),
		DestinationCityCode: dest,
		StartDate:           start,
		EndDate:             end,
		Budget:              in.Budget,
		Notifications:       notif,
		ValidationStatus:    ValidationStatus{IsValid: true},
	}, nil
}

func isCityCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
