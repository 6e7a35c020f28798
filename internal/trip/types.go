package trip

import (
	"time"

	"github.com/tripwise/tripwise/internal/offer"
)

// MaxSnapshot bounds how many offers of each kind are cached on a trip.
const MaxSnapshot = 6

// User is the owner of a trip, as far as notifications need to know.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Notifications holds the owner's opt-ins for a trip.
type Notifications struct {
	PriceDrop bool `json:"priceDrop"`
	Email     bool `json:"email"`
}

// ValidationStatus records the outcome of the latest price check for a trip.
type ValidationStatus struct {
	IsValid     bool       `json:"isValid"`
	Reason      *string    `json:"reason"`
	LastChecked *time.Time `json:"lastChecked"`
}

// Valid returns a passing status checked at the given time.
func Valid(at time.Time) ValidationStatus {
	return ValidationStatus{IsValid: true, LastChecked: &at}
}

// Invalid returns a failing status with a human readable reason.
func Invalid(reason string, at time.Time) ValidationStatus {
	return ValidationStatus{IsValid: false, Reason: &reason, LastChecked: &at}
}

// Snapshot is the bounded set of offers last seen for a trip. An empty
// list leaves the stored offers of that kind untouched.
type Snapshot struct {
	Flights []offer.Flight
	Hotels  []offer.Hotel
}

// Trip is a persisted trip plan. StartDate and EndDate are calendar dates
// stored as midnight UTC.
type Trip struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"userId"`
	TripName            string           `json:"tripName"`
	Origin              string           `json:"origin"`
	OriginCityCode      string           `json:"originCityCode"`
	Destination         string           `json:"destination"`
	DestinationCityCode string           `json:"destinationCityCode"`
	StartDate           time.Time        `json:"startDate"`
	EndDate             time.Time        `json:"endDate"`
	Budget              float64          `json:"budget"`
	FlightOptions       []offer.Flight   `json:"flightOptions"`
	HotelOptions        []offer.Hotel    `json:"hotelOptions"`
	Notifications       Notifications    `json:"notifications"`
	ValidationStatus    ValidationStatus `json:"validationStatus"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`

	// User is populated only by queries that join the owner.
	User *User `json:"-"`
}

// WatchesPrices reports whether the owner opted into price-drop emails.
func (t *Trip) WatchesPrices() bool {
	return t.Notifications.PriceDrop && t.Notifications.Email
}
