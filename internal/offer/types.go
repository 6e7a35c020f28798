package offer

import (
	"encoding/json"
	"fmt"
)

// DefaultCurrency is assumed when a provider price carries no currency code.
const DefaultCurrency = "USD"

// Price is a normalised offer price. A zero Total means the provider sent no usable price.
type Price struct {
	Total    float64 `json:"total"`
	Currency string  `json:"currency,omitempty"`
}

// IsKnown reports whether the price can take part in comparisons.
func (p Price) IsKnown() bool {
	return p.Total > 0
}

// CurrencyOrDefault returns the price currency, falling back to DefaultCurrency.
func (p Price) CurrencyOrDefault() string {
	if p.Currency == "" {
		return DefaultCurrency
	}
	return p.Currency
}

// Endpoint is one end of a flight segment.
type Endpoint struct {
	IataCode string `json:"iataCode,omitempty"`
	At       string `json:"at"`
}

// Segment is a single leg flown by one aircraft.
type Segment struct {
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
	CarrierCode string   `json:"carrierCode,omitempty"`
	Number      string   `json:"number,omitempty"`
}

// Itinerary is one direction of travel (outbound or return).
type Itinerary struct {
	Duration string    `json:"duration,omitempty"`
	Segments []Segment `json:"segments"`
}

// Flight is a priced flight offer. The raw provider document is kept so that
// snapshots written back to storage are byte-for-byte what the provider sent.
type Flight struct {
	ID          string
	Price       Price
	Itineraries []Itinerary

	raw json.RawMessage
}

// Hotel is a hotel offer or hotel listing. Price is zero for listings that carry no offer.
type Hotel struct {
	HotelID  string
	Name     string
	CityCode string
	Rating   float64
	Price    Price

	raw json.RawMessage
}

type wireFlight struct {
	ID          string          `json:"id,omitempty"`
	Price       json.RawMessage `json:"price,omitempty"`
	Itineraries []Itinerary     `json:"itineraries,omitempty"`
}

// UnmarshalJSON accepts the provider flight-offer shape with a scalar,
// numeric-string or {total, currency} price.
func (f *Flight) UnmarshalJSON(b []byte) error {
	var w wireFlight
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decoding flight offer: %w", err)
	}

	*f = Flight{
		ID:          w.ID,
		Price:       parsePrice(w.Price),
		Itineraries: w.Itineraries,
		raw:         append(json.RawMessage(nil), b...),
	}
	return nil
}

// MarshalJSON returns the original provider document when there is one.
func (f Flight) MarshalJSON() ([]byte, error) {
	if len(f.raw) > 0 {
		return f.raw, nil
	}

	w := wireFlight{ID: f.ID, Itineraries: f.Itineraries}
	if f.Price.IsKnown() {
		p, err := json.Marshal(f.Price)
		if err != nil {
			return nil, fmt.Errorf("encoding flight price: %w", err)
		}
		w.Price = p
	}
	return json.Marshal(w)
}

type wireHotelOffer struct {
	Price json.RawMessage `json:"price,omitempty"`
}

type wireHotelInfo struct {
	HotelID string `json:"hotelId,omitempty"`
	Name    string `json:"name,omitempty"`
	Rating  any    `json:"rating,omitempty"`
}

type wireHotel struct {
	HotelID  string           `json:"hotelId,omitempty"`
	Name     string           `json:"name,omitempty"`
	CityCode string           `json:"iataCode,omitempty"`
	Rating   any              `json:"rating,omitempty"`
	Price    json.RawMessage  `json:"price,omitempty"`
	Offers   []wireHotelOffer `json:"offers,omitempty"`
	Hotel    *wireHotelInfo   `json:"hotel,omitempty"`
}

// UnmarshalJSON accepts both the hotel-offers shape (nested hotel, offers[0].price)
// and the flat hotel-list shape.
func (h *Hotel) UnmarshalJSON(b []byte) error {
	var w wireHotel
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decoding hotel offer: %w", err)
	}

	*h = Hotel{
		HotelID:  w.HotelID,
		Name:     w.Name,
		CityCode: w.CityCode,
		raw:      append(json.RawMessage(nil), b...),
	}

	if len(w.Offers) > 0 {
		h.Price = parsePrice(w.Offers[0].Price)
	}
	if !h.Price.IsKnown() {
		h.Price = parsePrice(w.Price)
	}

	if w.Hotel != nil {
		if h.HotelID == "" {
			h.HotelID = w.Hotel.HotelID
		}
		if h.Name == "" {
			h.Name = w.Hotel.Name
		}
		h.Rating = toPositiveFloat(w.Hotel.Rating)
	}
	if h.Rating == 0 {
		h.Rating = toPositiveFloat(w.Rating)
	}

	return nil
}

// MarshalJSON returns the original provider document when there is one.
func (h Hotel) MarshalJSON() ([]byte, error) {
	if len(h.raw) > 0 {
		return h.raw, nil
	}

	w := wireHotel{HotelID: h.HotelID, Name: h.Name, CityCode: h.CityCode}
	if h.Rating > 0 {
		w.Rating = h.Rating
	}
	if h.Price.IsKnown() {
		p, err := json.Marshal(h.Price)
		if err != nil {
			return nil, fmt.Errorf("encoding hotel price: %w", err)
		}
		w.Price = p
	}
	return json.Marshal(w)
}
