package offer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spf13/cast"
)

// parsePrice decodes a price that may be a number, a numeric string or an
// object with total/currency fields. An unusable total is zero; an object's
// currency is kept either way.
func parsePrice(raw json.RawMessage) Price {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Price{}
	}

	if raw[0] == '{' {
		var obj struct {
			Total    any    `json:"total"`
			Currency string `json:"currency"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Price{}
		}
		return Price{Total: toPositiveFloat(obj.Total), Currency: obj.Currency}
	}

	var scalar any
	if err := json.Unmarshal(raw, &scalar); err != nil {
		return Price{}
	}
	return Price{Total: toPositiveFloat(scalar)}
}

// toPositiveFloat coerces loosely typed provider values, mapping anything
// unparseable or non-positive to zero.
func toPositiveFloat(v any) float64 {
	if v == nil {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f <= 0 {
		return 0
	}
	return f
}

// Provider timestamps are local to the airport and usually carry no zone.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTime parses a provider segment timestamp.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// OutboundDuration returns the time from the first departure to the last arrival
// of the first itinerary. ok is false when the itinerary is missing or malformed.
func (f Flight) OutboundDuration() (time.Duration, bool) {
	if len(f.Itineraries) == 0 {
		return 0, false
	}
	segs := f.Itineraries[0].Segments
	if len(segs) == 0 {
		return 0, false
	}

	dep, ok := ParseTime(segs[0].Departure.At)
	if !ok {
		return 0, false
	}
	arr, ok := ParseTime(segs[len(segs)-1].Arrival.At)
	if !ok {
		return 0, false
	}
	return arr.Sub(dep), true
}

// OutboundStops returns the number of stops on the first itinerary, 0 when unknown.
func (f Flight) OutboundStops() int {
	if len(f.Itineraries) == 0 || len(f.Itineraries[0].Segments) == 0 {
		return 0
	}
	return len(f.Itineraries[0].Segments) - 1
}

// CheapestFlight returns the lowest known price across flights.
func CheapestFlight(flights []Flight) (Price, bool) {
	var best Price
	found := false
	for _, f := range flights {
		if !f.Price.IsKnown() {
			continue
		}
		if !found || f.Price.Total < best.Total {
			best = f.Price
			found = true
		}
	}
	return best, found
}

// Truncate returns at most n leading elements of s.
func Truncate[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
