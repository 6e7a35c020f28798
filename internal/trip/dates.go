package trip

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for trip dates.
const DateLayout = "2006-01-02"

// ParseDate reads the calendar date at the start of s, ignoring any time or
// zone suffix, so "2026-03-01T23:30:00-05:00" is March 1st and never shifts.
func ParseDate(s string) (time.Time, error) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(s), "T")
	d, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

// CalendarDate returns midnight UTC of the civil date t falls on in its own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CalendarDate(now.In(loc))
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return CalendarDate(t).Format(DateLayout)
}

// Eligible reports whether the trip should be looked at by the price monitor.
func (t *Trip) Eligible(today time.Time) bool {
	if !t.WatchesPrices() {
		return false
	}
	if CalendarDate(t.EndDate).Before(today) {
		return false
	}
	return len(t.FlightOptions) > 0
}

// ValidateForPriceCheck checks that the provider will accept a search for the
// trip's dates. It returns a reason when it will not.
func (t *Trip) ValidateForPriceCheck(today time.Time) (string, bool) {
	dep := CalendarDate(t.StartDate)
	ret := CalendarDate(t.EndDate)

	if dep.Before(today) {
		return fmt.Sprintf("Departure date %s is in the past", FormatDate(dep)), false
	}
	if dep.Before(today.AddDate(0, 0, 1)) {
		return fmt.Sprintf("Departure date %s must be at least 1 day in the future", FormatDate(dep)), false
	}
	if ret.Before(dep) {
		return fmt.Sprintf("Return date %s is before departure date %s", FormatDate(ret), FormatDate(dep)), false
	}
	return "", true
}
