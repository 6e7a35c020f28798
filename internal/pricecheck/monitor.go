package pricecheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripwise/tripwise/internal/amadeus"
	"github.com/tripwise/tripwise/internal/mailbox"
	"github.com/tripwise/tripwise/internal/offer"
	"github.com/tripwise/tripwise/internal/trip"
)

// DefaultFetchTimeout bounds a single provider search.
const DefaultFetchTimeout = 30 * time.Second

// searchMax is how many flight offers are requested per trip.
const searchMax = 7

// TripStore is the trip persistence used by the Monitor.
type TripStore interface {
	ListPriceWatchTrips(ctx context.Context, today time.Time) ([]*trip.Trip, error)
	UpdateValidationStatus(ctx context.Context, tripID string, status trip.ValidationStatus) error
	UpdateSnapshot(ctx context.Context, tripID string, snap trip.Snapshot, status trip.ValidationStatus) error
}

// OfferSearcher runs a live flight and hotel search.
type OfferSearcher interface {
	Search(ctx context.Context, q amadeus.Query) (*amadeus.Results, error)
}

// Outbox queues emails for asynchronous delivery.
type Outbox interface {
	EnqueueEmail(ctx context.Context, m mailbox.Message) error
}

// Summary counts what happened during one Run.
type Summary struct {
	Trips    int `json:"trips"`
	Checked  int `json:"checked"`
	Invalid  int `json:"invalid"`
	Failed   int `json:"failed"`
	Notified int `json:"notified"`
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLocation sets the location in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(m *Monitor) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithThreshold sets the fractional drop that triggers a notification.
func WithThreshold(threshold float64) Option {
	return func(m *Monitor) {
		if threshold > 0 {
			m.threshold = threshold
		}
	}
}

// WithFetchTimeout bounds each provider search.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.fetchTimeout = d
		}
	}
}

// Monitor re-prices watched trips and notifies owners of price drops.
type Monitor struct {
	trips    TripStore
	searcher OfferSearcher
	outbox   Outbox
	log      *slog.Logger

	now          func() time.Time
	loc          *time.Location
	threshold    float64
	fetchTimeout time.Duration
}

// NewMonitor constructs a Monitor.
func NewMonitor(trips TripStore, searcher OfferSearcher, outbox Outbox, log *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		trips:        trips,
		searcher:     searcher,
		outbox:       outbox,
		log:          log,
		now:          time.Now,
		loc:          time.UTC,
		threshold:    DefaultThreshold,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeInvalid
	outcomeFailed
	outcomeChecked
	outcomeNotified
)

// Run checks every eligible trip once, in the order the store returns them.
// Per-trip failures are recorded on the trip and never abort the run.
func (m *Monitor) Run(ctx context.Context) (Summary, error) {
	today := trip.Today(m.now(), m.loc)

	trips, err := m.trips.ListPriceWatchTrips(ctx, today)
	if err != nil {
		return Summary{}, fmt.Errorf("loading price watch trips: %w", err)
	}

	sum := Summary{Trips: len(trips)}
	if len(trips) == 0 {
		m.log.Info("no trips with price drop notifications enabled")
		return sum, nil
	}

	m.log.Info("checking prices", "trips", len(trips))

	for _, t := range trips {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		switch m.checkTrip(ctx, t, today) {
		case outcomeInvalid:
			sum.Invalid++
		case outcomeFailed:
			sum.Failed++
		case outcomeChecked:
			sum.Checked++
		case outcomeNotified:
			sum.Checked++
			sum.Notified++
		}
	}

	m.log.Info("price check completed",
		"trips", sum.Trips,
		"checked", sum.Checked,
		"invalid", sum.Invalid,
		"failed", sum.Failed,
		"notified", sum.Notified,
	)

	return sum, nil
}

// checkTrip runs validate, fetch, compare, notify and persist for one trip.
func (m *Monitor) checkTrip(ctx context.Context, t *trip.Trip, today time.Time) (res outcome) {
	log := m.log.With("trip_id", t.ID, "trip_name", t.TripName)

	defer func() {
		if r := recover(); r != nil {
			log.Error("price check panicked", "recover", r)
			res = outcomeFailed
		}
	}()

	if !t.Eligible(today) {
		log.Debug("trip not eligible for price check")
		return outcomeSkipped
	}

	if reason, ok := t.ValidateForPriceCheck(today); !ok {
		log.Info("trip dates invalid for price check", "reason", reason)
		m.markInvalid(ctx, log, t, reason)
		return outcomeInvalid
	}

	results, err := m.fetch(ctx, t)
	if err != nil {
		logProviderError(log, err)
		m.markInvalid(ctx, log, t, "API error: "+providerMessage(err))
		return outcomeFailed
	}

	res = outcomeChecked

	cmp := ComparePrices(t.FlightOptions, results.Flights, m.threshold)
	switch {
	case cmp == nil:
		log.Info("no comparable prices")
	case !cmp.PriceDropped:
		log.Info("no significant price drop", "old_price", cmp.OldPrice, "new_price", cmp.NewPrice)
	default:
		if err := m.notify(ctx, t, cmp); err != nil {
			log.Warn("price drop notification not queued", "err", err)
		} else {
			log.Info("price drop detected",
				"old_price", cmp.OldPrice,
				"new_price", cmp.NewPrice,
				"percentage_change", fmt.Sprintf("%.1f", cmp.PercentageChange),
			)
			res = outcomeNotified
		}
	}

	var snap trip.Snapshot
	if len(results.Flights) > 0 {
		snap.Flights = offer.Truncate(results.Flights, trip.MaxSnapshot)
	} else {
		log.Warn("provider returned no flights, keeping stored flight options")
	}
	if len(results.Hotels) > 0 {
		snap.Hotels = offer.Truncate(results.Hotels, trip.MaxSnapshot)
	}

	if err := m.trips.UpdateSnapshot(ctx, t.ID, snap, trip.Valid(m.now())); err != nil {
		log.Error("failed to update trip snapshot", "err", err)
		return outcomeFailed
	}

	return res
}

func (m *Monitor) fetch(ctx context.Context, t *trip.Trip) (*amadeus.Results, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	return m.searcher.Search(fetchCtx, amadeus.Query{
		Origin:        t.OriginCityCode,
		Destination:   t.DestinationCityCode,
		DepartureDate: trip.FormatDate(t.StartDate),
		ReturnDate:    trip.FormatDate(t.EndDate),
		Max:           searchMax,
	})
}

func (m *Monitor) markInvalid(ctx context.Context, log *slog.Logger, t *trip.Trip, reason string) {
	if err := m.trips.UpdateValidationStatus(ctx, t.ID, trip.Invalid(reason, m.now())); err != nil {
		log.Error("failed to update validation status", "err", err)
	}
}

var errIncompleteUser = errors.New("trip owner has no email or name")

// notify renders the price-drop email and places it in the outbox.
func (m *Monitor) notify(ctx context.Context, t *trip.Trip, cmp *Result) error {
	u := t.User
	if u == nil || strings.TrimSpace(u.Email) == "" || strings.TrimSpace(u.FirstName) == "" || strings.TrimSpace(u.LastName) == "" {
		return errIncompleteUser
	}

	data := priceDropData(t, cmp)
	content, err := data.Render()
	if err != nil {
		return err
	}

	msg := mailbox.NewMessage(
		[]mailbox.Address{{Name: u.FirstName + " " + u.LastName, Email: u.Email}},
		data.Subject(),
		content,
	)
	msg.CreatedAt = m.now()

	if err := m.outbox.EnqueueEmail(ctx, msg); err != nil {
		return fmt.Errorf("enqueueing price drop email: %w", err)
	}
	return nil
}

func priceDropData(t *trip.Trip, cmp *Result) mailbox.PriceDrop {
	destination := t.Destination
	if destination == "" {
		destination = "N/A"
	}

	return mailbox.PriceDrop{
		Name:          strings.Fields(t.User.FirstName)[0],
		TripName:      t.TripName,
		PreviousPrice: mailbox.FormatMoney(decimal.NewFromFloat(cmp.OldPrice), cmp.Currency),
		NewPrice:      mailbox.FormatMoney(decimal.NewFromFloat(cmp.NewPrice), cmp.Currency),
		MoneySave:     fmt.Sprintf("%s %.1f%%", mailbox.FormatMoney(cmp.Saved(), cmp.Currency), cmp.PercentageChange),
		Destination:   destination,
		Dates:         trip.CalendarDate(t.StartDate).Format("1/2/2006") + " - " + trip.CalendarDate(t.EndDate).Format("1/2/2006"),
	}
}

// providerMessage extracts the most useful text of a provider failure.
func providerMessage(err error) string {
	var apiErr *amadeus.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Title != "" {
			return apiErr.Title
		}
		return apiErr.Error()
	}
	return err.Error()
}

func logProviderError(log *slog.Logger, err error) {
	attrs := []any{"kind", amadeus.ErrorKind(err), "err", err}
	var apiErr *amadeus.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "status_code", apiErr.StatusCode, "error_code", apiErr.Code)
	}
	log.Warn("failed to fetch current prices", attrs...)
}
