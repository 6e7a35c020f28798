package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tripwise/tripwise/internal/offer"
)

// DefaultBaseURL is the Amadeus self-service test environment.
const DefaultBaseURL = "https://test.api.amadeus.com"

const httpTimeout = 30 * time.Second

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Code       int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Title
	if e.Detail != "" {
		if msg != "" {
			msg += ": "
		}
		msg += e.Detail
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("amadeus returned status %d: %s", e.StatusCode, msg)
}

// ErrorKind classifies a provider failure for logging.
func ErrorKind(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return "provider_unavailable"
		}
		return "provider_rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}

type errorBody struct {
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && len(eb.Errors) > 0 {
			apiErr.Code = eb.Errors[0].Code
			apiErr.Title = eb.Errors[0].Title
			apiErr.Detail = eb.Errors[0].Detail
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}

	return nil
}

// Client talks to the Amadeus self-service APIs.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client that authenticates with OAuth2 client credentials.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: httpTimeout})
	hc := cc.Client(tokenCtx)
	hc.Timeout = httpTimeout

	return &Client{baseURL: baseURL, client: hc}
}

// NewClientWithHTTP constructs a Client around an existing http.Client (for tests).
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// FlightQuery describes a round-trip flight offer search.
type FlightQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Max           int
	Currency      string
}

type flightOffersResponse struct {
	Data []offer.Flight `json:"data"`
}

// SearchFlights returns flight offers for the query.
func (c *Client) SearchFlights(ctx context.Context, q FlightQuery) ([]offer.Flight, error) {
	adults := q.Adults
	if adults <= 0 {
		adults = 1
	}
	currency := q.Currency
	if currency == "" {
		currency = offer.DefaultCurrency
	}

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate)
	if q.ReturnDate != "" {
		params.Set("returnDate", q.ReturnDate)
	}
	params.Set("adults", strconv.Itoa(adults))
	params.Set("currencyCode", currency)
	if q.Max > 0 {
		params.Set("max", strconv.Itoa(q.Max))
	}

	var raw flightOffersResponse
	if err := doGet(ctx, c.client, c.baseURL+"/v2/shopping/flight-offers?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("flight offers %s-%s: %w", q.Origin, q.Destination, err)
	}

	return raw.Data, nil
}

type hotelsResponse struct {
	Data []offer.Hotel `json:"data"`
}

// HotelsByCity lists hotels in the given city.
func (c *Client) HotelsByCity(ctx context.Context, cityCode string) ([]offer.Hotel, error) {
	endpoint := c.baseURL + "/v1/reference-data/locations/hotels/by-city?cityCode=" + url.QueryEscape(cityCode)

	var raw hotelsResponse
	if err := doGet(ctx, c.client, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("hotels by city %s: %w", cityCode, err)
	}

	return raw.Data, nil
}

// Location is a city or airport known to the provider.
type Location struct {
	Name     string `json:"name"`
	IataCode string `json:"iataCode"`
	SubType  string `json:"subType,omitempty"`
}

type locationsResponse struct {
	Data []Location `json:"data"`
}

// Locations looks up cities and airports matching keyword.
func (c *Client) Locations(ctx context.Context, keyword string) ([]Location, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("subType", "CITY,AIRPORT")

	var raw locationsResponse
	if err := doGet(ctx, c.client, c.baseURL+"/v1/reference-data/locations?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("locations for %q: %w", keyword, err)
	}

	return raw.Data, nil
}
