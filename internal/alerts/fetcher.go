package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// ErrFetchFailed is returned when the alerts source responds with a
// non-success status or an unreadable body.
var ErrFetchFailed = errors.New("alerts fetch failed")

// Fetcher retrieves active alerts for a coordinate from the alerts source.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewFetcher creates a Fetcher against the given alerts endpoint.
func NewFetcher(httpClient *http.Client, baseURL string) *Fetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "alerts-source",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Fetcher{
		baseURL:    baseURL,
		httpClient: httpClient,
		circuit:    cb,
	}
}

// Fetch returns the active alerts for the coordinate. A missing alerts list
// in the body is an empty result, not an error.
func (f *Fetcher) Fetch(ctx context.Context, lat, lon float64) ([]Alert, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))

	u := fmt.Sprintf("%s?%s", f.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	result, err := f.circuit.Execute(func() (interface{}, error) {
		resp, execErr := f.httpClient.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, execErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
		}

		var payload struct {
			Alerts []Alert `json:"alerts"`
		}
		if decErr := json.NewDecoder(resp.Body).Decode(&payload); decErr != nil {
			return nil, fmt.Errorf("%w: decode body: %v", ErrFetchFailed, decErr)
		}
		return payload.Alerts, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %v", ErrFetchFailed, err)
		}
		return nil, err
	}

	alerts, ok := result.([]Alert)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type", ErrFetchFailed)
	}
	return alerts, nil
}
