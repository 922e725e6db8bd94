package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUpstreamUnavailable is returned when the upstream weather provider
// responds with a non-success status or a body we cannot interpret.
var ErrUpstreamUnavailable = errors.New("weather upstream unavailable")

// The deployment serves a single region; all upstream queries are issued in
// its timezone.
const upstreamTimezone = "Asia/Manila"

// Open-Meteo does not report visibility; snapshots carry this fixed default.
// Known limitation of the upstream source, not to be silently corrected.
const defaultVisibilityKm = 10

// Client fetches current conditions and daily forecasts from Open-Meteo and
// normalizes them into Snapshots and ForecastDays. It performs a single
// attempt per call through a circuit breaker; retries are deliberately not
// part of this layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. baseURL may be empty to use the
// public endpoint.
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		circuit:    cb,
		logger:     logger,
	}
}

// currentPayload is the strict intermediate schema for a current-conditions
// response. The Current object must be present; its absence means the body
// is malformed.
type currentPayload struct {
	Current *struct {
		Temperature     float64 `json:"temperature_2m"`
		Humidity        float64 `json:"relative_humidity_2m"`
		ApparentTemp    float64 `json:"apparent_temperature"`
		WeatherCode     int     `json:"weather_code"`
		WindSpeedMS     float64 `json:"wind_speed_10m"`
		SurfacePressure float64 `json:"surface_pressure"`
	} `json:"current"`
}

// forecastPayload is the strict intermediate schema for a daily forecast
// response. The arrays are parallel; Dates drives the zip.
type forecastPayload struct {
	Daily *struct {
		Dates        []string  `json:"time"`
		WeatherCodes []int     `json:"weather_code"`
		TempMax      []float64 `json:"temperature_2m_max"`
		TempMin      []float64 `json:"temperature_2m_min"`
		Humidity     []float64 `json:"relative_humidity_2m_mean"`
		WindSpeedMS  []float64 `json:"wind_speed_10m_max"`
		PrecipMm     []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// FetchCurrent issues one upstream request for current conditions at the
// given coordinate and normalizes the response. The caller is responsible
// for rejecting missing or non-numeric coordinates before this call.
func (c *Client) FetchCurrent(ctx context.Context, lat, lon float64) (Snapshot, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m,surface_pressure")
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", upstreamTimezone)

	var payload currentPayload
	if err := c.getJSON(ctx, values, &payload); err != nil {
		return Snapshot{}, err
	}
	if payload.Current == nil {
		return Snapshot{}, fmt.Errorf("%w: response has no current block", ErrUpstreamUnavailable)
	}

	cur := payload.Current
	info := TranslateCode(cur.WeatherCode)

	return Snapshot{
		Temperature:  RoundInt(cur.Temperature),
		Condition:    info.Main,
		Description:  info.Description,
		Location:     fmt.Sprintf("%.4f,%.4f", lat, lon),
		Humidity:     RoundInt(cur.Humidity),
		WindSpeedKmh: MsToKmh(cur.WindSpeedMS),
		VisibilityKm: defaultVisibilityKm,
		PressureHpa:  RoundInt(cur.SurfacePressure),
		FeelsLike:    RoundInt(cur.ApparentTemp),
		Icon:         info.Icon,
	}, nil
}

// FetchForecast issues one upstream request for a daily forecast and zips the
// provider's parallel arrays into ForecastDays. If the arrays diverge in
// length the zip truncates to the shortest rather than failing; this is
// cosmetic display data and availability wins over strictness here.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64, days int) ([]ForecastDay, error) {
	if days <= 0 {
		days = 7
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,relative_humidity_2m_mean,wind_speed_10m_max,precipitation_sum")
	values.Set("wind_speed_unit", "ms")
	values.Set("forecast_days", fmt.Sprintf("%d", days))
	values.Set("timezone", upstreamTimezone)

	var payload forecastPayload
	if err := c.getJSON(ctx, values, &payload); err != nil {
		return nil, err
	}
	if payload.Daily == nil || len(payload.Daily.Dates) == 0 {
		return nil, fmt.Errorf("%w: response has no daily block", ErrUpstreamUnavailable)
	}

	d := payload.Daily
	n := len(d.Dates)
	for _, l := range []int{len(d.WeatherCodes), len(d.TempMax), len(d.TempMin), len(d.Humidity), len(d.WindSpeedMS), len(d.PrecipMm)} {
		if l < n {
			n = l
		}
	}
	if n < len(d.Dates) {
		c.logger.Warn("forecast arrays have mismatched lengths; truncating",
			"dates", len(d.Dates), "used", n)
	}
	if n > days {
		n = days
	}

	forecast := make([]ForecastDay, 0, n)
	for i := 0; i < n; i++ {
		info := TranslateCode(d.WeatherCodes[i])
		forecast = append(forecast, ForecastDay{
			Date:         d.Dates[i],
			TempMin:      RoundInt(d.TempMin[i]),
			TempMax:      RoundInt(d.TempMax[i]),
			Humidity:     RoundInt(d.Humidity[i]),
			WindSpeedKmh: MsToKmh(d.WindSpeedMS[i]),
			RainfallMm:   RoundInt(d.PrecipMm[i]),
			Condition:    info.Main,
			Description:  info.Description,
			Icon:         info.Icon,
		})
	}
	return forecast, nil
}

// getJSON performs a single GET through the circuit breaker and decodes the
// body into out. Any transport error, non-2xx status, or undecodable body is
// reported as ErrUpstreamUnavailable.
func (c *Client) getJSON(ctx context.Context, values url.Values, out any) error {
	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	_, err = c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, execErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}

		if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
			return nil, fmt.Errorf("%w: decode body: %v", ErrUpstreamUnavailable, decErr)
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open: %v", ErrUpstreamUnavailable, err)
		}
		return err
	}
	return nil
}
