package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"

	"github.com/handaph/alerts-service/internal/weather"
)

// AppConfig holds all service settings, populated from environment
// variables.
type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// HTTPTimeout bounds every outbound call; no request is issued without
	// a deadline.
	HTTPTimeout time.Duration

	WeatherBaseURL string
	AlertsURL      string

	SMSEndpoint string
	SMSToken    string
	SMSSenderID string

	CacheFile       string
	CacheThreshold  float64
	CacheFreshFor   time.Duration
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	// Scheduled refresh.
	FetchInterval     time.Duration
	Locations         []weather.Location
	SeverityThreshold string
	SMSRecipients     []string

	GeocoderAPIKey string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:      getenvDefault("PORT", "8080"),
		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "text"),

		WeatherBaseURL: os.Getenv("WEATHER_BASE_URL"),
		AlertsURL:      os.Getenv("ALERTS_SOURCE_URL"),

		SMSEndpoint: getenvDefault("SMS_ENDPOINT", "https://app.philsms.com/api/v3/sms/send"),
		SMSToken:    os.Getenv("SMS_API_TOKEN"),
		SMSSenderID: getenvDefault("SMS_SENDER_ID", "HANDA"),

		CacheFile:         getenvDefault("WEATHER_CACHE_FILE", "data/weather-cache.json"),
		StoreMaxHistory:   getenvInt("STORE_MAX_HISTORY", 96),
		SeverityThreshold: getenvDefault("ALERT_SEVERITY_THRESHOLD", "severe"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CacheFreshFor, err = getenvDuration("CACHE_FRESH_FOR", "10m"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.CacheThreshold, err = getenvFloat("CACHE_THRESHOLD_DEGREES", 0.2)
	if err != nil {
		return nil, err
	}

	if cfg.AlertsURL == "" {
		return nil, fmt.Errorf("ALERTS_SOURCE_URL is required")
	}

	if recipients := os.Getenv("SMS_RECIPIENTS"); recipients != "" {
		for _, r := range strings.Split(recipients, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.SMSRecipients = append(cfg.SMSRecipients, r)
			}
		}
	}

	locs, err := loadLocations(cfg.GeocoderAPIKey)
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadLocations parses WEATHER_LOCATIONS ("Name:lat,lon" entries separated
// by semicolons) and resolves WEATHER_LOCATION_CITIES (comma-separated city
// names) through the geocoder when an API key is configured.
func loadLocations(geocoderKey string) ([]weather.Location, error) {
	var locs []weather.Location

	if raw := os.Getenv("WEATHER_LOCATIONS"); raw != "" {
		for _, entry := range strings.Split(raw, ";") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			loc, err := parseLocation(entry)
			if err != nil {
				return nil, err
			}
			locs = append(locs, loc)
		}
	}

	if cities := os.Getenv("WEATHER_LOCATION_CITIES"); cities != "" {
		if geocoderKey == "" {
			return nil, fmt.Errorf("WEATHER_LOCATION_CITIES requires GEOCODER_API_KEY")
		}
		geocoder.ApiKey = geocoderKey

		for _, city := range strings.Split(cities, ",") {
			city = strings.TrimSpace(city)
			if city == "" {
				continue
			}
			resolved, err := geocoder.Geocoding(geocoder.Address{
				City:    city,
				Country: "Philippines",
			})
			if err != nil {
				return nil, fmt.Errorf("geocode %q: %w", city, err)
			}
			locs = append(locs, weather.Location{
				Name: city,
				Lat:  resolved.Latitude,
				Lon:  resolved.Longitude,
			})
		}
	}

	return locs, nil
}

func parseLocation(entry string) (weather.Location, error) {
	name, coords, ok := strings.Cut(entry, ":")
	if !ok {
		return weather.Location{}, fmt.Errorf("invalid location %q; want Name:lat,lon", entry)
	}
	latStr, lonStr, ok := strings.Cut(coords, ",")
	if !ok {
		return weather.Location{}, fmt.Errorf("invalid location %q; want Name:lat,lon", entry)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("invalid latitude in %q: %w", entry, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("invalid longitude in %q: %w", entry, err)
	}
	return weather.Location{Name: strings.TrimSpace(name), Lat: lat, Lon: lon}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
