package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ALERTS_SOURCE_URL", "http://localhost:9000/api/alerts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheFreshFor)
	assert.Equal(t, 0.2, cfg.CacheThreshold)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, 15*time.Minute, cfg.FetchInterval)
	assert.Equal(t, "severe", cfg.SeverityThreshold)
	assert.Empty(t, cfg.Locations)
}

func TestLoadRequiresAlertsURL(t *testing.T) {
	t.Setenv("ALERTS_SOURCE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERTS_SOURCE_URL")
}

func TestLoadRejectsInvalidDurations(t *testing.T) {
	t.Setenv("ALERTS_SOURCE_URL", "http://localhost:9000/api/alerts")
	t.Setenv("HTTP_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestLoadParsesLocations(t *testing.T) {
	t.Setenv("ALERTS_SOURCE_URL", "http://localhost:9000/api/alerts")
	t.Setenv("WEATHER_LOCATIONS", "Olongapo:14.83,120.29; Cebu City:10.31,123.89")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Locations, 2)
	assert.Equal(t, "Olongapo", cfg.Locations[0].Name)
	assert.Equal(t, 14.83, cfg.Locations[0].Lat)
	assert.Equal(t, 120.29, cfg.Locations[0].Lon)
	assert.Equal(t, "Cebu City", cfg.Locations[1].Name)
}

func TestLoadRejectsMalformedLocation(t *testing.T) {
	t.Setenv("ALERTS_SOURCE_URL", "http://localhost:9000/api/alerts")
	t.Setenv("WEATHER_LOCATIONS", "Olongapo@14.83,120.29")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadParsesRecipients(t *testing.T) {
	t.Setenv("ALERTS_SOURCE_URL", "http://localhost:9000/api/alerts")
	t.Setenv("SMS_RECIPIENTS", "09171234567, 639181234567,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"09171234567", "639181234567"}, cfg.SMSRecipients)
}

func TestLoadCitiesRequireGeocoderKey(t *testing.T) {
	t.Setenv("ALERTS_SOURCE_URL", "http://localhost:9000/api/alerts")
	t.Setenv("WEATHER_LOCATION_CITIES", "Olongapo")
	t.Setenv("GEOCODER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_API_KEY")
}
