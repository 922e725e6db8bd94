package cache

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handaph/alerts-service/internal/weather"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

func newTestCache(t *testing.T, clock clockwork.Clock) *ProximityCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weather-cache.json")
	return New(path, 0, clock, testLogger())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newTestCache(t, clock)

	snap := weather.Snapshot{
		Temperature: 31,
		Condition:   weather.ConditionRain,
		Description: "Moderate rain",
		Humidity:    85,
		Icon:        "10d",
	}
	before := clock.Now().UnixMilli()
	c.Save(snap, ptr(14.83), ptr(120.29))

	got, ok := c.Load()
	require.True(t, ok)

	assert.Equal(t, snap, got.Data)
	require.NotNil(t, got.Lat)
	require.NotNil(t, got.Lon)
	assert.Equal(t, 14.83, *got.Lat)
	assert.Equal(t, 120.29, *got.Lon)
	assert.GreaterOrEqual(t, got.Timestamp, before)
}

func TestSaveOverwritesSlot(t *testing.T) {
	c := newTestCache(t, clockwork.NewFakeClock())

	c.Save(weather.Snapshot{Temperature: 28}, ptr(14.83), ptr(120.29))
	c.Save(weather.Snapshot{Temperature: 31}, ptr(10.31), ptr(123.89))

	got, ok := c.Load()
	require.True(t, ok)
	assert.Equal(t, 31, got.Data.Temperature)
	assert.Equal(t, 10.31, *got.Lat)
}

func TestLoadMissingFileIsMiss(t *testing.T) {
	c := newTestCache(t, clockwork.NewFakeClock())

	_, ok := c.Load()
	assert.False(t, ok)
}

func TestLoadCorruptBlobIsMiss(t *testing.T) {
	clock := clockwork.NewFakeClock()
	path := filepath.Join(t.TempDir(), "weather-cache.json")
	c := New(path, 0, clock, testLogger())

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := c.Load()
	assert.False(t, ok)
}

func TestLoadBlobWithoutDataIsMiss(t *testing.T) {
	clock := clockwork.NewFakeClock()
	path := filepath.Join(t.TempDir(), "weather-cache.json")
	c := New(path, 0, clock, testLogger())

	require.NoError(t, os.WriteFile(path, []byte(`{"lat": 14.83, "timestamp": 1}`), 0o644))

	_, ok := c.Load()
	assert.False(t, ok)
}

func TestNearby(t *testing.T) {
	c := newTestCache(t, clockwork.NewFakeClock())

	assert.True(t, c.Nearby(ptr(14.83), ptr(120.29), ptr(14.83), ptr(120.29)))
	assert.True(t, c.Nearby(ptr(14.83), ptr(120.29), ptr(14.90), ptr(120.35)))
	assert.False(t, c.Nearby(ptr(14.83), ptr(120.29), ptr(15.50), ptr(121.50)))

	// Symmetric in the two coordinate pairs.
	assert.Equal(t,
		c.Nearby(ptr(14.83), ptr(120.29), ptr(14.99), ptr(120.45)),
		c.Nearby(ptr(14.99), ptr(120.45), ptr(14.83), ptr(120.29)))

	// Missing coordinates are never nearby.
	assert.False(t, c.Nearby(nil, ptr(120.29), ptr(14.83), ptr(120.29)))
	assert.False(t, c.Nearby(ptr(14.83), nil, ptr(14.83), ptr(120.29)))
	assert.False(t, c.Nearby(ptr(14.83), ptr(120.29), nil, ptr(120.29)))
	assert.False(t, c.Nearby(ptr(14.83), ptr(120.29), ptr(14.83), nil))
}

func TestNearbyThresholdBoundary(t *testing.T) {
	c := newTestCache(t, clockwork.NewFakeClock())

	// Just inside and just outside the 0.2 degree box.
	assert.True(t, c.Nearby(ptr(14.80), ptr(120.20), ptr(14.99), ptr(120.39)))
	assert.False(t, c.Nearby(ptr(14.80), ptr(120.20), ptr(15.01), ptr(120.39)))
	assert.False(t, c.Nearby(ptr(14.80), ptr(120.20), ptr(14.99), ptr(120.41)))
}
