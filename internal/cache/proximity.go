// Package cache implements the single-slot proximity cache that avoids
// redundant upstream weather fetches for nearby coordinates.
package cache

import (
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/handaph/alerts-service/internal/weather"
)

// DefaultThresholdDegrees is the bounding-box half-width within which two
// coordinates count as the same place for cache-reuse purposes.
const DefaultThresholdDegrees = 0.2

// cachedOnDisk mirrors weather.Cached with a pointer Data field so a
// structurally invalid blob (missing data) can be told apart from a zero
// snapshot.
type cachedOnDisk struct {
	Data      *weather.Snapshot `json:"data"`
	Lat       *float64          `json:"lat,omitempty"`
	Lon       *float64          `json:"lon,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// ProximityCache persists one snapshot as a JSON blob at a fixed path, the
// server-side analog of the single localStorage slot the clients keep.
// Persistence failures never propagate: a failed save is a no-op and a
// failed or corrupt load is a miss. Concurrent saves are last-write-wins.
type ProximityCache struct {
	path      string
	threshold float64
	clock     clockwork.Clock
	logger    *slog.Logger
}

// New creates a ProximityCache backed by the file at path. A threshold of 0
// selects DefaultThresholdDegrees.
func New(path string, threshold float64, clock clockwork.Clock, logger *slog.Logger) *ProximityCache {
	if threshold <= 0 {
		threshold = DefaultThresholdDegrees
	}
	return &ProximityCache{
		path:      path,
		threshold: threshold,
		clock:     clock,
		logger:    logger,
	}
}

// Save overwrites the cache slot with the snapshot, its coordinates, and the
// current time. Write errors are logged and swallowed; the caller's primary
// operation must never fail because the cache could not be written.
func (c *ProximityCache) Save(snap weather.Snapshot, lat, lon *float64) {
	entry := weather.Cached{
		Data:      snap,
		Lat:       lat,
		Lon:       lon,
		Timestamp: c.clock.Now().UnixMilli(),
	}

	blob, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("proximity cache marshal failed", "error", err)
		return
	}

	// Write-then-rename keeps racing saves last-write-wins without a lock
	// and keeps readers from ever seeing a half-written blob.
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		c.logger.Warn("proximity cache mkdir failed", "error", err)
		return
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		c.logger.Warn("proximity cache write failed", "error", err)
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		c.logger.Warn("proximity cache rename failed", "error", err)
	}
}

// Load returns the cache slot if present and structurally valid. Unreadable
// or corrupt storage is a miss, never an error.
func (c *ProximityCache) Load() (weather.Cached, bool) {
	blob, err := os.ReadFile(c.path)
	if err != nil {
		return weather.Cached{}, false
	}

	var raw cachedOnDisk
	if err := json.Unmarshal(blob, &raw); err != nil {
		c.logger.Warn("proximity cache blob unreadable; treating as miss", "error", err)
		return weather.Cached{}, false
	}
	if raw.Data == nil {
		return weather.Cached{}, false
	}

	return weather.Cached{
		Data:      *raw.Data,
		Lat:       raw.Lat,
		Lon:       raw.Lon,
		Timestamp: raw.Timestamp,
	}, true
}

// Nearby reports whether two coordinate pairs fall within the same
// axis-aligned bounding box of half-width threshold degrees. Any missing
// coordinate makes the pairs not nearby. The test is on raw degrees, not
// great-circle distance; at city scale the approximation holds, and the
// default threshold is calibrated for it. Switching to haversine would
// require recalibrating the threshold.
func (c *ProximityCache) Nearby(aLat, aLon, bLat, bLon *float64) bool {
	if aLat == nil || aLon == nil || bLat == nil || bLon == nil {
		return false
	}
	return math.Abs(*aLat-*bLat) <= c.threshold && math.Abs(*aLon-*bLon) <= c.threshold
}
