package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/handaph/alerts-service/internal/weather"
)

// ErrNotFound is returned when no data is available for a given coordinate.
var ErrNotFound = errors.New("no weather data for location")

// Key buckets a coordinate for history indexing. Two decimal places is
// roughly a kilometre, well inside the proximity-cache threshold.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%.2f:%.2f", lat, lon)
}

// history holds a time-ordered list of snapshots for one coordinate bucket.
type history struct {
	snapshots []weather.StoredSnapshot
}

// MemoryStore is a concurrency-safe in-memory history of fetched snapshots,
// keyed by coordinate bucket.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*history

	maxHistory int           // max snapshots per bucket (<=0 = unlimited)
	maxAge     time.Duration // max snapshot age (<=0 = unlimited)
	clock      clockwork.Clock
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*history),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SaveSnapshot appends a snapshot for a coordinate and enforces retention.
func (s *MemoryStore) SaveSnapshot(lat, lon float64, snap weather.Snapshot) {
	key := Key(lat, lon)

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[key]
	if !ok {
		h = &history{}
		s.data[key] = h
	}

	h.snapshots = append(h.snapshots, weather.StoredSnapshot{
		Snapshot:  snap,
		Lat:       lat,
		Lon:       lon,
		FetchedAt: s.clock.Now().UTC(),
	})

	if s.maxHistory > 0 && len(h.snapshots) > s.maxHistory {
		over := len(h.snapshots) - s.maxHistory
		h.snapshots = h.snapshots[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(h.snapshots); i++ {
			if !h.snapshots[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			h.snapshots = h.snapshots[i:]
		}
	}
}

// GetLatest returns the most recent snapshot for a coordinate bucket.
func (s *MemoryStore) GetLatest(lat, lon float64) (weather.StoredSnapshot, error) {
	key := Key(lat, lon)

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[key]
	if !ok || len(h.snapshots) == 0 {
		return weather.StoredSnapshot{}, ErrNotFound
	}
	return h.snapshots[len(h.snapshots)-1], nil
}

// GetRange returns all snapshots for a coordinate bucket between from and to
// (inclusive).
func (s *MemoryStore) GetRange(lat, lon float64, from, to time.Time) ([]weather.StoredSnapshot, error) {
	key := Key(lat, lon)

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[key]
	if !ok || len(h.snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.StoredSnapshot
	for _, snap := range h.snapshots {
		if !snap.FetchedAt.Before(from) && !snap.FetchedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
