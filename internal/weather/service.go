package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/handaph/alerts-service/internal/observability"
)

// Cached is the single proximity-cache slot: the last snapshot fetched,
// the coordinate it was fetched for, and when. The cache itself enforces no
// expiry; staleness is judged by the caller against Timestamp.
type Cached struct {
	Data      Snapshot `json:"data"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
}

// SnapshotCache is the single-slot proximity cache contract. Save must never
// fail the caller; Load must treat corrupt storage as a miss.
type SnapshotCache interface {
	Save(snap Snapshot, lat, lon *float64)
	Load() (Cached, bool)
	Nearby(aLat, aLon, bLat, bLon *float64) bool
}

// StoredSnapshot is a snapshot as kept in the history store.
type StoredSnapshot struct {
	Snapshot  Snapshot  `json:"snapshot"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	FetchedAt time.Time `json:"fetchedAt"` // always UTC
}

// HistoryStore is the contract the in-memory history store must satisfy.
type HistoryStore interface {
	SaveSnapshot(lat, lon float64, snap Snapshot)
	GetLatest(lat, lon float64) (StoredSnapshot, error)
	GetRange(lat, lon float64, from, to time.Time) ([]StoredSnapshot, error)
}

// Upstream is the normalizing weather client contract. Satisfied by *Client.
type Upstream interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (Snapshot, error)
	FetchForecast(ctx context.Context, lat, lon float64, days int) ([]ForecastDay, error)
}

// Service orchestrates the upstream client, the proximity cache, and the
// history store. The freshness policy lives here, not in the cache.
type Service struct {
	upstream Upstream
	cache    SnapshotCache
	history  HistoryStore
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	// freshFor is how old a cached snapshot may be and still be reused for
	// a nearby coordinate.
	freshFor time.Duration
}

// NewService creates a Service.
func NewService(upstream Upstream, cache SnapshotCache, history HistoryStore, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, freshFor time.Duration) *Service {
	return &Service{
		upstream: upstream,
		cache:    cache,
		history:  history,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		freshFor: freshFor,
	}
}

// Current returns the current conditions for the coordinate. A cached
// snapshot is reused when it was fetched for a nearby coordinate and is
// still fresh; otherwise one upstream fetch is issued and the cache slot and
// history are updated. The second return reports whether the snapshot came
// from the cache.
func (s *Service) Current(ctx context.Context, lat, lon float64) (Snapshot, bool, error) {
	if cached, ok := s.cache.Load(); ok &&
		s.cache.Nearby(&lat, &lon, cached.Lat, cached.Lon) &&
		s.clock.Now().UnixMilli()-cached.Timestamp <= s.freshFor.Milliseconds() {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.logger.Debug("reusing cached snapshot", "lat", lat, "lon", lon, "cachedAt", cached.Timestamp)
		return cached.Data, true, nil
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	snap, err := s.upstream.FetchCurrent(ctx, lat, lon)
	if err != nil {
		s.metrics.UpstreamRequests.WithLabelValues("weather", "error").Inc()
		return Snapshot{}, false, err
	}
	s.metrics.UpstreamRequests.WithLabelValues("weather", "success").Inc()

	// Caching is explicit here, never automatic inside the client. A save
	// failure degrades to a future cache miss and is absorbed by the cache.
	s.cache.Save(snap, &lat, &lon)
	s.history.SaveSnapshot(lat, lon, snap)

	return snap, false, nil
}

// Forecast returns the daily forecast for the coordinate. Forecasts are not
// proximity-cached; the upstream call is cheap and the data changes daily.
func (s *Service) Forecast(ctx context.Context, lat, lon float64, days int) ([]ForecastDay, error) {
	forecast, err := s.upstream.FetchForecast(ctx, lat, lon, days)
	if err != nil {
		s.metrics.UpstreamRequests.WithLabelValues("weather", "error").Inc()
		return nil, err
	}
	s.metrics.UpstreamRequests.WithLabelValues("weather", "success").Inc()
	return forecast, nil
}

// History delegates to the underlying store.
func (s *Service) History(lat, lon float64, from, to time.Time) ([]StoredSnapshot, error) {
	return s.history.GetRange(lat, lon, from, to)
}

// Latest delegates to the underlying store.
func (s *Service) Latest(lat, lon float64) (StoredSnapshot, error) {
	return s.history.GetLatest(lat, lon)
}
