// Package scheduler runs the periodic weather refresh and severe-alert SMS
// job for the configured locations.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/handaph/alerts-service/internal/alerts"
	"github.com/handaph/alerts-service/internal/observability"
	"github.com/handaph/alerts-service/internal/sms"
	"github.com/handaph/alerts-service/internal/weather"
)

// Scheduler periodically refreshes weather for the configured locations and
// texts configured recipients about alerts at or above the severity
// threshold.
type Scheduler struct {
	scheduler *gocron.Scheduler
	weather   *weather.Service
	source    alerts.Source
	gateway   *sms.Gateway
	logger    *slog.Logger
	metrics   *observability.Metrics

	locations  []weather.Location
	interval   time.Duration
	threshold  string
	recipients []string

	mu       sync.Mutex
	notified map[string]struct{} // alert IDs already texted
}

// New creates a Scheduler. The gateway and recipients may be empty; alert
// checks then only refresh data without texting anyone.
func New(locations []weather.Location, interval time.Duration, svc *weather.Service, source alerts.Source, gateway *sms.Gateway, threshold string, recipients []string, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		weather:    svc,
		source:     source,
		gateway:    gateway,
		logger:     logger,
		metrics:    metrics,
		locations:  locations,
		interval:   interval,
		threshold:  threshold,
		recipients: recipients,
		notified:   make(map[string]struct{}),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runOnce() {
	s.metrics.ScheduledRefreshRuns.Inc()
	s.logger.Info("scheduler: running refresh job", "locations", len(s.locations))

	var (
		wg     sync.WaitGroup
		failed bool
		mu     sync.Mutex
	)
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.refreshLocation(ctx, loc); err != nil {
				s.logger.Warn("scheduler: refresh failed", "location", loc.Name, "error", err)
				mu.Lock()
				failed = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if failed {
		s.metrics.ScheduledRefreshFails.Inc()
	}
}

// refreshLocation refreshes the weather snapshot for one location and checks
// its active alerts, texting recipients about any new alert at or above the
// severity threshold.
func (s *Scheduler) refreshLocation(ctx context.Context, loc weather.Location) error {
	if _, _, err := s.weather.Current(ctx, loc.Lat, loc.Lon); err != nil {
		return fmt.Errorf("weather refresh: %w", err)
	}

	active, err := s.source.Fetch(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return fmt.Errorf("alerts check: %w", err)
	}
	s.metrics.AlertsFetched.Add(float64(len(active)))

	if s.gateway == nil || len(s.recipients) == 0 {
		return nil
	}

	min := alerts.SeverityRank(s.threshold)
	for _, a := range active {
		if alerts.SeverityRank(a.Severity) < min {
			continue
		}
		if !s.markNotified(a.ID) {
			continue
		}

		message := alertMessage(loc, a)
		for _, recipient := range s.recipients {
			if _, err := s.gateway.Send(ctx, recipient, message, sms.TypeAlert); err != nil {
				s.logger.Warn("scheduler: alert sms failed",
					"alertId", a.ID, "recipient", recipient, "error", err)
			}
		}
	}
	return nil
}

// markNotified records an alert ID; it returns false when the alert was
// already texted in a previous run.
func (s *Scheduler) markNotified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.notified[id]; seen {
		return false
	}
	s.notified[id] = struct{}{}
	return true
}

func alertMessage(loc weather.Location, a alerts.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s ALERT] %s", strings.ToUpper(a.Severity), a.Title)
	if loc.Name != "" {
		fmt.Fprintf(&b, " (%s)", loc.Name)
	}
	if a.Description != "" {
		b.WriteString(": ")
		b.WriteString(a.Description)
	}
	if a.ValidUntil != "" {
		fmt.Fprintf(&b, " Valid until %s.", a.ValidUntil)
	}
	return b.String()
}
