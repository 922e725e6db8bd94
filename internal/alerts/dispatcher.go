package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/handaph/alerts-service/internal/observability"
	"github.com/handaph/alerts-service/internal/push"
)

// ErrMissingCoordinates is returned when a dispatch is requested without a
// full coordinate pair.
var ErrMissingCoordinates = errors.New("latitude and longitude are required")

// Source is the alert lookup the dispatcher consumes. Satisfied by *Fetcher.
type Source interface {
	Fetch(ctx context.Context, lat, lon float64) ([]Alert, error)
}

// DeliveryOutcome records what happened to one alert's notification during a
// dispatch. Failures here are informational; they never fail the dispatch.
type DeliveryOutcome struct {
	AlertID   string `json:"alertId"`
	Attempted bool   `json:"attempted"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// DispatchResult is the aggregate outcome of one dispatch call. AlertsCount
// and Alerts are guaranteed whenever the alerts fetch succeeded, regardless
// of individual delivery failures.
type DispatchResult struct {
	DispatchID  string            `json:"dispatchId"`
	AlertsCount int               `json:"alertsCount"`
	Alerts      []Alert           `json:"alerts"`
	Outcomes    []DeliveryOutcome `json:"outcomes"`
}

// Dispatcher fetches alerts for a coordinate and fans out one push
// notification per alert.
type Dispatcher struct {
	source  Source
	sender  push.Sender
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(source Source, sender push.Sender, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		source:  source,
		sender:  sender,
		logger:  logger,
		metrics: metrics,
	}
}

// Dispatch fetches the active alerts for the coordinate and, when a
// subscription is supplied, delivers one notification per alert. Deliveries
// run concurrently and are joined before returning; an individual delivery
// failure is logged and recorded in its outcome but never aborts siblings or
// the overall call. A failed alerts fetch aborts the whole dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, lat, lon *float64, sub *push.Subscription) (DispatchResult, error) {
	if lat == nil || lon == nil {
		return DispatchResult{}, ErrMissingCoordinates
	}

	fetched, err := d.source.Fetch(ctx, *lat, *lon)
	if err != nil {
		return DispatchResult{}, err
	}
	d.metrics.AlertsFetched.Add(float64(len(fetched)))

	result := DispatchResult{
		DispatchID:  uuid.NewString(),
		AlertsCount: len(fetched),
		Alerts:      fetched,
		Outcomes:    make([]DeliveryOutcome, len(fetched)),
	}

	var wg sync.WaitGroup
	for i, a := range fetched {
		payload := payloadFor(a)
		result.Outcomes[i] = DeliveryOutcome{AlertID: a.ID}

		if sub == nil {
			// Payload built for parity with the delivering path, but there
			// is nowhere to send it.
			d.metrics.NotificationsSkipped.Inc()
			continue
		}

		wg.Add(1)
		go func(i int, payload NotificationPayload) {
			defer wg.Done()

			result.Outcomes[i].Attempted = true

			body, err := json.Marshal(payload)
			if err != nil {
				result.Outcomes[i].Error = err.Error()
				d.metrics.NotificationsFailed.Inc()
				return
			}

			if err := d.sender.Send(ctx, *sub, body); err != nil {
				d.logger.Warn("push delivery failed",
					"dispatchId", result.DispatchID,
					"alertId", payload.Data.AlertID,
					"error", err)
				result.Outcomes[i].Error = err.Error()
				d.metrics.NotificationsFailed.Inc()
				return
			}

			result.Outcomes[i].Delivered = true
			d.metrics.NotificationsSent.Inc()
		}(i, payload)
	}
	wg.Wait()

	return result, nil
}
