package alerts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handaph/alerts-service/internal/observability"
	"github.com/handaph/alerts-service/internal/push"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

type fakeSource struct {
	alerts []Alert
	err    error
}

func (f *fakeSource) Fetch(ctx context.Context, lat, lon float64) ([]Alert, error) {
	return f.alerts, f.err
}

type countingSender struct {
	mu    sync.Mutex
	sends int
	err   error
}

func (s *countingSender) Send(ctx context.Context, sub push.Subscription, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends++
	return s.err
}

func newTestDispatcher(source Source, sender push.Sender) *Dispatcher {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewDispatcher(source, sender, testLogger(), metrics)
}

func threeAlerts() []Alert {
	return []Alert{
		{ID: "a1", Title: "Typhoon Signal No. 3", Severity: "severe", Type: "typhoon"},
		{ID: "a2", Title: "Flood Warning", Severity: "moderate", Type: "flood"},
		{ID: "a3", Title: "Storm Surge Advisory", Severity: "minor", Type: "surge"},
	}
}

func TestDispatchRequiresCoordinates(t *testing.T) {
	d := newTestDispatcher(&fakeSource{}, &countingSender{})

	_, err := d.Dispatch(context.Background(), nil, ptr(120.29), nil)
	assert.ErrorIs(t, err, ErrMissingCoordinates)

	_, err = d.Dispatch(context.Background(), ptr(14.83), nil, nil)
	assert.ErrorIs(t, err, ErrMissingCoordinates)
}

func TestDispatchWithoutSubscriptionBuildsButDoesNotDeliver(t *testing.T) {
	sender := &countingSender{}
	d := newTestDispatcher(&fakeSource{alerts: threeAlerts()}, sender)

	result, err := d.Dispatch(context.Background(), ptr(14.83), ptr(120.29), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.AlertsCount)
	assert.Len(t, result.Alerts, 3)
	assert.NotEmpty(t, result.DispatchID)
	assert.Equal(t, 0, sender.sends)

	require.Len(t, result.Outcomes, 3)
	for _, outcome := range result.Outcomes {
		assert.False(t, outcome.Attempted)
		assert.False(t, outcome.Delivered)
	}
}

func TestDispatchDeliversPerAlert(t *testing.T) {
	sender := &countingSender{}
	d := newTestDispatcher(&fakeSource{alerts: threeAlerts()}, sender)
	sub := &push.Subscription{Endpoint: "https://push.example/sub-1"}

	result, err := d.Dispatch(context.Background(), ptr(14.83), ptr(120.29), sub)
	require.NoError(t, err)

	assert.Equal(t, 3, result.AlertsCount)
	assert.Equal(t, 3, sender.sends)
	for _, outcome := range result.Outcomes {
		assert.True(t, outcome.Attempted)
		assert.True(t, outcome.Delivered)
		assert.Empty(t, outcome.Error)
	}
}

func TestDispatchSwallowsDeliveryFailures(t *testing.T) {
	sender := &countingSender{err: errors.New("subscription expired")}
	d := newTestDispatcher(&fakeSource{alerts: threeAlerts()[:1]}, sender)
	sub := &push.Subscription{Endpoint: "https://push.example/sub-1"}

	result, err := d.Dispatch(context.Background(), ptr(14.83), ptr(120.29), sub)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AlertsCount)
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Attempted)
	assert.False(t, result.Outcomes[0].Delivered)
	assert.Contains(t, result.Outcomes[0].Error, "subscription expired")
}

func TestDispatchAbortsWhenFetchFails(t *testing.T) {
	sender := &countingSender{}
	d := newTestDispatcher(&fakeSource{err: ErrFetchFailed}, sender)

	_, err := d.Dispatch(context.Background(), ptr(14.83), ptr(120.29), nil)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, 0, sender.sends)
}
