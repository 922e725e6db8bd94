package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the weather and alerting
// pipeline.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec // labels: target={weather,alerts}, outcome={success,error}
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss}

	AlertsFetched         prometheus.Counter
	NotificationsSent     prometheus.Counter
	NotificationsFailed   prometheus.Counter
	NotificationsSkipped  prometheus.Counter // payload built, no subscription supplied
	SmsSent               prometheus.Counter
	SmsRejected           prometheus.Counter // failed validation before any network call
	ScheduledRefreshRuns  prometheus.Counter
	ScheduledRefreshFails prometheus.Counter
}

// NewMetrics creates all pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "upstream_requests_total",
			Help:      "Outbound requests to third-party data sources by target and outcome.",
		}, []string{"target", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "weather_cache_lookups_total",
			Help:      "Proximity cache lookups by result.",
		}, []string{"result"}),
		AlertsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "alerts_fetched_total",
			Help:      "Alerts returned by the alerts source.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "notifications_sent_total",
			Help:      "Push notifications delivered.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "notifications_failed_total",
			Help:      "Push deliveries that failed and were absorbed.",
		}),
		NotificationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "notifications_skipped_total",
			Help:      "Payloads built without a subscription to deliver to.",
		}),
		SmsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "sms_sent_total",
			Help:      "SMS messages accepted by the provider.",
		}),
		SmsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "sms_rejected_total",
			Help:      "SMS requests rejected by validation before any network call.",
		}),
		ScheduledRefreshRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "scheduled_refresh_runs_total",
			Help:      "Scheduled weather refresh job executions.",
		}),
		ScheduledRefreshFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handa",
			Name:      "scheduled_refresh_failures_total",
			Help:      "Scheduled refresh executions that failed for at least one location.",
		}),
	}

	reg.MustRegister(
		m.UpstreamRequests,
		m.CacheLookups,
		m.AlertsFetched,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.NotificationsSkipped,
		m.SmsSent,
		m.SmsRejected,
		m.ScheduledRefreshRuns,
		m.ScheduledRefreshFails,
	)

	return m
}
