// Package metrics exposes Prometheus metrics for the bot and the operator API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	navigationOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_navigation_outcomes_total",
			Help: "Navigation actions applied, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	listingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_listing_duration_seconds",
			Help:    "Time to list and render one directory",
			Buckets: prometheus.DefBuckets,
		},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_sessions_active",
			Help: "Number of users with a navigation session",
		},
	)

	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_deliveries_total",
			Help: "File deliveries, by status",
		},
		[]string{"status"},
	)

	deliveredBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_delivered_bytes_total",
			Help: "Bytes of files sent to chats",
		},
	)

	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_telegram_updates_total",
			Help: "Telegram updates handled, by type",
		},
		[]string{"type"},
	)
)

func RecordOutcome(action, outcome string) {
	navigationOutcomesTotal.WithLabelValues(action, outcome).Inc()
}

func ObserveListing(d time.Duration) {
	listingDuration.Observe(d.Seconds())
}

func SessionCreated() {
	sessionsActive.Inc()
}

// RecordDelivery counts a delivery attempt. Bytes are only added for files
// that were actually sent.
func RecordDelivery(status string, bytes int64, sent bool) {
	deliveriesTotal.WithLabelValues(status).Inc()
	if sent {
		deliveredBytesTotal.Add(float64(bytes))
	}
}

func RecordUpdate(kind string) {
	updatesTotal.WithLabelValues(kind).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
