package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not client-instance-specific)
type Metrics struct {
	// Stream metrics
	StreamState       *prometheus.GaugeVec
	RecordsReceived   *prometheus.CounterVec
	RecordsDelivered  *prometheus.CounterVec
	RecordsPulled     *prometheus.CounterVec
	DeliveryDuration  *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	BackpressureTotal *prometheus.CounterVec

	// Feed connection metrics
	FeedConnected     *prometheus.GaugeVec
	MetadataLatency   *prometheus.HistogramVec
	ConnectionsOpened prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		StreamState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "feedbridge",
				Subsystem: "stream",
				Name:      "state",
				Help: "Stream lifecycle state (0=created, 1=subscribed, 2=started, " +
					"3=streaming, 4=stopping, 5=stopped, 6=disposed, 7=faulted)",
			},
			[]string{"client"},
		),

		RecordsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feedbridge",
				Subsystem: "records",
				Name:      "received_total",
				Help:      "Total number of records pushed by the feed engine",
			},
			[]string{"client", "kind"},
		),

		RecordsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feedbridge",
				Subsystem: "records",
				Name:      "delivered_total",
				Help:      "Total number of record deliveries to callback observers",
			},
			[]string{"client"},
		),

		RecordsPulled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feedbridge",
				Subsystem: "records",
				Name:      "pulled_total",
				Help:      "Total number of records consumed through the pull stream",
			},
			[]string{"client"},
		),

		DeliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "feedbridge",
				Subsystem: "delivery",
				Name:      "duration_seconds",
				Help:      "Observer fan-out duration per record in seconds",
				Buckets:   []float64{.000001, .00001, .0001, .001, .01, .1, 1},
			},
			[]string{"client"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feedbridge",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"client", "type"},
		),

		BackpressureTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feedbridge",
				Subsystem: "delivery",
				Name:      "backpressure_total",
				Help:      "Total number of backpressure events on the delivery queue",
			},
			[]string{"client"},
		),

		FeedConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "feedbridge",
				Subsystem: "feed",
				Name:      "connected",
				Help:      "Feed connection status (0=disconnected, 1=connected)",
			},
			[]string{"client"},
		),

		MetadataLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "feedbridge",
				Subsystem: "feed",
				Name:      "metadata_latency_seconds",
				Help:      "Time from connect to metadata arrival in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"client"},
		),

		ConnectionsOpened: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "feedbridge",
				Subsystem: "feed",
				Name:      "connections_total",
				Help:      "Total number of upstream connections opened",
			},
		),
	}
}

// RecordStreamState updates the lifecycle state gauge
func (c *Metrics) RecordStreamState(client string, state int) {
	c.StreamState.WithLabelValues(client).Set(float64(state))
}

// RecordReceived increments the received record counter
func (c *Metrics) RecordReceived(client, kind string) {
	c.RecordsReceived.WithLabelValues(client, kind).Inc()
}

// RecordDelivered increments the delivered record counter
func (c *Metrics) RecordDelivered(client string) {
	c.RecordsDelivered.WithLabelValues(client).Inc()
}

// RecordPulled increments the pulled record counter
func (c *Metrics) RecordPulled(client string) {
	c.RecordsPulled.WithLabelValues(client).Inc()
}

// RecordDeliveryDuration records observer fan-out time for one record
func (c *Metrics) RecordDeliveryDuration(client string, duration time.Duration) {
	c.DeliveryDuration.WithLabelValues(client).Observe(duration.Seconds())
}

// RecordError increments the error counter
func (c *Metrics) RecordError(client, errorType string) {
	c.ErrorsTotal.WithLabelValues(client, errorType).Inc()
}

// RecordBackpressure increments the backpressure counter
func (c *Metrics) RecordBackpressure(client string) {
	c.BackpressureTotal.WithLabelValues(client).Inc()
}

// RecordFeedStatus updates the feed connection gauge
func (c *Metrics) RecordFeedStatus(client string, connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.FeedConnected.WithLabelValues(client).Set(value)
}

// RecordMetadataLatency records time from connect to metadata arrival
func (c *Metrics) RecordMetadataLatency(client string, latency time.Duration) {
	c.MetadataLatency.WithLabelValues(client).Observe(latency.Seconds())
}

// RecordConnectionOpened increments the connection counter
func (c *Metrics) RecordConnectionOpened() {
	c.ConnectionsOpened.Inc()
}
