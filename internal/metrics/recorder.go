package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder bundles the daemon's Prometheus instruments behind nil-safe
// methods, so callers never branch on whether metrics are enabled: a nil
// Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	captured  prometheus.Counter
	delivered prometheus.Counter
	failures  prometheus.Counter
	abandoned prometheus.Counter
	backlog   prometheus.Gauge
	drainPass prometheus.Histogram
}

// NewRecorder builds a Recorder with its own registry, runtime collectors
// included.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		captured: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardwatch_events_captured_total",
			Help: "Total number of card reads captured into the outbox",
		}),
		delivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardwatch_events_delivered_total",
			Help: "Total number of events acknowledged by the webhook endpoint",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardwatch_delivery_failures_total",
			Help: "Total number of failed delivery attempts",
		}),
		abandoned: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardwatch_events_abandoned_total",
			Help: "Total number of events aged out of the delivery window",
		}),
		// Backlog is the primary indicator of endpoint lag. A growing value
		// with a reachable endpoint means deliveries are failing.
		backlog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cardwatch_outbox_backlog",
			Help: "Current number of pending events in the outbox",
		}),
		drainPass: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardwatch_drain_pass_duration_seconds",
			Help:    "Duration of sync worker drain passes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Gatherer exposes the underlying registry for the metrics endpoint.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// EventCaptured counts one card read appended to the outbox.
func (r *Recorder) EventCaptured() {
	if r == nil {
		return
	}
	r.captured.Inc()
}

// EventDelivered counts one acknowledged delivery.
func (r *Recorder) EventDelivered() {
	if r == nil {
		return
	}
	r.delivered.Inc()
}

// DeliveryFailed counts one failed delivery attempt.
func (r *Recorder) DeliveryFailed() {
	if r == nil {
		return
	}
	r.failures.Inc()
}

// EventsAbandoned counts events swept out of the delivery window.
func (r *Recorder) EventsAbandoned(count int64) {
	if r == nil || count <= 0 {
		return
	}
	r.abandoned.Add(float64(count))
}

// SetBacklog records the current pending-event count.
func (r *Recorder) SetBacklog(count int) {
	if r == nil {
		return
	}
	r.backlog.Set(float64(count))
}

// ObserveDrainPass records the duration of one sync worker pass.
func (r *Recorder) ObserveDrainPass(d time.Duration) {
	if r == nil {
		return
	}
	r.drainPass.Observe(d.Seconds())
}
