package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal           *prometheus.CounterVec
	DeliveryAttemptsTotal *prometheus.CounterVec
	DeliveriesTotal       *prometheus.CounterVec
	DeliveryDuration      prometheus.Histogram
	IngressRejectedTotal  prometheus.Counter
	CompactionDropsTotal  *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_events_total",
				Help: "Total number of inbound events by entity type, action and result",
			},
			[]string{"entity_type", "action", "result"},
		),
		DeliveryAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_delivery_attempts_total",
				Help: "Total number of HTTP attempts against the sink by status class",
			},
			[]string{"status"},
		),
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_deliveries_total",
				Help: "Total number of deliveries by outcome",
			},
			[]string{"outcome"},
		),
		DeliveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "courier_delivery_duration_seconds",
				Help:    "Delivery duration including pacing and retries",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		IngressRejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "courier_ingress_rejected_total",
				Help: "Total number of inbound requests rejected by the ingress rate limiter",
			},
		),
		CompactionDropsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_compaction_drops_total",
				Help: "Total number of embeds or fields dropped to satisfy sink limits",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.EventsTotal,
		m.DeliveryAttemptsTotal,
		m.DeliveriesTotal,
		m.DeliveryDuration,
		m.IngressRejectedTotal,
		m.CompactionDropsTotal,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveEvent counts one processed inbound event
func (m *Metrics) ObserveEvent(entityType, action, result string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(entityType, action, result).Inc()
}

// ObserveAttempt counts one HTTP attempt. status is "2xx", "4xx", "429", "5xx" or "error".
func (m *Metrics) ObserveAttempt(status string) {
	if m == nil {
		return
	}
	m.DeliveryAttemptsTotal.WithLabelValues(status).Inc()
}

// ObserveDelivery counts one finished delivery and its total duration
func (m *Metrics) ObserveDelivery(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(outcome).Inc()
	m.DeliveryDuration.Observe(seconds)
}

// ObserveIngressRejected counts one request rejected by the ingress limiter
func (m *Metrics) ObserveIngressRejected() {
	if m == nil {
		return
	}
	m.IngressRejectedTotal.Inc()
}

// ObserveCompactionDrops counts dropped embeds or fields
func (m *Metrics) ObserveCompactionDrops(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CompactionDropsTotal.WithLabelValues(kind).Add(float64(n))
}
