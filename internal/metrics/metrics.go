package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests             *prometheus.CounterVec
	LatencyMS            *prometheus.HistogramVec
	CheckoutOutcomes     *prometheus.CounterVec
	NotificationFailures prometheus.Counter

	gatherer prometheus.Gatherer
}

// New enregistre les collecteurs sur un registre dédié, jamais le registre global
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eadshop",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eadshop",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		CheckoutOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eadshop",
			Name:      "checkout_outcomes_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eadshop",
			Name:      "notification_failures_total",
			Help:      "Order confirmations that could not be delivered.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.CheckoutOutcomes, m.NotificationFailures)
	return m
}

func (m *Metrics) CheckoutOutcome(outcome string) {
	m.CheckoutOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) NotificationFailed() {
	m.NotificationFailures.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
