package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the business counters exported on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	OrdersCreated       prometheus.Counter
	OrderStatusChanges  *prometheus.CounterVec
	ConfirmationsSent   prometheus.Counter
	ConfirmationsFailed prometheus.Counter
	ConfirmationsDrop   prometheus.Counter
	ReviewsChanged      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chipstore_orders_created_total",
			Help: "Orders persisted.",
		}),
		OrderStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chipstore_order_status_changes_total",
			Help: "Order status writes by target status.",
		}, []string{"status"}),
		ConfirmationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chipstore_order_confirmations_sent_total",
			Help: "Confirmation emails delivered.",
		}),
		ConfirmationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chipstore_order_confirmations_failed_total",
			Help: "Confirmation emails that could not be delivered.",
		}),
		ConfirmationsDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chipstore_order_confirmations_dropped_total",
			Help: "Confirmations dropped because the queue was full or closed.",
		}),
		ReviewsChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chipstore_reviews_changed_total",
			Help: "Review mutations by kind.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.OrdersCreated, m.OrderStatusChanges, m.ConfirmationsSent,
		m.ConfirmationsFailed, m.ConfirmationsDrop, m.ReviewsChanged)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Nil-safe recorders so services can run without a registry in tests.

func (m *Metrics) OrderCreated() {
	if m != nil {
		m.OrdersCreated.Inc()
	}
}

func (m *Metrics) StatusChanged(status string) {
	if m != nil {
		m.OrderStatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) Confirmation(sent bool) {
	if m == nil {
		return
	}
	if sent {
		m.ConfirmationsSent.Inc()
		return
	}
	m.ConfirmationsFailed.Inc()
}

func (m *Metrics) ConfirmationDropped() {
	if m != nil {
		m.ConfirmationsDrop.Inc()
	}
}

func (m *Metrics) ReviewChanged(op string) {
	if m != nil {
		m.ReviewsChanged.WithLabelValues(op).Inc()
	}
}
