package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics counts stock movements and procurement transitions.
type InventoryMetrics struct {
	consumed    *prometheus.CounterVec
	received    prometheus.Counter
	transitions *prometheus.CounterVec
	overrides   *prometheus.CounterVec
	conflicts   prometheus.Counter
	requests    *prometheus.HistogramVec
}

// NewInventoryMetrics registers the collectors on reg. A nil reg yields a no-op recorder.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_units_consumed_total",
		Help: "Inventory units transitioned to CONSUMED.",
	}, []string{"reason"})
	received := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "salon_units_received_total",
		Help: "Inventory units created by procurement receipts.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_procurement_transitions_total",
		Help: "Procurement request state transitions.",
	}, []string{"status"})
	overrides := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "salon_unit_status_overrides_total",
		Help: "Administrative unit status overrides.",
	}, []string{"status"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "salon_fifo_conflicts_total",
		Help: "FIFO consumptions retried after a concurrent update.",
	})
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salon_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(consumed, received, transitions, overrides, conflicts, requests)
	return &InventoryMetrics{
		consumed:    consumed,
		received:    received,
		transitions: transitions,
		overrides:   overrides,
		conflicts:   conflicts,
		requests:    requests,
	}
}

func (m *InventoryMetrics) UnitsConsumed(reason string, n int) {
	if m == nil || m.consumed == nil || n <= 0 {
		return
	}
	m.consumed.WithLabelValues(normalizeLabel(reason)).Add(float64(n))
}

func (m *InventoryMetrics) UnitsReceived(n int) {
	if m == nil || m.received == nil || n <= 0 {
		return
	}
	m.received.Add(float64(n))
}

func (m *InventoryMetrics) ProcurementTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *InventoryMetrics) StatusOverride(status string) {
	if m == nil || m.overrides == nil {
		return
	}
	m.overrides.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *InventoryMetrics) FIFOConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *InventoryMetrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(method, normalizeLabel(route), status).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
