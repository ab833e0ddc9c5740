package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the allocation pipeline.
type OrderMetrics struct {
	created            *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	complianceFailures prometheus.Counter
	stockShortages     *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Supply orders created.",
	}, []string{"franchise"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order lifecycle transitions by target status.",
	}, []string{"to_status"})
	complianceFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "compliance_failures_total",
		Help: "Order validations rejected by the supply ratio policy.",
	})
	stockShortages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_shortages_total",
		Help: "Reservation attempts rejected for insufficient stock.",
	}, []string{"warehouse"})
	reg.MustRegister(created, transitions, complianceFailures, stockShortages)
	return &OrderMetrics{
		created:            created,
		transitions:        transitions,
		complianceFailures: complianceFailures,
		stockShortages:     stockShortages,
	}
}

// IncCreated increments the created counter for the franchise.
func (m *OrderMetrics) IncCreated(franchise string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(franchise)).Inc()
}

// IncTransition increments the transition counter for the target status.
func (m *OrderMetrics) IncTransition(toStatus string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// IncComplianceFailure increments the ratio policy rejection counter.
func (m *OrderMetrics) IncComplianceFailure() {
	if m == nil || m.complianceFailures == nil {
		return
	}
	m.complianceFailures.Inc()
}

// IncStockShortage increments the shortage counter for the warehouse.
func (m *OrderMetrics) IncStockShortage(warehouse string) {
	if m == nil || m.stockShortages == nil {
		return
	}
	m.stockShortages.WithLabelValues(normalizeLabel(warehouse)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
