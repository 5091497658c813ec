package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the cart-to-order pipeline.
type OrderMetrics struct {
	ordersCreated     *prometheus.CounterVec
	checkoutFailures  *prometheus.CounterVec
	cartConflicts     *prometheus.CounterVec
	snapshotFallbacks prometheus.Counter
	statusTransitions *prometheus.CounterVec
}

// NewOrderMetrics registers the pipeline metrics on the provided registerer.
// A nil registerer yields a no-op instance for tests.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labelled by payment method.",
	}, []string{"payment_method"})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout submissions that failed, labelled by error code.",
	}, []string{"code"})
	cartConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_conflicts_total",
		Help: "Cart additions rejected pending confirmation, labelled by conflict kind.",
	}, []string{"kind"})
	snapshotFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_snapshot_fallbacks_total",
		Help: "Cart loads served from the fallback snapshot.",
	})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied, labelled by target status.",
	}, []string{"to"})
	reg.MustRegister(ordersCreated, checkoutFailures, cartConflicts, snapshotFallbacks, statusTransitions)
	return &OrderMetrics{
		ordersCreated:     ordersCreated,
		checkoutFailures:  checkoutFailures,
		cartConflicts:     cartConflicts,
		snapshotFallbacks: snapshotFallbacks,
		statusTransitions: statusTransitions,
	}
}

// IncOrderCreated increments the created counter for the payment method.
func (m *OrderMetrics) IncOrderCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncCheckoutFailure increments the failure counter for the error code.
func (m *OrderMetrics) IncCheckoutFailure(code string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncCartConflict increments the conflict counter for the conflict kind.
func (m *OrderMetrics) IncCartConflict(kind string) {
	if m == nil || m.cartConflicts == nil {
		return
	}
	m.cartConflicts.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncSnapshotFallback increments the snapshot fallback counter.
func (m *OrderMetrics) IncSnapshotFallback() {
	if m == nil || m.snapshotFallbacks == nil {
		return
	}
	m.snapshotFallbacks.Inc()
}

// IncStatusTransition increments the transition counter for the target status.
func (m *OrderMetrics) IncStatusTransition(to string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
