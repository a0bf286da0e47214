package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the outcomes of cart estimates and order placements.
type CheckoutMetrics struct {
	ordersPlaced     prometheus.Counter
	outcomes         *prometheus.CounterVec
	shippingFailures *prometheus.CounterVec
	duration         *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders persisted by checkout.",
	})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_outcomes_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	shippingFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_shipping_failures_total",
		Help: "Shipping rate resolutions that failed, by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"flow"})
	reg.MustRegister(ordersPlaced, outcomes, shippingFailures, duration)
	return &CheckoutMetrics{
		ordersPlaced:     ordersPlaced,
		outcomes:         outcomes,
		shippingFailures: shippingFailures,
		duration:         duration,
	}
}

// IncOrderPlaced counts a persisted order.
func (c *CheckoutMetrics) IncOrderPlaced() {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.Inc()
}

// IncOutcome counts a checkout submission by outcome.
func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncShippingFailure counts a failed shipping resolution.
func (c *CheckoutMetrics) IncShippingFailure(reason string) {
	if c == nil || c.shippingFailures == nil {
		return
	}
	c.shippingFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveDuration records how long a checkout flow took.
func (c *CheckoutMetrics) ObserveDuration(flow string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(flow)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
