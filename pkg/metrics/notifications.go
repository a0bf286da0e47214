package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics tracks outbound mail delivery attempts.
type NotificationMetrics struct {
	deliveries *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notifications_total",
		Help: "Order notifications by delivery result.",
	}, []string{"result"})
	reg.MustRegister(deliveries)
	return &NotificationMetrics{deliveries: deliveries}
}

// IncResult counts a delivery attempt; result is sent, failed or skipped.
func (n *NotificationMetrics) IncResult(result string) {
	if n == nil || n.deliveries == nil {
		return
	}
	n.deliveries.WithLabelValues(normalizeLabel(result)).Inc()
}
