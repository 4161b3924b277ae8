package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		promotionTransitionsTotal,
		promotionsExpiredTotal,
		adminPromotionOpsTotal,
	)
}

var (
	// transition: activated|canceled|refunded
	promotionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_transitions_total",
			Help: "Promotion state transitions applied by the webhook path.",
		},
		[]string{"transition"},
	)

	promotionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promotions_expired_total",
			Help: "Promotions closed out by the scheduled expiry worker.",
		},
	)

	// op: activate|deactivate; status: ok|rejected|error
	adminPromotionOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_promotion_ops_total",
			Help: "Operator test-promotion tool invocations by op and status.",
		},
		[]string{"op", "status"},
	)
)

func IncPromotionTransition(transition string) {
	promotionTransitionsTotal.WithLabelValues(norm(transition)).Inc()
}

func AddPromotionsExpired(n int) {
	promotionsExpiredTotal.Add(float64(n))
}

func IncAdminPromotionOp(op, status string) {
	adminPromotionOpsTotal.WithLabelValues(norm(op), norm(status)).Inc()
}
