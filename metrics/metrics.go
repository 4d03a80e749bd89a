package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics to track
var (
	SignupAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volunteerhub_signup_attempts_total",
			Help: "Total sign-up and unregister attempts by outcome",
		},
		[]string{"action", "outcome"}, // action: signup|unregister, outcome: ok|blocked|conflict|error
	)
	EligibilityEvaluations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "volunteerhub_eligibility_evaluations_total",
			Help: "Total eligibility verdicts computed",
		},
	)
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "volunteerhub_websocket_connections",
			Help: "Number of active WebSocket connections",
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(SignupAttempts, EligibilityEvaluations, WebSocketConnections)
}
