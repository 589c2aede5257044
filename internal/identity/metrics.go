package identity

import (
	"github.com/alexvite/curriculum-vitae/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result",
		},
		[]string{"result"},
	)

	registrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Successfully registered users",
		},
	)
)

func recordLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}
