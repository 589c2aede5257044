package meetings

import (
	"errors"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var meetingOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "meetings",
		Name:      "operations_total",
		Help:      "Meeting operations by kind and result",
	},
	[]string{"operation", "result"},
)

// recordOperation counts one operation; err decides the result label.
func recordOperation(operation string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrValidation):
		result = "invalid"
	default:
		result = "error"
	}
	meetingOperations.WithLabelValues(operation, result).Inc()
}
