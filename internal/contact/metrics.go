package contact

import (
	"github.com/alexvite/curriculum-vitae/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "contact",
		Name:      "submissions_total",
		Help:      "Contact form submissions by result",
	},
	[]string{"result"},
)

func recordSubmission(result string) {
	submissions.WithLabelValues(result).Inc()
}
