package db

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retryables",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Buckets:   []float64{0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"query"})
	QueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryables",
		Subsystem: "db",
		Name:      "query_errors_total",
	}, []string{"query"})
)

func ObserveDuration(query string) func() time.Duration {
	return prometheus.NewTimer(QueryDurations.WithLabelValues(query)).ObserveDuration
}

// ObserveError counts failed queries. Missing rows are an expected outcome and are not counted.
func ObserveError(query string, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		QueryErrors.WithLabelValues(query).Inc()
	}
}
