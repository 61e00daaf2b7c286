package ethclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryables",
		Subsystem: "rpc",
		Name:      "request_results_total",
	}, []string{"chain_id", "url", "query", "status"})

	RequestDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retryables",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 20},
	}, []string{"chain_id", "url", "query"})

	SentTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryables",
		Subsystem: "rpc",
		Name:      "sent_transactions_total",
	}, []string{"chain_id", "status"})
)

func ObserveError(chainID, url, query string, err error) {
	RequestResults.WithLabelValues(chainID, url, query, errorStatus(err)).Inc()
}

func errorStatus(err error) string {
	var rpcErr rpc.Error
	switch {
	case err == nil, errors.Is(err, ethereum.NotFound):
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &rpcErr):
		return fmt.Sprintf("error-%d", rpcErr.ErrorCode())
	default:
		return "error"
	}
}

func ObserveDuration(chainID, url, query string) func() time.Duration {
	return prometheus.NewTimer(RequestDurations.WithLabelValues(chainID, url, query)).ObserveDuration
}
