package alerts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/monitor/alerts"
)

func TestConvertToAlertMetricValues(t *testing.T) {
	t.Parallel()

	values, err := alerts.ConvertToAlertMetricValues([]alerts.TicketAlert{
		{
			ChainID:      "1",
			BlockNumber:  100,
			Age:          3600,
			TxHash:       common.HexToHash("0x01"),
			MessageIndex: 1,
			CreationID:   common.HexToHash("0x02"),
		},
	})
	require.NoError(t, err)
	require.Len(t, values, 1)
	require.Equal(t, prometheus.Labels{
		"chain_id":      "1",
		"block_number":  "100",
		"tx_hash":       common.HexToHash("0x01").String(),
		"message_index": "1",
		"creation_id":   common.HexToHash("0x02").String(),
	}, values[0].Labels())
	require.Equal(t, 3600.0, values[0].Value())

	values, err = alerts.ConvertToAlertMetricValues([]alerts.TicketAlert{})
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestJob_RunOnce(t *testing.T) {
	t.Parallel()

	metric := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "test_alert",
	}, []string{"chain_id", "block_number", "tx_hash", "message_index", "creation_id"})
	found := []alerts.TicketAlert{{ChainID: "1", BlockNumber: 5, Age: 42}}
	job := &alerts.Job{
		Logger:  logging.New(),
		Metric:  metric,
		Timeout: time.Second,
		Params:  &alerts.AlertJobParams{RollupID: "arb1"},
		Func: func(ctx context.Context, params *alerts.AlertJobParams) (interface{}, error) {
			require.Equal(t, "arb1", params.RollupID)
			return found, nil
		},
	}

	require.NoError(t, job.RunOnce(context.Background()))
	require.Equal(t, 1, testutil.CollectAndCount(metric))
	require.Equal(t, 42.0, testutil.ToFloat64(metric.With(prometheus.Labels{
		"chain_id":      "1",
		"block_number":  "5",
		"tx_hash":       common.Hash{}.String(),
		"message_index": "0",
		"creation_id":   common.Hash{}.String(),
	})))

	found = nil
	require.NoError(t, job.RunOnce(context.Background()))
	require.Equal(t, 0, testutil.CollectAndCount(metric))

	job.Func = func(context.Context, *alerts.AlertJobParams) (interface{}, error) {
		return nil, errors.New("db is down")
	}
	require.ErrorContains(t, job.RunOnce(context.Background()), "db is down")
}
