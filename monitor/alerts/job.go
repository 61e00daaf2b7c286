package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/omni/retryables-monitor/logging"
)

type AlertJobParams struct {
	RollupID         string
	L1ChainID        string
	StartBlockNumber uint
	Threshold        time.Duration
}

type AlertMetricValues map[string]string

const ValueLabelTag = "_value"

func (v AlertMetricValues) Labels() prometheus.Labels {
	labels := make(prometheus.Labels, len(v))
	for k, val := range v {
		if k != ValueLabelTag {
			labels[k] = val
		}
	}
	return labels
}

func (v AlertMetricValues) Value() float64 {
	val, ok := v[ValueLabelTag]
	if !ok {
		return 0
	}
	res, _ := strconv.ParseFloat(val, 64)
	return res
}

// ConvertToAlertMetricValues turns a slice of structs into label maps using their json tags.
// The field tagged as _value becomes the gauge value.
func ConvertToAlertMetricValues(v interface{}) ([]AlertMetricValues, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("can't marshal alert values to json: %w", err)
	}
	res := make([]AlertMetricValues, 0, 10)
	err = json.Unmarshal(raw, &res)
	if err != nil {
		return nil, fmt.Errorf("can't unmarshal alert values to []AlertMetricValues: %w", err)
	}
	return res, nil
}

type Job struct {
	Logger   logging.Logger
	Metric   *prometheus.GaugeVec
	Interval time.Duration
	Timeout  time.Duration
	Func     func(ctx context.Context, params *AlertJobParams) (interface{}, error)
	Params   *AlertJobParams
}

// RunOnce evaluates the job and replaces all metric values with the found alerts.
func (j *Job) RunOnce(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()
	start := time.Now()
	alerts, err := j.Func(timeoutCtx, j.Params)
	if err != nil {
		return fmt.Errorf("failed to process alert job: %w", err)
	}
	values, err := ConvertToAlertMetricValues(alerts)
	if err != nil {
		return fmt.Errorf("can't convert to alert metric values: %w", err)
	}
	j.Metric.Reset()
	if len(values) > 0 {
		j.Logger.WithFields(logrus.Fields{
			"count":    len(values),
			"duration": time.Since(start),
		}).Warn("found some possible alerts")
		for _, v := range values {
			j.Metric.With(v.Labels()).Set(v.Value())
		}
	} else {
		j.Logger.WithField("duration", time.Since(start)).Info("no alerts has been found")
	}
	return nil
}

func (j *Job) Start(ctx context.Context, isSynced func() bool) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		if isSynced() {
			if err := j.RunOnce(ctx); err != nil {
				j.Logger.WithError(err).Error("alert job iteration failed")
			}
		} else {
			j.Logger.Warn("inbox monitor is not synchronized, skipping alert job iteration")
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			return
		}
	}
}
