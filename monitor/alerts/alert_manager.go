package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/logging"
)

type AlertManager struct {
	logger logging.Logger
	jobs   map[string]*Job
}

func NewAlertManager(logger logging.Logger, db *db.DB, cfg *config.RollupConfig) (*AlertManager, error) {
	provider := NewDBAlertsProvider(db)
	jobs := make(map[string]*Job, len(cfg.Alerts))

	for name, alertCfg := range cfg.Alerts {
		switch name {
		case "unredeemed_tickets":
			jobs[name] = &Job{
				Func:   provider.FindUnredeemedTickets,
				Metric: NewAlertUnredeemedTickets(cfg.ID),
			}
		case "failed_ticket_creations":
			jobs[name] = &Job{
				Func:   provider.FindFailedTicketCreations,
				Metric: NewAlertFailedTicketCreations(cfg.ID),
			}
		default:
			return nil, fmt.Errorf("unknown alert type %q", name)
		}
		jobs[name].Logger = logger.WithField("alert_job", name)
		jobs[name].Interval = alertCfg.Interval
		jobs[name].Timeout = alertCfg.Timeout
		jobs[name].Params = &AlertJobParams{
			RollupID:         cfg.ID,
			L1ChainID:        cfg.L1.Chain.ChainID,
			StartBlockNumber: cfg.L1.StartBlock,
			Threshold:        alertCfg.Threshold,
		}
	}

	return &AlertManager{
		logger: logger,
		jobs:   jobs,
	}, nil
}

func (m *AlertManager) Start(ctx context.Context, isSynced func() bool) {
	t := time.NewTicker(10 * time.Second)
	for !isSynced() {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			m.logger.Debug("waiting for inbox monitor to be synchronized")
		}
	}
	t.Stop()
	m.logger.Info("inbox monitor is synced, starting alert manager jobs")

	for _, job := range m.jobs {
		go job.Start(ctx, isSynced)
	}
}
