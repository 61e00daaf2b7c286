package monitor

import (
	"context"
	"fmt"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/monitor/alerts"
	"github.com/omni/retryables-monitor/repository"
)

// Monitor runs all background services of a single rollup.
type Monitor struct {
	cfg          *config.RollupConfig
	logger       logging.Logger
	inbox        *InboxMonitor
	poller       *StatusPoller
	redeemer     *Redeemer
	alertManager *alerts.AlertManager
}

// NewMonitor wires the rollup services. The redeemer is started only when signer is not nil.
func NewMonitor(ctx context.Context, logger logging.Logger, dbConn *db.DB, repo *repository.Repo, cfg *config.RollupConfig, l1, l2 ethclient.Client, signer ethclient.SigningClient) (*Monitor, error) {
	logger.Info("initializing rollup monitor")
	inbox, err := NewInboxMonitor(ctx, logger.WithField("service", "inbox"), repo, cfg, l1, l2)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inbox monitor: %w", err)
	}
	alertManager, err := alerts.NewAlertManager(logger.WithField("service", "alerts"), dbConn, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize alert manager: %w", err)
	}
	m := &Monitor{
		cfg:          cfg,
		logger:       logger,
		inbox:        inbox,
		poller:       NewStatusPoller(logger.WithField("service", "status_poller"), repo, cfg, l2),
		alertManager: alertManager,
	}
	if signer != nil {
		m.redeemer = NewRedeemer(logger.WithField("service", "redeemer").WithField("redeemer", signer.Address()), repo, cfg, signer)
	}
	return m, nil
}

func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("starting rollup monitor")
	go m.inbox.Start(ctx)
	go m.poller.Start(ctx)
	if m.redeemer != nil {
		go m.redeemer.Start(ctx)
	}
	go m.alertManager.Start(ctx, m.IsSynced)
}

// ProcessBlockRange reprocesses inbox logs of the given L1 blocks without touching the logs cursor.
func (m *Monitor) ProcessBlockRange(ctx context.Context, fromBlock, toBlock uint) error {
	for _, blocksRange := range SplitBlockRange(fromBlock, toBlock, m.cfg.L1.MaxBlockRangeSize) {
		if err := m.inbox.reprocessBlockRange(ctx, blocksRange); err != nil {
			return err
		}
	}
	return nil
}

func (m *Monitor) IsSynced() bool {
	return m.inbox.IsSynced()
}
