package monitor

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/repository"
	"github.com/omni/retryables-monitor/retryables"
	"github.com/omni/retryables-monitor/utils"
)

const (
	defaultStatusBatchSize   = 500
	defaultStatusConcurrency = 8
)

// StatusPoller reconciles stored non-terminal tickets with the L2 state.
type StatusPoller struct {
	cfg          *config.RollupConfig
	logger       logging.Logger
	repo         *repository.Repo
	l2           retryables.L2Reader
	batchSize    uint
	retryTimeout time.Duration
}

func NewStatusPoller(logger logging.Logger, repo *repository.Repo, cfg *config.RollupConfig, l2 retryables.L2Reader) *StatusPoller {
	return &StatusPoller{
		cfg:          cfg,
		logger:       logger,
		repo:         repo,
		l2:           l2,
		batchSize:    defaultStatusBatchSize,
		retryTimeout: defaultRetryTimeout,
	}
}

func (p *StatusPoller) Start(ctx context.Context) {
	p.logger.Info("starting ticket status poller")
	utils.RunEvery(ctx, p.cfg.L2.StatusPollInterval, func(ctx context.Context) {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.WithError(err).Error("failed to poll ticket statuses")
		}
	})
}

// Poll classifies one batch of pending tickets and stores the changed statuses.
// Every polled ticket moves to the end of the pending queue, including the ones that failed to refresh.
func (p *StatusPoller) Poll(ctx context.Context) error {
	tickets, err := p.repo.Tickets.FindPending(ctx, p.cfg.ID, p.batchSize)
	if err != nil {
		return fmt.Errorf("can't find pending tickets: %w", err)
	}
	if len(tickets) == 0 {
		return nil
	}
	p.logger.WithField("count", len(tickets)).Debug("polling pending tickets")

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(defaultStatusConcurrency)
	ids := make([]uint, len(tickets))
	for i, ticket := range tickets {
		ticket := ticket
		ids[i] = ticket.ID
		g.Go(func() error {
			if err := p.refresh(ctx, ticket); err != nil {
				failed.Add(1)
				p.logger.WithError(err).WithField("ticket_id", ticket.ID).Error("failed to refresh ticket status")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err = p.repo.Tickets.MarkChecked(ctx, ids); err != nil {
		return fmt.Errorf("can't mark polled tickets: %w", err)
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("can't refresh %d of %d tickets", n, len(tickets))
	}
	return nil
}

func (p *StatusPoller) refresh(ctx context.Context, ticket *entity.Ticket) error {
	chainID, ok := new(big.Int).SetString(ticket.L2ChainID, 10)
	if !ok {
		return fmt.Errorf("ticket %d has invalid l2 chain id %q", ticket.ID, ticket.L2ChainID)
	}
	msg := retryables.NewMessage(p.l2, chainID, new(big.Int).SetUint64(uint64(ticket.SequenceNumber)),
		retryables.WithRetryableTxAddress(p.cfg.L2.RetryableTxAddress))

	var status retryables.Status
	err := utils.RetryWithTimeout(ctx, p.logger, p.retryTimeout, func() error {
		var err error
		status, err = msg.Status(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("can't get status of ticket %d: %w", ticket.ID, err)
	}

	newStatus := entity.TicketStatus(status.String())
	if newStatus == ticket.Status {
		return nil
	}
	p.logger.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"creation_id": ticket.CreationID,
		"from":        ticket.Status,
		"to":          newStatus,
	}).Info("ticket status changed")
	TicketStatusTransitions.With(prometheus.Labels{
		"rollup_id": p.cfg.ID,
		"from":      string(ticket.Status),
		"to":        string(newStatus),
	}).Inc()
	ticket.Status = newStatus
	return p.repo.Tickets.UpdateStatus(ctx, ticket)
}
