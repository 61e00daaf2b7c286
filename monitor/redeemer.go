package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/repository"
	"github.com/omni/retryables-monitor/retryables"
	"github.com/omni/retryables-monitor/utils"
)

const defaultRedeemBatchSize = 10

// Redeemer submits redeem transactions for tickets that stay in the created status for longer than one poll interval.
// A single Redeemer must run per rollup and signer, it does not coordinate with other processes.
type Redeemer struct {
	cfg       *config.RollupConfig
	logger    logging.Logger
	repo      *repository.Repo
	l2        retryables.L2Signer
	batchSize uint
	now       func() time.Time
}

func NewRedeemer(logger logging.Logger, repo *repository.Repo, cfg *config.RollupConfig, l2 retryables.L2Signer) *Redeemer {
	return &Redeemer{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		l2:        l2,
		batchSize: defaultRedeemBatchSize,
		now:       time.Now,
	}
}

func (r *Redeemer) Start(ctx context.Context) {
	r.logger.Info("starting auto redeemer")
	utils.RunEvery(ctx, r.cfg.L2.StatusPollInterval, func(ctx context.Context) {
		if err := r.RedeemPending(ctx); err != nil && ctx.Err() == nil {
			r.logger.WithError(err).Error("failed to redeem pending tickets")
		}
	})
}

// RedeemPending redeems one batch of tickets, one by one.
func (r *Redeemer) RedeemPending(ctx context.Context) error {
	updatedBefore := r.now().Add(-r.cfg.L2.StatusPollInterval)
	tickets, err := r.repo.Tickets.FindRedeemable(ctx, r.cfg.ID, updatedBefore, r.batchSize)
	if err != nil {
		return fmt.Errorf("can't find redeemable tickets: %w", err)
	}
	for _, ticket := range tickets {
		if err = r.redeem(ctx, ticket); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redeemer) redeem(ctx context.Context, ticket *entity.Ticket) error {
	logger := r.logger.WithFields(logrus.Fields{
		"ticket_id":    ticket.ID,
		"user_tx_hash": ticket.UserTxHash,
	})
	chainID, ok := new(big.Int).SetString(ticket.L2ChainID, 10)
	if !ok {
		return fmt.Errorf("ticket %d has invalid l2 chain id %q", ticket.ID, ticket.L2ChainID)
	}
	msg := retryables.NewRedeemableMessage(r.l2, chainID, new(big.Int).SetUint64(uint64(ticket.SequenceNumber)),
		retryables.WithRetryableTxAddress(r.cfg.L2.RetryableTxAddress))

	receipt, err := msg.Redeem(ctx)
	var invalidState *retryables.InvalidStateForRedemptionError
	var failed *retryables.RedemptionFailedError
	switch {
	case errors.As(err, &invalidState):
		logger.WithField("status", invalidState.Status).Info("ticket is no longer redeemable")
		ticket.Status = entity.TicketStatus(invalidState.Status.String())
		return r.repo.Tickets.UpdateStatus(ctx, ticket)
	case errors.As(err, &failed):
		r.observe("failed")
		logger.WithError(err).Error("redeem transaction failed")
		if failed.TxHash == (common.Hash{}) {
			return nil
		}
		ticket.RedeemTxHash = &failed.TxHash
		return r.repo.Tickets.UpdateStatus(ctx, ticket)
	case err != nil:
		r.observe("error")
		return fmt.Errorf("can't redeem ticket %d: %w", ticket.ID, err)
	}

	r.observe("success")
	txHash := receipt.TransactionHash()
	logger.WithField("tx_hash", txHash).Info("redeemed ticket")
	ticket.Status = entity.TicketStatusRedeemed
	ticket.RedeemTxHash = &txHash
	return r.repo.Tickets.UpdateStatus(ctx, ticket)
}

func (r *Redeemer) observe(result string) {
	RedeemAttempts.With(prometheus.Labels{"rollup_id": r.cfg.ID, "result": result}).Inc()
}
