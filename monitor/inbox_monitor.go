package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/contract/arbabi"
	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/logging"
	"github.com/omni/retryables-monitor/repository"
	"github.com/omni/retryables-monitor/retryables"
	"github.com/omni/retryables-monitor/utils"
)

const (
	defaultSyncedThreshold = 10
	defaultRetryTimeout    = 2 * time.Minute
)

// InboxMonitor follows the rollup inbox on L1 and stores a ticket for every retryable message it finds.
type InboxMonitor struct {
	cfg                  *config.RollupConfig
	logger               logging.Logger
	repo                 *repository.Repo
	l1                   ethclient.Client
	l2                   ethclient.Client
	logsCursor           *entity.LogsCursor
	headBlock            uint
	isSynced             atomic.Bool
	retryTimeout         time.Duration
	syncedMetric         prometheus.Gauge
	headBlockMetric      prometheus.Gauge
	fetchedBlockMetric   prometheus.Gauge
	processedBlockMetric prometheus.Gauge
	discoveredMetric     prometheus.Counter
}

func NewInboxMonitor(ctx context.Context, logger logging.Logger, repo *repository.Repo, cfg *config.RollupConfig, l1, l2 ethclient.Client) (*InboxMonitor, error) {
	l1ChainID := cfg.L1.Chain.ChainID
	inbox := cfg.L1.InboxAddress
	logsCursor, err := repo.LogsCursors.GetByChainIDAndAddress(ctx, l1ChainID, inbox)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("failed to read logs cursor: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"chain_id":    l1ChainID,
			"address":     inbox,
			"start_block": cfg.L1.StartBlock,
		}).Warn("inbox cursor is not present, starting indexing from scratch")
		logsCursor = entity.NewLogsCursor(l1ChainID, inbox, cfg.L1.StartBlock)
	}
	commonLabels := prometheus.Labels{
		"rollup_id": cfg.ID,
		"chain_id":  l1ChainID,
		"address":   inbox.String(),
	}
	return &InboxMonitor{
		cfg:                  cfg,
		logger:               logger,
		repo:                 repo,
		l1:                   l1,
		l2:                   l2,
		logsCursor:           logsCursor,
		retryTimeout:         defaultRetryTimeout,
		syncedMetric:         SyncedInbox.With(commonLabels),
		headBlockMetric:      LatestHeadBlock.With(commonLabels),
		fetchedBlockMetric:   LatestFetchedBlock.With(commonLabels),
		processedBlockMetric: LatestProcessedBlock.With(commonLabels),
		discoveredMetric:     DiscoveredTickets.With(prometheus.Labels{"rollup_id": cfg.ID}),
	}, nil
}

func (m *InboxMonitor) IsSynced() bool {
	return m.isSynced.Load()
}

func (m *InboxMonitor) Start(ctx context.Context) {
	m.logger.WithField("from_block", m.logsCursor.LastProcessedBlock+1).Info("starting inbox monitor")
	utils.RunEvery(ctx, m.cfg.L1.Chain.BlockIndexInterval, func(ctx context.Context) {
		if err := m.Sync(ctx); err != nil && ctx.Err() == nil {
			m.logger.WithError(err).Error("failed to sync inbox logs")
		}
	})
}

// Sync processes all confirmed blocks after the logs cursor.
func (m *InboxMonitor) Sync(ctx context.Context) error {
	head, err := m.l1.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("can't fetch latest block number: %w", err)
	}
	if head < m.cfg.L1.BlockConfirmations {
		return nil
	}
	head -= m.cfg.L1.BlockConfirmations
	m.recordHeadBlockNumber(head)

	for _, blocksRange := range SplitBlockRange(m.logsCursor.LastProcessedBlock+1, head, m.cfg.L1.MaxBlockRangeSize) {
		m.logger.WithFields(logrus.Fields{
			"from_block": blocksRange.From,
			"to_block":   blocksRange.To,
		}).Debug("processing new block range")
		err = utils.RetryWithTimeout(ctx, m.logger, m.retryTimeout, func() error {
			return m.processBlockRange(ctx, blocksRange)
		})
		if err != nil {
			return fmt.Errorf("can't process blocks %d-%d: %w", blocksRange.From, blocksRange.To, err)
		}
	}
	return nil
}

func (m *InboxMonitor) filterQuery(blocksRange *BlocksRange) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(uint64(blocksRange.From)),
		ToBlock:   new(big.Int).SetUint64(uint64(blocksRange.To)),
		Addresses: []common.Address{m.cfg.L1.InboxAddress},
		Topics: [][]common.Hash{{
			arbabi.InboxMessageDeliveredEventSignature,
			arbabi.InboxMessageDeliveredFromOriginEventSignature,
		}},
	}
}

func (m *InboxMonitor) processBlockRange(ctx context.Context, blocksRange *BlocksRange) error {
	if err := m.reprocessBlockRange(ctx, blocksRange); err != nil {
		return err
	}
	m.logsCursor.LastFetchedBlock = blocksRange.To
	m.fetchedBlockMetric.Set(float64(blocksRange.To))
	return m.recordProcessedBlockNumber(ctx, blocksRange.To)
}

func (m *InboxMonitor) reprocessBlockRange(ctx context.Context, blocksRange *BlocksRange) error {
	var logs []types.Log
	var err error
	q := m.filterQuery(blocksRange)
	if m.cfg.L1.Chain.SafeLogsRequest {
		logs, err = m.l1.FilterLogsSafe(ctx, q)
	} else {
		logs, err = m.l1.FilterLogs(ctx, q)
	}
	if err != nil {
		return fmt.Errorf("can't fetch inbox logs: %w", err)
	}

	txs := GroupLogsByTransaction(logs)
	m.logger.WithFields(logrus.Fields{
		"count":      len(logs),
		"txs":        len(txs),
		"from_block": blocksRange.From,
		"to_block":   blocksRange.To,
	}).Info("fetched inbox logs in range")

	blockTimes := make(map[uint]time.Time, len(txs))
	for _, tx := range txs {
		ts, ok := blockTimes[tx.BlockNumber]
		if !ok {
			header, err2 := m.l1.HeaderByNumber(ctx, tx.BlockNumber)
			if err2 != nil {
				return fmt.Errorf("can't request block header: %w", err2)
			}
			ts = time.Unix(int64(header.Time), 0).UTC()
			blockTimes[tx.BlockNumber] = ts
		}
		if err = m.ProcessTransaction(ctx, tx.TxHash, ts); err != nil {
			return err
		}
	}
	return nil
}

// ProcessTransaction resolves the messages of a single L1 transaction and stores its tickets and gateway deposits.
func (m *InboxMonitor) ProcessTransaction(ctx context.Context, txHash common.Hash, blockTime time.Time) error {
	logger := m.logger.WithField("tx_hash", txHash)
	raw, err := m.l1.TransactionReceiptByHash(ctx, txHash)
	if err != nil {
		return fmt.Errorf("can't get receipt of %s: %w", txHash, err)
	}
	receipt := retryables.NewReceipt(raw)
	tx, err := m.l1.TransactionByHash(ctx, txHash)
	if err != nil {
		return fmt.Errorf("can't get transaction %s: %w", txHash, err)
	}
	receipt = receipt.WithTransaction(tx)

	msgs, err := receipt.Messages(ctx, m.l2, retryables.WithRetryableTxAddress(m.cfg.L2.RetryableTxAddress))
	if err != nil {
		return fmt.Errorf("can't resolve messages of %s: %w", txHash, err)
	}
	for i, msg := range msgs {
		seqNum := msg.SequenceNumber()
		if !seqNum.IsInt64() {
			logger.WithField("sequence_number", seqNum).Warn("sequence number does not fit into the database, skipping message")
			continue
		}
		ticket := &entity.Ticket{
			RollupID:       m.cfg.ID,
			L1ChainID:      m.cfg.L1.Chain.ChainID,
			L1TxHash:       txHash,
			L1BlockNumber:  uint(receipt.BlockNumber().Uint64()),
			L1BlockTime:    blockTime,
			MessageIndex:   uint(i),
			L2ChainID:      msg.ChainID().String(),
			SequenceNumber: uint(seqNum.Uint64()),
			CreationID:     msg.CreationID(),
			UserTxHash:     msg.UserTxHash(),
			Status:         entity.TicketStatusNotYetCreated,
		}
		if err = m.repo.Tickets.Ensure(ctx, ticket); err != nil {
			return fmt.Errorf("can't save ticket: %w", err)
		}
		m.discoveredMetric.Inc()
		logger.WithFields(logrus.Fields{
			"sequence_number": seqNum,
			"creation_id":     ticket.CreationID,
			"ticket_id":       ticket.ID,
		}).Debug("saved retryable ticket")
	}

	deposits, err := receipt.DepositEventsFrom(m.cfg.IsGateway)
	if err != nil {
		logger.WithError(err).Warn("can't decode gateway deposits, skipping them")
		return nil
	}
	for _, deposit := range deposits {
		if !deposit.SequenceNumber.IsInt64() {
			continue
		}
		err = m.repo.Deposits.Ensure(ctx, &entity.Deposit{
			RollupID:       m.cfg.ID,
			L1ChainID:      m.cfg.L1.Chain.ChainID,
			L1TxHash:       txHash,
			LogIndex:       deposit.LogIndex,
			Gateway:        deposit.Gateway,
			L1Token:        deposit.L1Token,
			Sender:         deposit.From,
			Receiver:       deposit.To,
			SequenceNumber: uint(deposit.SequenceNumber.Uint64()),
			Amount:         deposit.Amount.String(),
		})
		if err != nil {
			return fmt.Errorf("can't save deposit: %w", err)
		}
	}
	return nil
}

func (m *InboxMonitor) recordHeadBlockNumber(blockNumber uint) {
	if blockNumber < m.headBlock {
		return
	}

	m.headBlock = blockNumber
	m.headBlockMetric.Set(float64(blockNumber))
	m.recordIsSynced()
}

func (m *InboxMonitor) recordIsSynced() {
	synced := m.logsCursor.LastProcessedBlock+defaultSyncedThreshold > m.headBlock
	m.isSynced.Store(synced)
	if synced {
		m.syncedMetric.Set(1)
	} else {
		m.syncedMetric.Set(0)
	}
}

func (m *InboxMonitor) recordProcessedBlockNumber(ctx context.Context, blockNumber uint) error {
	if blockNumber < m.logsCursor.LastProcessedBlock {
		return nil
	}

	m.logsCursor.LastProcessedBlock = blockNumber
	m.processedBlockMetric.Set(float64(blockNumber))
	m.recordIsSynced()
	return m.repo.LogsCursors.Ensure(ctx, m.logsCursor)
}
