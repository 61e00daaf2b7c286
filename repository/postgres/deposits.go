package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
)

type depositsRepo basePostgresRepo

func NewDepositsRepo(table string, db *db.DB) entity.DepositsRepo {
	return (*depositsRepo)(newBasePostgresRepo(table, db))
}

func (r *depositsRepo) Ensure(ctx context.Context, deposit *entity.Deposit) error {
	q, args, err := psql.Insert(r.table).
		Columns("rollup_id", "l1_chain_id", "l1_tx_hash", "log_index", "gateway", "l1_token",
			"sender", "receiver", "sequence_number", "amount").
		Values(deposit.RollupID, deposit.L1ChainID, deposit.L1TxHash, deposit.LogIndex, deposit.Gateway, deposit.L1Token,
			deposit.Sender, deposit.Receiver, deposit.SequenceNumber, deposit.Amount).
		Suffix("ON CONFLICT (l1_chain_id, l1_tx_hash, log_index) DO UPDATE SET updated_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert deposit: %w", err)
	}
	return nil
}

func (r *depositsRepo) FindByL1TxHash(ctx context.Context, l1ChainID string, txHash common.Hash) ([]*entity.Deposit, error) {
	q, args, err := psql.Select("id", "rollup_id", "l1_chain_id", "l1_tx_hash", "log_index", "gateway", "l1_token",
		"sender", "receiver", "sequence_number", "amount::text AS amount", "created_at", "updated_at").
		From(r.table).
		Where(sq.Eq{"l1_chain_id": l1ChainID, "l1_tx_hash": txHash}).
		OrderBy("log_index").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	deposits := make([]*entity.Deposit, 0, 1)
	err = r.db.SelectContext(ctx, &deposits, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select deposits: %w", err)
	}
	return deposits, nil
}
