package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Deposit is a token gateway deposit observed on L1.
type Deposit struct {
	ID             uint           `db:"id"`
	RollupID       string         `db:"rollup_id"`
	L1ChainID      string         `db:"l1_chain_id"`
	L1TxHash       common.Hash    `db:"l1_tx_hash"`
	LogIndex       uint           `db:"log_index"`
	Gateway        common.Address `db:"gateway"`
	L1Token        common.Address `db:"l1_token"`
	Sender         common.Address `db:"sender"`
	Receiver       common.Address `db:"receiver"`
	SequenceNumber uint           `db:"sequence_number"`
	Amount         string         `db:"amount"`
	CreatedAt      *time.Time     `db:"created_at"`
	UpdatedAt      *time.Time     `db:"updated_at"`
}

type DepositsRepo interface {
	Ensure(ctx context.Context, deposit *Deposit) error
	FindByL1TxHash(ctx context.Context, l1ChainID string, txHash common.Hash) ([]*Deposit, error)
}
