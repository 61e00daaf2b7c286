package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type TicketStatus string

const (
	TicketStatusNotYetCreated  TicketStatus = "not_yet_created"
	TicketStatusCreated        TicketStatus = "created"
	TicketStatusRedeemed       TicketStatus = "redeemed"
	TicketStatusExpired        TicketStatus = "expired"
	TicketStatusFailedCreation TicketStatus = "failed_creation"
)

// PendingTicketStatuses lists statuses that may still change.
var PendingTicketStatuses = []TicketStatus{TicketStatusNotYetCreated, TicketStatusCreated}

type Ticket struct {
	ID             uint         `db:"id"`
	RollupID       string       `db:"rollup_id"`
	L1ChainID      string       `db:"l1_chain_id"`
	L1TxHash       common.Hash  `db:"l1_tx_hash"`
	L1BlockNumber  uint         `db:"l1_block_number"`
	L1BlockTime    time.Time    `db:"l1_block_time"`
	MessageIndex   uint         `db:"message_index"`
	L2ChainID      string       `db:"l2_chain_id"`
	SequenceNumber uint         `db:"sequence_number"`
	CreationID     common.Hash  `db:"creation_id"`
	UserTxHash     common.Hash  `db:"user_tx_hash"`
	Status         TicketStatus `db:"status"`
	RedeemTxHash   *common.Hash `db:"redeem_tx_hash"`
	CreatedAt      *time.Time   `db:"created_at"`
	// UpdatedAt changes only together with Status or RedeemTxHash.
	UpdatedAt *time.Time `db:"updated_at"`
	// CheckedAt is the last time the status was compared against L2.
	CheckedAt *time.Time `db:"checked_at"`
}

type TicketsRepo interface {
	Ensure(ctx context.Context, ticket *Ticket) error
	UpdateStatus(ctx context.Context, ticket *Ticket) error
	MarkChecked(ctx context.Context, ids []uint) error
	GetByCreationID(ctx context.Context, creationID common.Hash) (*Ticket, error)
	FindByL1TxHash(ctx context.Context, l1ChainID string, txHash common.Hash) ([]*Ticket, error)
	FindPending(ctx context.Context, rollupID string, limit uint) ([]*Ticket, error)
	FindByStatus(ctx context.Context, rollupID string, status TicketStatus, limit uint) ([]*Ticket, error)
	FindStale(ctx context.Context, rollupID string, createdBefore time.Time) ([]*Ticket, error)
	FindRedeemable(ctx context.Context, rollupID string, updatedBefore time.Time, limit uint) ([]*Ticket, error)
}
