package presenter

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/retryables"
)

type MessageInfo struct {
	Index          int
	ChainID        string
	SequenceNumber *big.Int
	CreationID     common.Hash
	UserTxHash     common.Hash
	AutoRedeemID   common.Hash
	Status         retryables.Status
	Timeout        *time.Time      `json:",omitempty"`
	Lifetime       *big.Int        `json:",omitempty"`
	Beneficiary    *common.Address `json:",omitempty"`
}

type DepositInfo struct {
	LogIndex       uint
	Gateway        common.Address
	L1Token        common.Address
	From           common.Address
	To             common.Address
	SequenceNumber *big.Int
	Amount         string
}

type TxResult struct {
	RollupID            string
	ChainID             string
	TxHash              common.Hash
	BlockNumber         uint64
	Succeeded           bool
	Link                string
	Messages            []*MessageInfo
	Deposits            []*DepositInfo
	LooksLikeEthDeposit bool
}

type MessageResult struct {
	RollupID string
	TxHash   common.Hash
	Link     string
	*MessageInfo
}

type TicketInfo struct {
	RollupID       string
	L1ChainID      string
	L1TxHash       common.Hash
	L1BlockNumber  uint
	L1BlockTime    time.Time
	L1Link         string
	MessageIndex   uint
	L2ChainID      string
	SequenceNumber uint
	CreationID     common.Hash
	UserTxHash     common.Hash
	Status         entity.TicketStatus
	RedeemTxHash   *common.Hash `json:",omitempty"`
	RedeemLink     string       `json:",omitempty"`
	UpdatedAt      *time.Time   `json:",omitempty"`
}

type RollupResult struct {
	RollupID           string
	L1ChainID          string
	L2ChainID          string
	InboxAddress       common.Address
	LastFetchedBlock   uint
	LastProcessedBlock uint
	UpdatedAt          *time.Time `json:",omitempty"`
}

type TicketsResult struct {
	RollupID string
	Status   entity.TicketStatus
	Tickets  []*TicketInfo
}
