package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LogsCursor tracks how far the logs of a contract were fetched and processed.
type LogsCursor struct {
	ChainID            string         `db:"chain_id"`
	Address            common.Address `db:"address"`
	LastFetchedBlock   uint           `db:"last_fetched_block"`
	LastProcessedBlock uint           `db:"last_processed_block"`
	CreatedAt          *time.Time     `db:"created_at"`
	UpdatedAt          *time.Time     `db:"updated_at"`
}

// NewLogsCursor returns a cursor positioned right before startBlock.
func NewLogsCursor(chainID string, addr common.Address, startBlock uint) *LogsCursor {
	cursor := &LogsCursor{
		ChainID: chainID,
		Address: addr,
	}
	if startBlock > 0 {
		cursor.LastFetchedBlock = startBlock - 1
		cursor.LastProcessedBlock = startBlock - 1
	}
	return cursor
}

type LogsCursorsRepo interface {
	Ensure(ctx context.Context, cursor *LogsCursor) error
	GetByChainIDAndAddress(ctx context.Context, chainID string, addr common.Address) (*LogsCursor, error)
}
