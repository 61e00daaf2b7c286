package alerts

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
)

type DBAlertsProvider struct {
	db *db.DB
}

func NewDBAlertsProvider(db *db.DB) *DBAlertsProvider {
	return &DBAlertsProvider{
		db: db,
	}
}

type TicketAlert struct {
	ChainID      string        `db:"l1_chain_id" json:"chain_id"`
	BlockNumber  uint64        `db:"l1_block_number" json:"block_number,string"`
	Age          time.Duration `db:"age" json:"_value,string"`
	TxHash       common.Hash   `db:"l1_tx_hash" json:"tx_hash"`
	MessageIndex uint64        `db:"message_index" json:"message_index,string"`
	CreationID   common.Hash   `db:"creation_id" json:"creation_id"`
}

func (p *DBAlertsProvider) findTickets(ctx context.Context, builder sq.SelectBuilder) ([]TicketAlert, error) {
	q, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	res := make([]TicketAlert, 0, 5)
	err = p.db.SelectContext(ctx, &res, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select alerts: %w", err)
	}
	return res, nil
}

func selectTicketAlerts() sq.SelectBuilder {
	return sq.Select("l1_chain_id", "l1_block_number", "l1_tx_hash", "message_index", "creation_id",
		"EXTRACT(EPOCH FROM now() - l1_block_time)::int as age").
		From("tickets")
}

// FindUnredeemedTickets finds tickets which are still waiting for redemption longer than the configured threshold.
func (p *DBAlertsProvider) FindUnredeemedTickets(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	return p.findTickets(ctx, selectTicketAlerts().
		Where(sq.Eq{"rollup_id": params.RollupID, "status": entity.TicketStatusCreated}).
		Where(sq.Lt{"l1_block_time": time.Now().Add(-params.Threshold)}).
		OrderBy("l1_block_time"))
}

func (p *DBAlertsProvider) FindFailedTicketCreations(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	return p.findTickets(ctx, selectTicketAlerts().
		Where(sq.Eq{"rollup_id": params.RollupID, "status": entity.TicketStatusFailedCreation}).
		Where(sq.GtOrEq{"l1_block_number": params.StartBlockNumber}).
		OrderBy("l1_block_time"))
}
