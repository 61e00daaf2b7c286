package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
)

type ticketsRepo basePostgresRepo

func NewTicketsRepo(table string, db *db.DB) entity.TicketsRepo {
	return (*ticketsRepo)(newBasePostgresRepo(table, db))
}

// Ensure inserts the ticket if it is not known yet and fills its ID. Status of a known ticket is left intact.
func (r *ticketsRepo) Ensure(ctx context.Context, ticket *entity.Ticket) error {
	q, args, err := psql.Insert(r.table).
		Columns("rollup_id", "l1_chain_id", "l1_tx_hash", "l1_block_number", "l1_block_time", "message_index",
			"l2_chain_id", "sequence_number", "creation_id", "user_tx_hash", "status").
		Values(ticket.RollupID, ticket.L1ChainID, ticket.L1TxHash, ticket.L1BlockNumber, ticket.L1BlockTime, ticket.MessageIndex,
			ticket.L2ChainID, ticket.SequenceNumber, ticket.CreationID, ticket.UserTxHash, ticket.Status).
		Suffix("ON CONFLICT (l2_chain_id, creation_id) DO UPDATE SET rollup_id = EXCLUDED.rollup_id").
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	err = r.db.GetContext(ctx, &ticket.ID, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert ticket: %w", err)
	}
	return nil
}

func (r *ticketsRepo) UpdateStatus(ctx context.Context, ticket *entity.Ticket) error {
	q, args, err := psql.Update(r.table).
		Set("status", ticket.Status).
		Set("redeem_tx_hash", ticket.RedeemTxHash).
		Set("updated_at", sq.Expr("NOW()")).
		Set("checked_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ticket.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update ticket: %w", err)
	}
	if err = db.RequireAffected(res); err != nil {
		return fmt.Errorf("can't update ticket %d: %w", ticket.ID, err)
	}
	return nil
}

// MarkChecked moves the given tickets to the end of the FindPending queue.
func (r *ticketsRepo) MarkChecked(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	arg := make([]int64, len(ids))
	for i, id := range ids {
		arg[i] = int64(id)
	}
	q, args, err := psql.Update(r.table).
		Set("checked_at", sq.Expr("NOW()")).
		Where("id = ANY(?)", pq.Array(arg)).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't mark tickets as checked: %w", err)
	}
	return nil
}

func (r *ticketsRepo) GetByCreationID(ctx context.Context, creationID common.Hash) (*entity.Ticket, error) {
	q, args, err := psql.Select("*").
		From(r.table).
		Where(sq.Eq{"creation_id": creationID}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	ticket := new(entity.Ticket)
	err = r.db.GetContext(ctx, ticket, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get ticket by creation id: %w", err)
	}
	return ticket, nil
}

func (r *ticketsRepo) selectTickets(ctx context.Context, builder sq.SelectBuilder) ([]*entity.Ticket, error) {
	q, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	tickets := make([]*entity.Ticket, 0, 10)
	err = r.db.SelectContext(ctx, &tickets, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select tickets: %w", err)
	}
	return tickets, nil
}

func (r *ticketsRepo) FindByL1TxHash(ctx context.Context, l1ChainID string, txHash common.Hash) ([]*entity.Ticket, error) {
	return r.selectTickets(ctx, psql.Select("*").
		From(r.table).
		Where(sq.Eq{"l1_chain_id": l1ChainID, "l1_tx_hash": txHash}).
		OrderBy("message_index"))
}

// FindPending returns tickets in a non-terminal status, least recently checked first.
func (r *ticketsRepo) FindPending(ctx context.Context, rollupID string, limit uint) ([]*entity.Ticket, error) {
	statuses := make([]string, len(entity.PendingTicketStatuses))
	for i, status := range entity.PendingTicketStatuses {
		statuses[i] = string(status)
	}
	return r.selectTickets(ctx, psql.Select("*").
		From(r.table).
		Where(sq.Eq{"rollup_id": rollupID}).
		Where("status = ANY(?)", pq.Array(statuses)).
		OrderBy("checked_at", "id").
		Limit(uint64(limit)))
}

func (r *ticketsRepo) FindByStatus(ctx context.Context, rollupID string, status entity.TicketStatus, limit uint) ([]*entity.Ticket, error) {
	return r.selectTickets(ctx, psql.Select("*").
		From(r.table).
		Where(sq.Eq{"rollup_id": rollupID, "status": status}).
		OrderBy("id DESC").
		Limit(uint64(limit)))
}

// FindStale returns tickets still waiting for redemption which were submitted on L1 before createdBefore.
func (r *ticketsRepo) FindStale(ctx context.Context, rollupID string, createdBefore time.Time) ([]*entity.Ticket, error) {
	return r.selectTickets(ctx, psql.Select("*").
		From(r.table).
		Where(sq.Eq{"rollup_id": rollupID, "status": entity.TicketStatusCreated}).
		Where(sq.Lt{"l1_block_time": createdBefore}).
		OrderBy("l1_block_time"))
}

// FindRedeemable returns tickets that stayed in the created status since before updatedBefore
// and were never redeemed by this service.
func (r *ticketsRepo) FindRedeemable(ctx context.Context, rollupID string, updatedBefore time.Time, limit uint) ([]*entity.Ticket, error) {
	return r.selectTickets(ctx, psql.Select("*").
		From(r.table).
		Where(sq.Eq{"rollup_id": rollupID, "status": entity.TicketStatusCreated, "redeem_tx_hash": nil}).
		Where(sq.Lt{"updated_at": updatedBefore}).
		OrderBy("updated_at").
		Limit(uint64(limit)))
}
