package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/repository/postgres"
)

var (
	l1TxHash   = common.HexToHash("0xaa")
	creationID = common.HexToHash("0xbb")
	userTxHash = common.HexToHash("0xcc")
	redeemTx   = common.HexToHash("0xdd")
)

var ticketColumns = []string{
	"id", "rollup_id", "l1_chain_id", "l1_tx_hash", "l1_block_number", "l1_block_time", "message_index",
	"l2_chain_id", "sequence_number", "creation_id", "user_tx_hash", "status", "redeem_tx_hash", "created_at", "updated_at",
	"checked_at",
}

func ticketRow(rows *sqlmock.Rows, id uint, status entity.TicketStatus, redeemTxHash interface{}, ts time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "arb1", "1", l1TxHash.Bytes(), 100, ts, 0,
		"42161", 555, creationID.Bytes(), userTxHash.Bytes(), string(status), redeemTxHash, ts, ts, ts)
}

func TestTicketsRepo_Ensure(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := postgres.NewTicketsRepo("tickets", conn)
	ts := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tickets (rollup_id,l1_chain_id,l1_tx_hash,l1_block_number,l1_block_time,message_index,l2_chain_id,sequence_number,creation_id,user_tx_hash,status) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) ON CONFLICT (l2_chain_id, creation_id)")).
		WithArgs("arb1", "1", l1TxHash, 100, ts, 0, "42161", 555, creationID, userTxHash, "not_yet_created").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	ticket := &entity.Ticket{
		RollupID:       "arb1",
		L1ChainID:      "1",
		L1TxHash:       l1TxHash,
		L1BlockNumber:  100,
		L1BlockTime:    ts,
		L2ChainID:      "42161",
		SequenceNumber: 555,
		CreationID:     creationID,
		UserTxHash:     userTxHash,
		Status:         entity.TicketStatusNotYetCreated,
	}
	require.NoError(t, repo.Ensure(context.Background(), ticket))
	require.Equal(t, uint(7), ticket.ID)
}

func TestTicketsRepo_UpdateStatus(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := postgres.NewTicketsRepo("tickets", conn)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets SET status = $1, redeem_tx_hash = $2, updated_at = NOW(), checked_at = NOW() WHERE id = $3")).
		WithArgs("redeemed", redeemTx, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), &entity.Ticket{
		ID:           7,
		Status:       entity.TicketStatusRedeemed,
		RedeemTxHash: &redeemTx,
	}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets")).
		WillReturnError(errors.New("connection reset"))

	err := repo.UpdateStatus(context.Background(), &entity.Ticket{ID: 7, Status: entity.TicketStatusExpired})
	require.ErrorContains(t, err, "connection reset")

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), &entity.Ticket{ID: 8, Status: entity.TicketStatusExpired})
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestTicketsRepo_MarkChecked(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := postgres.NewTicketsRepo("tickets", conn)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets SET checked_at = NOW() WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.MarkChecked(context.Background(), []uint{7, 8}))
	require.NoError(t, repo.MarkChecked(context.Background(), nil))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets")).
		WillReturnError(errors.New("connection reset"))

	require.ErrorContains(t, repo.MarkChecked(context.Background(), []uint{9}), "connection reset")
}

func TestTicketsRepo_GetByCreationID(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := postgres.NewTicketsRepo("tickets", conn)
	ts := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM tickets WHERE creation_id = $1 ORDER BY id LIMIT 1")).
		WithArgs(creationID).
		WillReturnRows(ticketRow(sqlmock.NewRows(ticketColumns), 7, entity.TicketStatusRedeemed, redeemTx.Bytes(), ts))

	ticket, err := repo.GetByCreationID(context.Background(), creationID)
	require.NoError(t, err)
	require.Equal(t, &entity.Ticket{
		ID:             7,
		RollupID:       "arb1",
		L1ChainID:      "1",
		L1TxHash:       l1TxHash,
		L1BlockNumber:  100,
		L1BlockTime:    ts,
		L2ChainID:      "42161",
		SequenceNumber: 555,
		CreationID:     creationID,
		UserTxHash:     userTxHash,
		Status:         entity.TicketStatusRedeemed,
		RedeemTxHash:   &redeemTx,
		CreatedAt:      &ts,
		UpdatedAt:      &ts,
		CheckedAt:      &ts,
	}, ticket)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM tickets WHERE creation_id = $1")).
		WillReturnRows(sqlmock.NewRows(ticketColumns))

	_, err = repo.GetByCreationID(context.Background(), userTxHash)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestTicketsRepo_Find(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := time.Unix(1700000000, 0).UTC()

	t.Run("by l1 tx hash", func(t *testing.T) {
		t.Parallel()
		conn, mock := newMockDB(t)
		repo := postgres.NewTicketsRepo("tickets", conn)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM tickets WHERE l1_chain_id = $1 AND l1_tx_hash = $2 ORDER BY message_index")).
			WithArgs("1", l1TxHash).
			WillReturnRows(ticketRow(ticketRow(sqlmock.NewRows(ticketColumns), 7, entity.TicketStatusCreated, nil, ts), 8, entity.TicketStatusCreated, nil, ts))

		tickets, err := repo.FindByL1TxHash(ctx, "1", l1TxHash)
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		require.Equal(t, uint(8), tickets[1].ID)
		require.Nil(t, tickets[0].RedeemTxHash)
	})

	t.Run("pending", func(t *testing.T) {
		t.Parallel()
		conn, mock := newMockDB(t)
		repo := postgres.NewTicketsRepo("tickets", conn)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM tickets WHERE rollup_id = $1 AND status = ANY($2) ORDER BY checked_at, id LIMIT 50")).
			WithArgs("arb1", sqlmock.AnyArg()).
			WillReturnRows(ticketRow(sqlmock.NewRows(ticketColumns), 7, entity.TicketStatusNotYetCreated, nil, ts))

		tickets, err := repo.FindPending(ctx, "arb1", 50)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		require.Equal(t, entity.TicketStatusNotYetCreated, tickets[0].Status)
	})

	t.Run("by status", func(t *testing.T) {
		t.Parallel()
		conn, mock := newMockDB(t)
		repo := postgres.NewTicketsRepo("tickets", conn)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM tickets WHERE rollup_id = $1 AND status = $2 ORDER BY id DESC LIMIT 10")).
			WithArgs("arb1", "expired").
			WillReturnRows(sqlmock.NewRows(ticketColumns))

		tickets, err := repo.FindByStatus(ctx, "arb1", entity.TicketStatusExpired, 10)
		require.NoError(t, err)
		require.Empty(t, tickets)
	})

	t.Run("stale", func(t *testing.T) {
		t.Parallel()
		conn, mock := newMockDB(t)
		repo := postgres.NewTicketsRepo("tickets", conn)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM tickets WHERE rollup_id = $1 AND status = $2 AND l1_block_time < $3 ORDER BY l1_block_time")).
			WithArgs("arb1", "created", ts).
			WillReturnRows(ticketRow(sqlmock.NewRows(ticketColumns), 7, entity.TicketStatusCreated, nil, ts.Add(-time.Hour)))

		tickets, err := repo.FindStale(ctx, "arb1", ts)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
	})

	t.Run("redeemable", func(t *testing.T) {
		t.Parallel()
		conn, mock := newMockDB(t)
		repo := postgres.NewTicketsRepo("tickets", conn)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM tickets WHERE redeem_tx_hash IS NULL AND rollup_id = $1 AND status = $2 AND updated_at < $3 ORDER BY updated_at LIMIT 5")).
			WithArgs("arb1", "created", ts).
			WillReturnRows(sqlmock.NewRows(ticketColumns))

		tickets, err := repo.FindRedeemable(ctx, "arb1", ts, 5)
		require.NoError(t, err)
		require.Empty(t, tickets)
	})
}
