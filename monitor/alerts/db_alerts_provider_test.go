package alerts_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/db"
	"github.com/omni/retryables-monitor/monitor/alerts"
)

func newProvider(t *testing.T) (*alerts.DBAlertsProvider, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return alerts.NewDBAlertsProvider(db.NewDBWithConn(sqlx.NewDb(conn, "sqlmock"))), mock
}

var alertColumns = []string{"l1_chain_id", "l1_block_number", "l1_tx_hash", "message_index", "creation_id", "age"}

func TestDBAlertsProvider_FindUnredeemedTickets(t *testing.T) {
	t.Parallel()

	provider, mock := newProvider(t)
	txHash := common.HexToHash("0xaa")
	creationID := common.HexToHash("0xbb")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT l1_chain_id, l1_block_number, l1_tx_hash, message_index, creation_id, EXTRACT(EPOCH FROM now() - l1_block_time)::int as age FROM tickets WHERE rollup_id = $1 AND status = $2 AND l1_block_time < $3 ORDER BY l1_block_time")).
		WithArgs("arb1", "created", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(alertColumns).AddRow("1", 100, txHash.Bytes(), 0, creationID.Bytes(), 90000))

	res, err := provider.FindUnredeemedTickets(context.Background(), &alerts.AlertJobParams{
		RollupID:  "arb1",
		Threshold: 24 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, []alerts.TicketAlert{{
		ChainID:     "1",
		BlockNumber: 100,
		Age:         90000,
		TxHash:      txHash,
		CreationID:  creationID,
	}}, res)
}

func TestDBAlertsProvider_FindFailedTicketCreations(t *testing.T) {
	t.Parallel()

	provider, mock := newProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE rollup_id = $1 AND status = $2 AND l1_block_number >= $3 ORDER BY l1_block_time")).
		WithArgs("arb1", "failed_creation", 12525700).
		WillReturnRows(sqlmock.NewRows(alertColumns))

	res, err := provider.FindFailedTicketCreations(context.Background(), &alerts.AlertJobParams{
		RollupID:         "arb1",
		StartBlockNumber: 12525700,
	})
	require.NoError(t, err)
	require.Empty(t, res)
}
