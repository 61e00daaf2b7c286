package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/repository/postgres"
)

var (
	gatewayAddr = common.HexToAddress("0xa3A7B6F88361F48403514059F1F16C8E78d60EeC")
	tokenAddr   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	senderAddr  = common.HexToAddress("0x1111")
	receiver    = common.HexToAddress("0x2222")
)

func TestDepositsRepo_Ensure(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := postgres.NewDepositsRepo("deposits", conn)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO deposits (rollup_id,l1_chain_id,l1_tx_hash,log_index,gateway,l1_token,sender,receiver,sequence_number,amount) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) ON CONFLICT (l1_chain_id, l1_tx_hash, log_index) DO UPDATE SET updated_at = NOW()")).
		WithArgs("arb1", "1", l1TxHash, 3, gatewayAddr, tokenAddr, senderAddr, receiver, 555, "5000000000000000000").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Ensure(context.Background(), &entity.Deposit{
		RollupID:       "arb1",
		L1ChainID:      "1",
		L1TxHash:       l1TxHash,
		LogIndex:       3,
		Gateway:        gatewayAddr,
		L1Token:        tokenAddr,
		Sender:         senderAddr,
		Receiver:       receiver,
		SequenceNumber: 555,
		Amount:         "5000000000000000000",
	}))
}

func TestDepositsRepo_FindByL1TxHash(t *testing.T) {
	t.Parallel()

	conn, mock := newMockDB(t)
	repo := postgres.NewDepositsRepo("deposits", conn)
	ts := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, rollup_id, l1_chain_id, l1_tx_hash, log_index, gateway, l1_token, sender, receiver, sequence_number, amount::text AS amount, created_at, updated_at FROM deposits WHERE l1_chain_id = $1 AND l1_tx_hash = $2 ORDER BY log_index")).
		WithArgs("1", l1TxHash).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rollup_id", "l1_chain_id", "l1_tx_hash", "log_index", "gateway", "l1_token", "sender", "receiver", "sequence_number", "amount", "created_at", "updated_at"}).
			AddRow(1, "arb1", "1", l1TxHash.Bytes(), 3, gatewayAddr.Bytes(), tokenAddr.Bytes(), senderAddr.Bytes(), receiver.Bytes(), 555, "5000000000000000000", ts, ts))

	deposits, err := repo.FindByL1TxHash(context.Background(), "1", l1TxHash)
	require.NoError(t, err)
	require.Equal(t, []*entity.Deposit{{
		ID:             1,
		RollupID:       "arb1",
		L1ChainID:      "1",
		L1TxHash:       l1TxHash,
		LogIndex:       3,
		Gateway:        gatewayAddr,
		L1Token:        tokenAddr,
		Sender:         senderAddr,
		Receiver:       receiver,
		SequenceNumber: 555,
		Amount:         "5000000000000000000",
		CreatedAt:      &ts,
		UpdatedAt:      &ts,
	}}, deposits)
}
