package retryables_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/ethclient/ethclienttest"
	"github.com/omni/retryables-monitor/retryables"
)

func TestNewReceipt(t *testing.T) {
	t.Parallel()

	raw := &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 100,
		Logs:              []*types.Log{inboxLog(1, false)},
		TxHash:            common.HexToHash("0x01"),
		ContractAddress:   common.HexToAddress("0x02"),
		GasUsed:           50,
		EffectiveGasPrice: big.NewInt(10),
		BlockHash:         common.HexToHash("0x03"),
		BlockNumber:       big.NewInt(4),
		TransactionIndex:  5,
	}
	receipt := retryables.NewReceipt(raw)

	require.Equal(t, common.HexToHash("0x01"), receipt.TransactionHash())
	require.Equal(t, common.HexToAddress("0x02"), receipt.ContractAddress())
	require.Equal(t, common.HexToHash("0x03"), receipt.BlockHash())
	require.Equal(t, big.NewInt(4), receipt.BlockNumber())
	require.Equal(t, uint(5), receipt.TransactionIndex())
	require.Equal(t, uint64(50), receipt.GasUsed())
	require.Equal(t, uint64(100), receipt.CumulativeGasUsed())
	require.Equal(t, big.NewInt(10), receipt.EffectiveGasPrice())
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status())
	require.True(t, receipt.Succeeded())
	require.True(t, receipt.Byzantium())
	require.Nil(t, receipt.From())
	require.Nil(t, receipt.To())
	require.Len(t, receipt.Logs(), 1)

	t.Run("source mutations are not visible", func(t *testing.T) {
		t.Parallel()
		raw := &types.Receipt{BlockNumber: big.NewInt(1), Logs: []*types.Log{inboxLog(1, false)}}
		receipt := retryables.NewReceipt(raw)
		raw.BlockNumber.SetInt64(100)
		raw.Logs[0].Topics[1] = common.HexToHash("0xff")
		require.Equal(t, big.NewInt(1), receipt.BlockNumber())
		require.Equal(t, common.BigToHash(big.NewInt(1)), receipt.Logs()[0].Topics[1])
	})

	t.Run("accessor results are copies", func(t *testing.T) {
		t.Parallel()
		receipt := retryables.NewReceipt(&types.Receipt{BlockNumber: big.NewInt(1), Logs: []*types.Log{inboxLog(1, false)}})
		receipt.BlockNumber().SetInt64(100)
		receipt.Logs()[0].Topics[1] = common.HexToHash("0xff")
		require.Equal(t, big.NewInt(1), receipt.BlockNumber())
		require.Equal(t, []*big.Int{big.NewInt(1)}, receipt.MessageNumbers())
	})

	t.Run("pre-byzantium receipt", func(t *testing.T) {
		t.Parallel()
		receipt := retryables.NewReceipt(&types.Receipt{PostState: common.HexToHash("0x05").Bytes()})
		require.False(t, receipt.Byzantium())
	})
}

func TestAwaitAndWrap(t *testing.T) {
	t.Parallel()

	l1 := ethclienttest.NewClient(l1ChainID)
	tx := l1.SignTransaction(inboxAddr, nil)
	l1.Mine(tx, types.ReceiptStatusSuccessful, inboxLog(3, true))

	receipt, err := retryables.AwaitAndWrap(context.Background(), l1, tx)
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), receipt.TransactionHash())
	require.NotNil(t, receipt.From())
	require.Equal(t, l1.Address(), *receipt.From())
	require.NotNil(t, receipt.To())
	require.Equal(t, inboxAddr, *receipt.To())
	require.Equal(t, []*big.Int{big.NewInt(3)}, receipt.MessageNumbers())

	pending := l1.SignTransaction(inboxAddr, nil)
	_, err = retryables.AwaitAndWrap(context.Background(), l1, pending)
	require.Error(t, err)

	l1.SetError(errors.New("connection refused"))
	_, err = retryables.AwaitAndWrap(context.Background(), l1, tx)
	require.ErrorContains(t, err, "connection refused")
}

func TestReceipt_MessageNumbers(t *testing.T) {
	t.Parallel()

	t.Run("keeps log order of both delivery events", func(t *testing.T) {
		t.Parallel()
		_, receipt := mineL1(t, nil,
			inboxLog(10, false),
			unrelatedLog(),
			inboxLog(5, true),
			inboxLog(7, false),
		)
		require.Equal(t, []*big.Int{big.NewInt(10), big.NewInt(5), big.NewInt(7)}, receipt.MessageNumbers())
	})

	t.Run("empty without delivery events", func(t *testing.T) {
		t.Parallel()
		_, receipt := mineL1(t, nil, unrelatedLog())
		numbers := receipt.MessageNumbers()
		require.NotNil(t, numbers)
		require.Empty(t, numbers)
	})

	t.Run("skips delivery events without a message number", func(t *testing.T) {
		t.Parallel()
		log := inboxLog(1, false)
		log.Topics = log.Topics[:1]
		_, receipt := mineL1(t, nil, log, inboxLog(2, false))
		require.Equal(t, []*big.Int{big.NewInt(2)}, receipt.MessageNumbers())
	})
}
