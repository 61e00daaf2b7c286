package monitor_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/contract/arbabi"
	"github.com/omni/retryables-monitor/ethclient/ethclienttest"
)

const (
	l1ChainID = 1
	l2ChainID = 42161
)

var (
	inboxAddr   = common.HexToAddress("0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f")
	gatewayAddr = common.HexToAddress("0xa3A7B6F88361F48403514059F1F16C8E78d60EeC")
	tokenAddr   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func newRollupConfig(id string) *config.RollupConfig {
	return &config.RollupConfig{
		ID: id,
		L1: &config.L1Config{
			ChainName: "mainnet",
			Chain: &config.ChainConfig{
				ChainID:            "1",
				BlockIndexInterval: time.Second,
			},
			InboxAddress:       inboxAddr,
			GatewayAddresses:   []common.Address{gatewayAddr},
			StartBlock:         1,
			BlockConfirmations: 2,
			MaxBlockRangeSize:  5,
		},
		L2: &config.L2Config{
			ChainName: "arbitrum",
			Chain: &config.ChainConfig{
				ChainID: "42161",
			},
			RetryableTxAddress: arbabi.ArbRetryableTxAddress,
			StatusPollInterval: time.Minute,
		},
	}
}

func inboxLog(seqNum int64) *types.Log {
	return &types.Log{
		Address: inboxAddr,
		Topics:  []common.Hash{arbabi.InboxMessageDeliveredEventSignature, common.BigToHash(big.NewInt(seqNum))},
	}
}

func depositLog(t *testing.T, gateway common.Address, seqNum int64, amount *big.Int) *types.Log {
	t.Helper()

	event := arbabi.GatewayABI.Events["DepositInitiated"]
	data, err := event.Inputs.NonIndexed().Pack(tokenAddr, amount)
	require.NoError(t, err)
	return &types.Log{
		Address: gateway,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(common.HexToAddress("0x1111").Bytes()),
			common.BytesToHash(common.HexToAddress("0x2222").Bytes()),
			common.BigToHash(big.NewInt(seqNum)),
		},
		Data: data,
	}
}

// mineAt mines a transaction with logs in block n of the L1 fake.
func mineAt(l1 *ethclienttest.Client, n uint, logs ...*types.Log) *types.Transaction {
	l1.SetHead(n)
	tx := l1.SignTransaction(inboxAddr, nil)
	l1.Mine(tx, types.ReceiptStatusSuccessful, logs...)
	return tx
}

func newL2() (*ethclienttest.Client, *ethclienttest.RetryableTx) {
	l2 := ethclienttest.NewClient(l2ChainID)
	return l2, ethclienttest.NewRetryableTx(l2, arbabi.ArbRetryableTxAddress)
}
