package retryables_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/retryables-monitor/contract/arbabi"
	"github.com/omni/retryables-monitor/ethclient/ethclienttest"
	"github.com/omni/retryables-monitor/retryables"
)

const (
	l1ChainID = 1
	l2ChainID = 42161
)

var (
	inboxAddr   = common.HexToAddress("0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f")
	gatewayAddr = common.HexToAddress("0xa3A7B6F88361F48403514059F1F16C8E78d60EeC")
	otherTopic  = common.HexToHash("0x1234")
)

func inboxLog(seqNum int64, fromOrigin bool) *types.Log {
	topic := arbabi.InboxMessageDeliveredEventSignature
	if fromOrigin {
		topic = arbabi.InboxMessageDeliveredFromOriginEventSignature
	}
	return &types.Log{
		Address: inboxAddr,
		Topics:  []common.Hash{topic, common.BigToHash(big.NewInt(seqNum))},
	}
}

func unrelatedLog() *types.Log {
	return &types.Log{
		Address: inboxAddr,
		Topics:  []common.Hash{otherTopic, common.BigToHash(big.NewInt(7))},
	}
}

// mineL1 mines a transaction with the given logs on a fresh L1 fake and wraps its receipt.
func mineL1(t *testing.T, data []byte, logs ...*types.Log) (*ethclienttest.Client, *retryables.Receipt) {
	t.Helper()

	l1 := ethclienttest.NewClient(l1ChainID)
	tx := l1.SignTransaction(inboxAddr, data)
	receipt := l1.Mine(tx, types.ReceiptStatusSuccessful, logs...)
	return l1, retryables.NewReceipt(receipt).WithTransaction(tx)
}

func newL2() (*ethclienttest.Client, *ethclienttest.RetryableTx) {
	l2 := ethclienttest.NewClient(l2ChainID)
	return l2, ethclienttest.NewRetryableTx(l2, arbabi.ArbRetryableTxAddress)
}

func intPtr(i int) *int {
	return &i
}
