package retryables

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ReceiptWaiter blocks until a submitted transaction is mined.
type ReceiptWaiter interface {
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Receipt is an immutable snapshot of a mined transaction receipt.
type Receipt struct {
	to                *common.Address
	from              *common.Address
	contractAddress   common.Address
	blockNumber       *big.Int
	blockHash         common.Hash
	transactionIndex  uint
	transactionHash   common.Hash
	gasUsed           uint64
	cumulativeGasUsed uint64
	effectiveGasPrice *big.Int
	logs              []*types.Log
	status            uint64
	byzantium         bool
}

func NewReceipt(r *types.Receipt) *Receipt {
	logs := make([]*types.Log, len(r.Logs))
	for i, log := range r.Logs {
		logs[i] = copyLog(log)
	}
	return &Receipt{
		contractAddress:   r.ContractAddress,
		blockNumber:       copyBig(r.BlockNumber),
		blockHash:         r.BlockHash,
		transactionIndex:  r.TransactionIndex,
		transactionHash:   r.TxHash,
		gasUsed:           r.GasUsed,
		cumulativeGasUsed: r.CumulativeGasUsed,
		effectiveGasPrice: copyBig(r.EffectiveGasPrice),
		logs:              logs,
		status:            r.Status,
		byzantium:         len(r.PostState) == 0,
	}
}

// WithTransaction returns a copy of the receipt with From and To taken from tx.
// From stays empty if the sender can't be recovered from the signature.
func (r *Receipt) WithTransaction(tx *types.Transaction) *Receipt {
	res := *r
	res.to = copyAddress(tx.To())
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		res.from = &from
	}
	return &res
}

// AwaitAndWrap waits for tx to be mined and returns its receipt with From and To filled in.
func AwaitAndWrap(ctx context.Context, waiter ReceiptWaiter, tx *types.Transaction) (*Receipt, error) {
	receipt, err := waiter.WaitMined(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("can't wait for transaction %s: %w", tx.Hash(), err)
	}
	return NewReceipt(receipt).WithTransaction(tx), nil
}

func (r *Receipt) To() *common.Address {
	return copyAddress(r.to)
}

func (r *Receipt) From() *common.Address {
	return copyAddress(r.from)
}

func (r *Receipt) ContractAddress() common.Address {
	return r.contractAddress
}

func (r *Receipt) BlockNumber() *big.Int {
	return copyBig(r.blockNumber)
}

func (r *Receipt) BlockHash() common.Hash {
	return r.blockHash
}

func (r *Receipt) TransactionIndex() uint {
	return r.transactionIndex
}

func (r *Receipt) TransactionHash() common.Hash {
	return r.transactionHash
}

func (r *Receipt) GasUsed() uint64 {
	return r.gasUsed
}

func (r *Receipt) CumulativeGasUsed() uint64 {
	return r.cumulativeGasUsed
}

func (r *Receipt) EffectiveGasPrice() *big.Int {
	return copyBig(r.effectiveGasPrice)
}

func (r *Receipt) Status() uint64 {
	return r.status
}

func (r *Receipt) Succeeded() bool {
	return r.status == types.ReceiptStatusSuccessful
}

// Byzantium is false for pre-Byzantium receipts, which carry a post-state root instead of a status.
func (r *Receipt) Byzantium() bool {
	return r.byzantium
}

func (r *Receipt) Logs() []*types.Log {
	res := make([]*types.Log, len(r.logs))
	for i, log := range r.logs {
		res[i] = copyLog(log)
	}
	return res
}

func copyLog(log *types.Log) *types.Log {
	res := *log
	res.Topics = append([]common.Hash(nil), log.Topics...)
	res.Data = append([]byte(nil), log.Data...)
	return &res
}

func copyBig(n *big.Int) *big.Int {
	if n == nil {
		return nil
	}
	return new(big.Int).Set(n)
}

func copyAddress(addr *common.Address) *common.Address {
	if addr == nil {
		return nil
	}
	res := *addr
	return &res
}
