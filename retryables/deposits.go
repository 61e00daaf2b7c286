package retryables

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/retryables-monitor/contract/abi"
	"github.com/omni/retryables-monitor/contract/arbabi"
)

// TransactionFetcher looks up transactions on L1.
type TransactionFetcher interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error)
}

// DepositInitiated is a token deposit emitted by an L1 gateway.
type DepositInitiated struct {
	Gateway        common.Address
	L1Token        common.Address
	From           common.Address
	To             common.Address
	SequenceNumber *big.Int
	Amount         *big.Int
	LogIndex       uint
}

// DepositEvents decodes all gateway DepositInitiated events of the receipt, in log order.
func (r *Receipt) DepositEvents() ([]*DepositInitiated, error) {
	return r.DepositEventsFrom(nil)
}

// DepositEventsFrom decodes DepositInitiated events emitted by addresses accepted by isGateway.
// Logs of other emitters are never decoded. A nil isGateway accepts every emitter.
func (r *Receipt) DepositEventsFrom(isGateway func(common.Address) bool) ([]*DepositInitiated, error) {
	res := make([]*DepositInitiated, 0)
	for _, log := range r.logs {
		if len(log.Topics) == 0 || log.Topics[0] != arbabi.DepositInitiatedEventSignature {
			continue
		}
		if isGateway != nil && !isGateway(log.Address) {
			continue
		}
		event, values, err := arbabi.GatewayABI.ParseLog(log)
		if err != nil {
			return nil, &LogDecodeError{LogIndex: log.Index, Err: err}
		}
		if event != arbabi.DepositInitiated {
			return nil, &LogDecodeError{
				LogIndex: log.Index,
				Err:      fmt.Errorf("unexpected number of topics %d: %w", len(log.Topics), abi.ErrInvalidEvent),
			}
		}
		res = append(res, &DepositInitiated{
			Gateway:        log.Address,
			L1Token:        values["l1Token"].(common.Address),
			From:           values["_from"].(common.Address),
			To:             values["_to"].(common.Address),
			SequenceNumber: values["_sequenceNumber"].(*big.Int),
			Amount:         values["_amount"].(*big.Int),
			LogIndex:       log.Index,
		})
	}
	return res, nil
}

// LooksLikeEthDeposit reports whether the transaction calldata starts with the depositEth(uint256)
// selector. This is a heuristic: any contract may expose a function with the same selector,
// and deposits forwarded through other contracts are not recognized.
func (r *Receipt) LooksLikeEthDeposit(ctx context.Context, l1 TransactionFetcher) (bool, error) {
	tx, err := l1.TransactionByHash(ctx, r.transactionHash)
	if err != nil {
		return false, fmt.Errorf("can't get transaction %s: %w", r.transactionHash, err)
	}
	return bytes.HasPrefix(tx.Data(), arbabi.DepositEthSelector), nil
}
