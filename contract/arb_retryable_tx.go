package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/contract/arbabi"
)

var ErrNoTicketWithID = errors.New("no ticket with the given id")

// ArbRetryableTx wraps the L2 precompile managing retryable tickets.
type ArbRetryableTx struct {
	*Contract
}

func NewArbRetryableTx(client Caller, addr common.Address) *ArbRetryableTx {
	return &ArbRetryableTx{NewContract(client, addr, arbabi.ArbRetryableTxABI)}
}

func (c *ArbRetryableTx) call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		if HasErrorSelector(err, arbabi.NoTicketWithIDErrorSelector) {
			return nil, fmt.Errorf("%s(...) reverted: %w", method, ErrNoTicketWithID)
		}
		return nil, err
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("unexpected number of outputs %d in %s(...)", len(res), method)
	}
	return res[0], nil
}

// Timeout returns the expiry timestamp of the ticket. Missing tickets yield ErrNoTicketWithID.
func (c *ArbRetryableTx) Timeout(ctx context.Context, ticketID common.Hash) (*big.Int, error) {
	res, err := c.call(ctx, "getTimeout", ticketID)
	if err != nil {
		return nil, fmt.Errorf("can't get ticket timeout: %w", err)
	}
	return abi.ConvertType(res, new(big.Int)).(*big.Int), nil
}

// Lifetime returns the default lifetime in seconds given to new tickets.
func (c *ArbRetryableTx) Lifetime(ctx context.Context) (*big.Int, error) {
	res, err := c.call(ctx, "getLifetime")
	if err != nil {
		return nil, fmt.Errorf("can't get ticket lifetime: %w", err)
	}
	return abi.ConvertType(res, new(big.Int)).(*big.Int), nil
}

func (c *ArbRetryableTx) Beneficiary(ctx context.Context, ticketID common.Hash) (common.Address, error) {
	res, err := c.call(ctx, "getBeneficiary", ticketID)
	if err != nil {
		return common.Address{}, fmt.Errorf("can't get ticket beneficiary: %w", err)
	}
	return *abi.ConvertType(res, new(common.Address)).(*common.Address), nil
}

func (c *ArbRetryableTx) RedeemCalldata(ticketID common.Hash) ([]byte, error) {
	return c.Pack("redeem", ticketID)
}
