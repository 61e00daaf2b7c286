package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/contract/abi"
)

// Caller is the part of an RPC client needed for read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

type Contract struct {
	address common.Address
	client  Caller
	abi     abi.ABI
}

func NewContract(client Caller, addr common.Address, contractABI abi.ABI) *Contract {
	return &Contract{addr, client, contractABI}
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("can't encode abi calldata: %w", err)
	}
	return data, nil
}

func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	res, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("can't call %s(...): %w", method, err)
	}
	out, err := c.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("can't decode %s(...) result: %w", method, err)
	}
	return out, nil
}
