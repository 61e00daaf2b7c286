package ethclienttest

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/contract/arbabi"
)

var ErrUnknownMethod = errors.New("unknown method")

type Ticket struct {
	Timeout     *big.Int
	Beneficiary common.Address
	// FailRedeem makes redeem transactions for this ticket get mined with a failed status.
	FailRedeem bool
}

// RetryableTx simulates the ArbRetryableTx precompile. Successful redeems store a successful
// receipt under the ticket id, the way the user transaction shows up on a real chain.
type RetryableTx struct {
	mu       sync.Mutex
	client   *Client
	tickets  map[common.Hash]*Ticket
	lifetime *big.Int
}

func NewRetryableTx(client *Client, addr common.Address) *RetryableTx {
	r := &RetryableTx{
		client:   client,
		tickets:  make(map[common.Hash]*Ticket),
		lifetime: big.NewInt(7 * 24 * 60 * 60),
	}
	client.SetContract(addr, r)
	return r
}

func (r *RetryableTx) AddTicket(id common.Hash, ticket Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[id] = &ticket
}

func (r *RetryableTx) RemoveTicket(id common.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, id)
}

func noTicketError() error {
	return &RevertError{Data: arbabi.NoTicketWithIDErrorSelector}
}

func (r *RetryableTx) decode(data []byte) (string, []interface{}, error) {
	if len(data) < 4 {
		return "", nil, ErrUnknownMethod
	}
	method, err := arbabi.ArbRetryableTxABI.MethodById(data[:4])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnknownMethod, err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, err
	}
	return method.Name, args, nil
}

func (r *RetryableTx) ticket(args []interface{}) (common.Hash, *Ticket) {
	id := common.Hash(args[0].([32]byte))
	return id, r.tickets[id]
}

func (r *RetryableTx) Call(data []byte) ([]byte, error) {
	name, args, err := r.decode(data)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	outputs := arbabi.ArbRetryableTxABI.Methods[name].Outputs
	switch name {
	case "getLifetime":
		return outputs.Pack(r.lifetime)
	case "getTimeout":
		_, ticket := r.ticket(args)
		if ticket == nil {
			return nil, noTicketError()
		}
		return outputs.Pack(ticket.Timeout)
	case "getBeneficiary":
		_, ticket := r.ticket(args)
		if ticket == nil {
			return nil, noTicketError()
		}
		return outputs.Pack(ticket.Beneficiary)
	default:
		return nil, fmt.Errorf("%w: %s is not a view method", ErrUnknownMethod, name)
	}
}

func (r *RetryableTx) Transact(_ common.Address, data []byte) (bool, error) {
	name, args, err := r.decode(data)
	if err != nil {
		return false, err
	}
	if name != "redeem" {
		return false, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	r.mu.Lock()
	id, ticket := r.ticket(args)
	if ticket == nil {
		r.mu.Unlock()
		return false, noTicketError()
	}
	if ticket.FailRedeem {
		r.mu.Unlock()
		return false, nil
	}
	delete(r.tickets, id)
	r.mu.Unlock()

	r.client.AddReceipt(id, 1)
	return true, nil
}
