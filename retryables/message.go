package retryables

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/retryables-monitor/contract"
	"github.com/omni/retryables-monitor/contract/arbabi"
)

// L2Reader is a read-only L2 handle.
type L2Reader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceiptByHash(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// L2Signer is an L2 handle that can also submit transactions.
type L2Signer interface {
	L2Reader
	ReceiptWaiter
	SendTransaction(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error)
}

type options struct {
	retryableTxAddress common.Address
}

type Option func(*options)

// WithRetryableTxAddress overrides the address of the ArbRetryableTx precompile.
func WithRetryableTxAddress(addr common.Address) Option {
	return func(o *options) {
		o.retryableTxAddress = addr
	}
}

func newOptions(opts []Option) *options {
	o := &options{retryableTxAddress: arbabi.ArbRetryableTxAddress}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Message is a read-only view of a retryable ticket identified by its inbox sequence number and L2 chain.
type Message struct {
	sequenceNumber *big.Int
	chainID        *big.Int
	creationID     common.Hash
	userTxHash     common.Hash
	autoRedeemID   common.Hash
	l2             L2Reader
	retryableTx    *contract.ArbRetryableTx
}

func NewMessage(l2 L2Reader, chainID, seqNum *big.Int, opts ...Option) *Message {
	o := newOptions(opts)
	creationID := CalculateRetryableCreationID(chainID, seqNum)
	return &Message{
		sequenceNumber: copyBig(seqNum),
		chainID:        copyBig(chainID),
		creationID:     creationID,
		userTxHash:     CalculateUserTxHash(creationID),
		autoRedeemID:   CalculateAutoRedeemID(creationID),
		l2:             l2,
		retryableTx:    contract.NewArbRetryableTx(l2, o.retryableTxAddress),
	}
}

func (m *Message) SequenceNumber() *big.Int  { return copyBig(m.sequenceNumber) }
func (m *Message) ChainID() *big.Int         { return copyBig(m.chainID) }
func (m *Message) CreationID() common.Hash   { return m.creationID }
func (m *Message) UserTxHash() common.Hash   { return m.userTxHash }
func (m *Message) AutoRedeemID() common.Hash { return m.autoRedeemID }

func (m *Message) receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := m.l2.TransactionReceiptByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// Status classifies the ticket from the current L2 state.
func (m *Message) Status(ctx context.Context) (Status, error) {
	creation, err := m.receipt(ctx, m.creationID)
	if errors.Is(err, ethereum.NotFound) {
		return StatusNotYetCreated, nil
	}
	if err != nil {
		return 0, fmt.Errorf("can't get creation receipt %s: %w", m.creationID, err)
	}
	if creation.Status != types.ReceiptStatusSuccessful {
		return StatusFailedCreation, nil
	}

	redeemed, err := m.redeemed(ctx)
	if err != nil {
		return 0, err
	}
	if redeemed {
		return StatusRedeemed, nil
	}

	timeout, err := m.retryableTx.Timeout(ctx, m.userTxHash)
	if err != nil && !errors.Is(err, contract.ErrNoTicketWithID) {
		return 0, err
	}
	if err == nil && timeout.Sign() != 0 {
		return StatusCreated, nil
	}

	// The ticket may have been redeemed after the first receipt lookup, which also removes it.
	redeemed, err = m.redeemed(ctx)
	if err != nil {
		return 0, err
	}
	if redeemed {
		return StatusRedeemed, nil
	}
	return StatusExpired, nil
}

func (m *Message) redeemed(ctx context.Context) (bool, error) {
	userTx, err := m.receipt(ctx, m.userTxHash)
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("can't get user tx receipt %s: %w", m.userTxHash, err)
	}
	return userTx.Status == types.ReceiptStatusSuccessful, nil
}

// Timeout returns the unix timestamp the ticket expires at. It fails with contract.ErrNoTicketWithID
// for tickets that were redeemed, expired or never created.
func (m *Message) Timeout(ctx context.Context) (*big.Int, error) {
	return m.retryableTx.Timeout(ctx, m.userTxHash)
}

// Lifetime returns the lifetime in seconds the L2 chain gives to new tickets.
func (m *Message) Lifetime(ctx context.Context) (*big.Int, error) {
	return m.retryableTx.Lifetime(ctx)
}

// Beneficiary returns the address that receives the ticket value on cancellation or expiry.
func (m *Message) Beneficiary(ctx context.Context) (common.Address, error) {
	return m.retryableTx.Beneficiary(ctx, m.userTxHash)
}

// RedeemableMessage is a Message bound to a handle that can submit the redeem transaction.
type RedeemableMessage struct {
	*Message
	signer L2Signer
}

func NewRedeemableMessage(l2 L2Signer, chainID, seqNum *big.Int, opts ...Option) *RedeemableMessage {
	return &RedeemableMessage{
		Message: NewMessage(l2, chainID, seqNum, opts...),
		signer:  l2,
	}
}

// Redeem submits ArbRetryableTx.redeem for a ticket in the Created status and waits for it to be mined.
func (m *RedeemableMessage) Redeem(ctx context.Context) (*Receipt, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status != StatusCreated {
		return nil, &InvalidStateForRedemptionError{Status: status}
	}

	data, err := m.retryableTx.RedeemCalldata(m.userTxHash)
	if err != nil {
		return nil, err
	}
	tx, err := m.signer.SendTransaction(ctx, m.retryableTx.Address(), data)
	if err != nil {
		if contract.IsRevert(err) {
			return nil, &RedemptionFailedError{UserTxHash: m.userTxHash, Err: err}
		}
		return nil, fmt.Errorf("can't submit redeem transaction: %w", err)
	}
	receipt, err := AwaitAndWrap(ctx, m.signer, tx)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return nil, &RedemptionFailedError{UserTxHash: m.userTxHash, TxHash: tx.Hash()}
	}
	return receipt, nil
}
