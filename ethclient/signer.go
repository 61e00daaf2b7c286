package ethclient

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// SigningClient is a Client that can also submit transactions from a single account.
type SigningClient interface {
	Client
	Address() common.Address
	SendTransaction(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error)
}

type signingClient struct {
	*rpcClient
	key      *ecdsa.PrivateKey
	address  common.Address
	signer   types.Signer
	chainID  *big.Int
	nonceMtx sync.Mutex
}

func NewSigningClient(url string, timeout time.Duration, chainID string, rps float64, key *ecdsa.PrivateKey) (SigningClient, error) {
	client, err := newRPCClient(url, timeout, chainID, rps)
	if err != nil {
		return nil, err
	}
	id, ok := new(big.Int).SetString(chainID, 10)
	if !ok {
		return nil, fmt.Errorf("invalid chainID %q: %w", chainID, ErrIncompatibleChainID)
	}
	return &signingClient{
		rpcClient: client,
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		signer:    types.LatestSignerForChainID(id),
		chainID:   id,
	}, nil
}

func (c *signingClient) Address() common.Address {
	return c.address
}

// SendTransaction signs and broadcasts an EIP-1559 transaction calling to with data.
// Gas estimation errors, including reverts, are returned unchanged in the error chain.
func (c *signingClient) SendTransaction(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error) {
	c.nonceMtx.Lock()
	defer c.nonceMtx.Unlock()

	defer ObserveDuration(c.rpcClient.chainID, c.url, "eth_sendRawTransaction")()
	ctx, cancel, err := c.prepare(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("can't get account nonce: %w", err)
	}
	tip, err := c.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't suggest gas tip: %w", err)
	}
	head, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("can't get latest header: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(baseFee, big.NewInt(2)))
	gas, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:      c.address,
		To:        &to,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("can't estimate gas: %w", err)
	}
	tx, err := types.SignNewTx(c.key, c.signer, &types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("can't sign transaction: %w", err)
	}
	err = c.client.SendTransaction(ctx, tx)
	ObserveError(c.rpcClient.chainID, c.url, "eth_sendRawTransaction", err)
	if err != nil {
		SentTransactions.WithLabelValues(c.rpcClient.chainID, "error").Inc()
		return nil, fmt.Errorf("can't send transaction: %w", err)
	}
	SentTransactions.WithLabelValues(c.rpcClient.chainID, "ok").Inc()
	return tx, nil
}
