// Package ethclienttest provides an in-memory chain implementing ethclient.SigningClient for tests.
package ethclienttest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/retryables-monitor/ethclient"
)

var ErrNoContract = errors.New("no contract at address")

// Contract simulates code deployed at an address of the fake chain.
type Contract interface {
	Call(data []byte) ([]byte, error)
	// Transact executes data on behalf of from. A non-nil error rejects the transaction
	// at submission, otherwise it is mined with the returned status.
	Transact(from common.Address, data []byte) (bool, error)
}

// RevertError mimics the JSON-RPC error returned by nodes for reverted calls.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string          { return "execution reverted" }
func (e *RevertError) ErrorCode() int         { return 3 }
func (e *RevertError) ErrorData() interface{} { return hexutil.Encode(e.Data) }

type Client struct {
	mu           sync.Mutex
	chainID      *big.Int
	head         uint
	txs          map[common.Hash]*types.Transaction
	receipts     map[common.Hash]*types.Receipt
	logs         []types.Log
	contracts    map[common.Address]Contract
	key          *ecdsa.PrivateKey
	signer       types.Signer
	nonce        uint64
	sent         []*types.Transaction
	chainIDCalls int
	err          error
}

var _ ethclient.SigningClient = (*Client)(nil)

func NewClient(chainID int64) *Client {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &Client{
		chainID:   big.NewInt(chainID),
		head:      1,
		txs:       make(map[common.Hash]*types.Transaction),
		receipts:  make(map[common.Hash]*types.Receipt),
		contracts: make(map[common.Address]Contract),
		key:       key,
		signer:    types.LatestSignerForChainID(big.NewInt(chainID)),
	}
}

// SetError makes every subsequent RPC method fail with err. Pass nil to recover.
func (c *Client) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *Client) SetHead(n uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = n
}

func (c *Client) SetContract(addr common.Address, contract Contract) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contracts[addr] = contract
}

func (c *Client) ChainIDCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chainIDCalls
}

func (c *Client) SentTransactions() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.sent...)
}

// SignTransaction signs a dynamic fee transaction from the client account calling to with data.
func (c *Client) SignTransaction(to common.Address, data []byte) *types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signLocked(to, data)
}

func (c *Client) signLocked(to common.Address, data []byte) *types.Transaction {
	tx, err := types.SignNewTx(c.key, c.signer, &types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     c.nonce,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(100),
		Gas:       100000,
		To:        &to,
		Data:      data,
	})
	if err != nil {
		panic(err)
	}
	c.nonce++
	return tx
}

// Mine stores tx with a receipt in the current head block. Logs get their tx and block fields filled.
func (c *Client) Mine(tx *types.Transaction, status uint64, logs ...*types.Log) *types.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mineLocked(tx, status, logs...)
}

func (c *Client) mineLocked(tx *types.Transaction, status uint64, logs ...*types.Log) *types.Receipt {
	blockHash := common.BigToHash(new(big.Int).SetUint64(uint64(c.head)))
	for i, log := range logs {
		log.TxHash = tx.Hash()
		log.BlockNumber = uint64(c.head)
		log.BlockHash = blockHash
		log.Index = uint(len(c.logs) + i)
	}
	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            status,
		CumulativeGasUsed: 21000,
		Logs:              logs,
		TxHash:            tx.Hash(),
		GasUsed:           21000,
		EffectiveGasPrice: big.NewInt(1),
		BlockHash:         blockHash,
		BlockNumber:       new(big.Int).SetUint64(uint64(c.head)),
	}
	c.txs[tx.Hash()] = tx
	c.receipts[tx.Hash()] = receipt
	for _, log := range logs {
		c.logs = append(c.logs, *log)
	}
	return receipt
}

// AddReceipt registers a receipt under hash without a transaction body.
func (c *Client) AddReceipt(hash common.Hash, status uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receipts[hash] = &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(uint64(c.head)),
	}
}

func (c *Client) ChainID(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainIDCalls++
	if c.err != nil {
		return nil, c.err
	}
	return new(big.Int).Set(c.chainID), nil
}

func (c *Client) BlockNumber(context.Context) (uint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, c.err
}

func (c *Client) HeaderByNumber(_ context.Context, n uint) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if n > c.head {
		return nil, ethereum.NotFound
	}
	return &types.Header{
		Number: new(big.Int).SetUint64(uint64(n)),
		Time:   uint64(n) * 12,
	}, nil
}

func (c *Client) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	var res []types.Log
	for _, log := range c.logs {
		if matchesQuery(log, q) {
			res = append(res, log)
		}
	}
	return res, nil
}

func (c *Client) FilterLogsSafe(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return c.FilterLogs(ctx, q)
}

func matchesQuery(log types.Log, q ethereum.FilterQuery) bool {
	if q.FromBlock != nil && log.BlockNumber < q.FromBlock.Uint64() {
		return false
	}
	if q.ToBlock != nil && log.BlockNumber > q.ToBlock.Uint64() {
		return false
	}
	if len(q.Addresses) > 0 && !containsAddress(q.Addresses, log.Address) {
		return false
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(log.Topics) || !containsHash(alternatives, log.Topics[i]) {
			return false
		}
	}
	return true
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func containsHash(list []common.Hash, hash common.Hash) bool {
	for _, h := range list {
		if h == hash {
			return true
		}
	}
	return false
}

func (c *Client) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	tx, ok := c.txs[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return tx, nil
}

func (c *Client) TransactionReceiptByHash(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (c *Client) contract(to *common.Address) (Contract, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if to == nil {
		return nil, ErrNoContract
	}
	contract, ok := c.contracts[*to]
	if !ok {
		return nil, fmt.Errorf("%s: %w", to, ErrNoContract)
	}
	return contract, nil
}

func (c *Client) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	contract, err := c.contract(msg.To)
	if err != nil {
		return nil, err
	}
	return contract.Call(msg.Data)
}

func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := c.TransactionReceiptByHash(ctx, tx.Hash())
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: %s", ethclient.ErrTransactionNotMined, tx.Hash())
	}
	return receipt, err
}

func (c *Client) Address() common.Address {
	return crypto.PubkeyToAddress(c.key.PublicKey)
}

// SendTransaction executes the call against the registered contract and mines it right away.
func (c *Client) SendTransaction(_ context.Context, to common.Address, data []byte) (*types.Transaction, error) {
	contract, err := c.contract(&to)
	if err != nil {
		return nil, err
	}
	ok, err := contract.Transact(c.Address(), data)
	if err != nil {
		return nil, fmt.Errorf("can't estimate gas: %w", err)
	}
	status := types.ReceiptStatusFailed
	if ok {
		status = types.ReceiptStatusSuccessful
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	tx := c.signLocked(to, data)
	c.mineLocked(tx, status)
	c.sent = append(c.sent, tx)
	return tx, nil
}
