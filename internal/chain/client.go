package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.Mutex
	chainID *big.Int
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID, cached after the first call.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	return id, nil
}

// Call performs an eth_call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	return c.ethClient.CallContract(ctx, msg, nil)
}

// CallFrom performs an eth_call with an explicit sender and value, used as
// the dry-run simulation before a state-changing submission.
func (c *Client) CallFrom(ctx context.Context, from, to common.Address, data []byte, value *big.Int) ([]byte, error) {
	msg := ethereum.CallMsg{From: from, To: &to, Data: data, Value: value}
	return c.ethClient.CallContract(ctx, msg, nil)
}

// EstimateGas estimates gas for a state-changing call.
func (c *Client) EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error) {
	msg := ethereum.CallMsg{From: from, To: &to, Data: data, Value: value}
	return c.ethClient.EstimateGas(ctx, msg)
}

// PendingNonceAt returns the pending-state nonce for an account.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.ethClient.PendingNonceAt(ctx, account)
}

// SuggestGasTipCap returns the suggested priority fee.
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return c.ethClient.SuggestGasTipCap(ctx)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, number)
}

// SendTransaction broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.ethClient.SendTransaction(ctx, tx)
}

// TransactionReceipt returns the receipt for a mined transaction, or
// ethereum.NotFound while it is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, hash)
}

// BatchCall is one entry of a batched eth_call.
type BatchCall struct {
	To   common.Address
	Data []byte
}

// BatchResult is the per-entry outcome of a batched eth_call. Entries
// succeed or fail independently.
type BatchResult struct {
	Data []byte
	Err  error
}

// BatchCallContract issues all calls in a single RPC batch against the
// latest block and returns one result per call.
func (c *Client) BatchCallContract(ctx context.Context, calls []BatchCall) ([]BatchResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	elems := make([]rpc.BatchElem, len(calls))
	outputs := make([]hexutil.Bytes, len(calls))
	for i, call := range calls {
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{
					"to":   call.To,
					"data": hexutil.Bytes(call.Data),
				},
				"latest",
			},
			Result: &outputs[i],
		}
	}

	if err := c.rpcClient.BatchCallContext(ctx, elems); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(calls))
	for i := range elems {
		results[i] = BatchResult{Data: outputs[i], Err: elems[i].Error}
	}
	return results, nil
}
