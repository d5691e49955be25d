package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/wallet"
)

const defaultReceiptPollInterval = 4 * time.Second

// TxBackend submits signed transactions for the sequencer: dry-run
// simulation, sign-and-broadcast, and receipt waiting.
type TxBackend struct {
	client       *Client
	signer       *wallet.Wallet
	logger       *zap.Logger
	pollInterval time.Duration
}

// NewTxBackend builds a TxBackend around a chain client and signing wallet.
func NewTxBackend(client *Client, signer *wallet.Wallet, logger *zap.Logger) *TxBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TxBackend{
		client:       client,
		signer:       signer,
		logger:       logger,
		pollInterval: defaultReceiptPollInterval,
	}
}

// From returns the submitting account.
func (b *TxBackend) From() common.Address {
	return b.signer.Address()
}

// Simulate dry-runs the intent against current chain state and returns the
// gas limit for submission. A revert surfaces here with the node's reason
// and nothing is broadcast.
func (b *TxBackend) Simulate(ctx context.Context, intent model.CallIntent) (uint64, error) {
	from := b.signer.Address()
	if _, err := b.client.CallFrom(ctx, from, intent.To, intent.Data, intent.Value); err != nil {
		return 0, fmt.Errorf("simulate call: %w", err)
	}
	gas, err := b.client.EstimateGas(ctx, from, intent.To, intent.Data, intent.Value)
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return gas, nil
}

// Submit signs and broadcasts the intent, returning the transaction hash.
func (b *TxBackend) Submit(ctx context.Context, intent model.CallIntent, gas uint64) (common.Hash, error) {
	from := b.signer.Address()

	chainID, err := b.client.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain id: %w", err)
	}
	nonce, err := b.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	tip, err := b.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas tip cap: %w", err)
	}
	head, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}

	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	value := intent.Value
	if value == nil {
		value = new(big.Int)
	}

	to := intent.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      intent.Data,
	})

	signed, err := b.signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := b.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast tx: %w", err)
	}

	b.logger.Info("transaction broadcast",
		zap.String("hash", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
	)
	return signed.Hash(), nil
}

// WaitReceipt blocks until the transaction is mined and reports whether it
// succeeded. There is deliberately no client-side deadline; cancellation is
// the caller's ctx.
func (b *TxBackend) WaitReceipt(ctx context.Context, hash common.Hash) (bool, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt.Status == types.ReceiptStatusSuccessful, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return false, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
