package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/chain"
)

// ERC20Reader serves allowance and balance reads for the reconciler.
type ERC20Reader struct {
	client *chain.Client
}

func NewERC20Reader(client *chain.Client) *ERC20Reader {
	return &ERC20Reader{client: client}
}

// Allowance reads allowance(owner, spender) on the token contract.
func (r *ERC20Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := PackAllowance(owner, spender)
	if err != nil {
		return nil, fmt.Errorf("pack allowance: %w", err)
	}
	resp, err := r.client.Call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("call allowance: %w", err)
	}
	return UnpackAllowance(resp)
}

// Balance reads balanceOf(owner) on the token contract.
func (r *ERC20Reader) Balance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := PackBalanceOf(owner)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	resp, err := r.client.Call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	return UnpackBalanceOf(resp)
}
