package quote

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/dex"
)

// Caller is the single-read surface needed for quoting.
type Caller interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// ContractQuoter simulates trades against the on-chain quoter contract.
type ContractQuoter struct {
	client  Caller
	address common.Address
}

func NewContractQuoter(client Caller, address common.Address) *ContractQuoter {
	return &ContractQuoter{client: client, address: address}
}

// QuoteExactInputSingle dry-runs the trade with no price limit and returns
// the raw output amount.
func (q *ContractQuoter) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	data, err := dex.PackQuoteExactInputSingle(dex.QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, fmt.Errorf("pack quote: %w", err)
	}
	resp, err := q.client.Call(ctx, q.address, data)
	if err != nil {
		return nil, fmt.Errorf("quote call: %w", err)
	}
	return dex.UnpackQuoteAmountOut(resp)
}
