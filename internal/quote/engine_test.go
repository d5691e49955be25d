package quote

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/registry"
)

type fakeQuoter struct {
	mu      sync.Mutex
	amounts []*big.Int
	out     *big.Int
	err     error
}

func (f *fakeQuoter) QuoteExactInputSingle(_ context.Context, _, _ common.Address, _ uint32, amountIn *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, new(big.Int).Set(amountIn))
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.out), nil
}

func (f *fakeQuoter) calls() []*big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*big.Int{}, f.amounts...)
}

func testTokens(t *testing.T) (*registry.Registry, model.Token, model.Token, model.Token) {
	t.Helper()
	reg, err := registry.ForChain(1)
	require.NoError(t, err)
	eth, _ := reg.TokenBySymbol("ETH")
	weth, _ := reg.TokenBySymbol("WETH")
	usdc, _ := reg.TokenBySymbol("USDC")
	return reg, eth, weth, usdc
}

func TestQuoteWrapPairBypassesNetwork(t *testing.T) {
	reg, eth, weth, _ := testTokens(t)
	quoter := &fakeQuoter{out: big.NewInt(1)}
	engine := New(quoter, reg, time.Millisecond, nil)

	result, err := engine.Quote(context.Background(), eth, weth, 3000, "1.25")
	require.NoError(t, err)
	require.True(t, result.Wrapped)
	require.Equal(t, "1.25", result.AmountOut)
	require.Empty(t, quoter.calls(), "wrap quotes must not reach the quoter")

	// And the reverse direction.
	result, err = engine.Quote(context.Background(), weth, eth, 3000, "0.5")
	require.NoError(t, err)
	require.True(t, result.Wrapped)
	require.Equal(t, "0.5", result.AmountOut)
}

func TestQuoteUnknownPool(t *testing.T) {
	reg, _, _, usdc := testTokens(t)
	wbtc, _ := reg.TokenBySymbol("WBTC")
	engine := New(&fakeQuoter{out: big.NewInt(1)}, reg, time.Millisecond, nil)

	_, err := engine.Quote(context.Background(), wbtc, usdc, 3000, "1")
	require.Error(t, err)
	require.ErrorContains(t, err, "no pool")
}

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	reg, _, weth, usdc := testTokens(t)
	engine := New(&fakeQuoter{out: big.NewInt(1)}, reg, time.Millisecond, nil)

	for _, amount := range []string{"0", "-1", "abc"} {
		_, err := engine.Quote(context.Background(), weth, usdc, 500, amount)
		require.Error(t, err, "amount %q", amount)
	}
}

func TestQuoteTrade(t *testing.T) {
	reg, _, weth, usdc := testTokens(t)
	quoter := &fakeQuoter{out: big.NewInt(2000_000000)}
	engine := New(quoter, reg, time.Millisecond, nil)

	result, err := engine.Quote(context.Background(), weth, usdc, 500, "1")
	require.NoError(t, err)
	require.False(t, result.Wrapped)
	require.Equal(t, "2000", result.AmountOut)

	calls := quoter.calls()
	require.Len(t, calls, 1)
	require.Equal(t, "1000000000000000000", calls[0].String())
}

func TestSetInputLastWriteWins(t *testing.T) {
	reg, _, weth, usdc := testTokens(t)
	quoter := &fakeQuoter{out: big.NewInt(2000_000000)}
	engine := New(quoter, reg, 50*time.Millisecond, nil)

	results := make(chan Result, 4)
	engine.OnResult(func(result Result) { results <- result })

	// The second input arrives inside the first one's quiet period, so only
	// the second request may resolve.
	engine.SetInput(context.Background(), weth, usdc, 500, "1")
	engine.SetInput(context.Background(), weth, usdc, 500, "2")

	select {
	case result := <-results:
		require.NoError(t, result.Err)
		require.Equal(t, "2000", result.AmountOut)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a quote result")
	}

	calls := quoter.calls()
	require.Len(t, calls, 1, "superseded input must never be quoted")
	require.Equal(t, "2000000000000000000", calls[0].String())

	latest, ok := engine.Latest()
	require.True(t, ok)
	require.Equal(t, "2000", latest.AmountOut)
}

func TestSetInputWrapResolvesImmediately(t *testing.T) {
	reg, eth, weth, _ := testTokens(t)
	quoter := &fakeQuoter{out: big.NewInt(1)}
	engine := New(quoter, reg, time.Hour, nil)

	engine.SetInput(context.Background(), eth, weth, 3000, "3")

	latest, ok := engine.Latest()
	require.True(t, ok, "wrap input resolves without waiting out the debounce")
	require.True(t, latest.Wrapped)
	require.Equal(t, "3", latest.AmountOut)
	require.Empty(t, quoter.calls())
}

func TestSetInputErrorStored(t *testing.T) {
	reg, _, weth, usdc := testTokens(t)
	quoter := &fakeQuoter{err: errors.New("rpc down")}
	engine := New(quoter, reg, time.Millisecond, nil)

	results := make(chan Result, 1)
	engine.OnResult(func(result Result) { results <- result })

	engine.SetInput(context.Background(), weth, usdc, 500, "1")

	select {
	case result := <-results:
		require.Error(t, result.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a quote result")
	}
}
