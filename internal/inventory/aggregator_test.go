package inventory

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityDesk/internal/chain"
	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/registry"
)

type fakeCaller struct {
	responses  map[string][]byte
	batchSizes []int
}

func callKey(to common.Address, data []byte) string {
	return to.Hex() + "/" + common.Bytes2Hex(data)
}

func (f *fakeCaller) set(to common.Address, data []byte, resp []byte) {
	if f.responses == nil {
		f.responses = make(map[string][]byte)
	}
	f.responses[callKey(to, data)] = resp
}

func (f *fakeCaller) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	if resp, ok := f.responses[callKey(to, data)]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("no fixture for call to %s", to.Hex())
}

func (f *fakeCaller) BatchCallContract(_ context.Context, calls []chain.BatchCall) ([]chain.BatchResult, error) {
	f.batchSizes = append(f.batchSizes, len(calls))
	results := make([]chain.BatchResult, len(calls))
	for i, call := range calls {
		if resp, ok := f.responses[callKey(call.To, call.Data)]; ok {
			results[i] = chain.BatchResult{Data: resp}
		} else {
			results[i] = chain.BatchResult{Err: fmt.Errorf("no fixture for %s", call.To.Hex())}
		}
	}
	return results, nil
}

func packOutputs(t *testing.T, source func() (abi.ABI, error), method string, vals ...interface{}) []byte {
	t.Helper()
	parsed, err := source()
	require.NoError(t, err)
	out, err := parsed.Methods[method].Outputs.Pack(vals...)
	require.NoError(t, err)
	return out
}

func mustData(t *testing.T) func(data []byte, err error) []byte {
	t.Helper()
	return func(data []byte, err error) []byte {
		require.NoError(t, err)
		return data
	}
}

type fixture struct {
	caller *fakeCaller
	reg    *registry.Registry
	npm    common.Address
	owner  common.Address
	pool   common.Address
	usdc   common.Address
	weth   common.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := registry.ForChain(1)
	require.NoError(t, err)

	usdc, _ := reg.TokenBySymbol("USDC")
	weth, _ := reg.TokenBySymbol("WETH")
	pool, ok := reg.PoolFor(usdc.Address, weth.Address, 500)
	require.True(t, ok)

	return &fixture{
		caller: &fakeCaller{},
		reg:    reg,
		npm:    common.HexToAddress(reg.Contracts().PositionManager),
		owner:  common.HexToAddress("0x0000000000000000000000000000000000000777"),
		pool:   common.HexToAddress(pool.Address),
		usdc:   common.HexToAddress(usdc.Address),
		weth:   common.HexToAddress(weth.Address),
	}
}

func (f *fixture) setBalance(t *testing.T, balance int64) {
	data := mustData(t)(dex.PackPositionBalance(f.owner))
	f.caller.set(f.npm, data, packOutputs(t, dex.PositionManagerABI, "balanceOf", big.NewInt(balance)))
}

func (f *fixture) setTokenAt(t *testing.T, index, tokenID int64) {
	data := mustData(t)(dex.PackTokenOfOwnerByIndex(f.owner, big.NewInt(index)))
	f.caller.set(f.npm, data, packOutputs(t, dex.PositionManagerABI, "tokenOfOwnerByIndex", big.NewInt(tokenID)))
}

func (f *fixture) setPosition(t *testing.T, tokenID int64, token0, token1 common.Address, liquidity *big.Int) {
	data := mustData(t)(dex.PackPositions(big.NewInt(tokenID)))
	f.caller.set(f.npm, data, packOutputs(t, dex.PositionManagerABI, "positions",
		big.NewInt(0),    // nonce
		common.Address{}, // operator
		token0,
		token1,
		big.NewInt(500),
		big.NewInt(-120),
		big.NewInt(120),
		liquidity,
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
	))
}

func (f *fixture) setPoolState(t *testing.T) {
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	f.caller.set(f.pool, mustData(t)(dex.PackSlot0()),
		packOutputs(t, dex.V3PoolABI, "slot0", q96, big.NewInt(0), uint16(0), uint16(0), uint16(0), uint8(0), true))
	f.caller.set(f.pool, mustData(t)(dex.PackPoolLiquidity()),
		packOutputs(t, dex.V3PoolABI, "liquidity", big.NewInt(5_000_000_000)))
	f.caller.set(f.pool, mustData(t)(dex.PackTickSpacing()),
		packOutputs(t, dex.V3PoolABI, "tickSpacing", big.NewInt(10)))
}

func TestFetchZeroBalance(t *testing.T) {
	f := newFixture(t)
	f.setBalance(t, 0)

	agg := New(f.caller, f.reg, nil)
	inv, err := agg.Fetch(context.Background(), f.owner)
	require.NoError(t, err)
	require.Empty(t, inv.Active)
	require.Empty(t, inv.Empty)
	require.Empty(t, f.caller.batchSizes, "no batches for an empty account")
}

func TestFetchSplitsAndSorts(t *testing.T) {
	f := newFixture(t)
	f.setBalance(t, 3)
	f.setTokenAt(t, 0, 101)
	f.setTokenAt(t, 1, 102)
	f.setTokenAt(t, 2, 103)
	f.setPosition(t, 101, f.usdc, f.weth, big.NewInt(1_000_000_000))
	f.setPosition(t, 102, f.usdc, f.weth, big.NewInt(0))
	f.setPosition(t, 103, f.usdc, f.weth, big.NewInt(2_000_000_000))
	f.setPoolState(t)

	agg := New(f.caller, f.reg, nil)
	inv, err := agg.Fetch(context.Background(), f.owner)
	require.NoError(t, err)

	require.Len(t, inv.Active, 2)
	require.Len(t, inv.Empty, 1)
	require.Equal(t, "103", inv.Active[0].TokenID.String(), "newest position first")
	require.Equal(t, "101", inv.Active[1].TokenID.String())
	require.Equal(t, "102", inv.Empty[0].TokenID.String())

	// All three positions share one pool, so its state is read in a single
	// three-call batch.
	require.Equal(t, []int{3, 3, 3}, f.caller.batchSizes)

	// Current tick sits inside the range, so both sides hold value.
	active := inv.Active[1]
	require.False(t, active.Amounts.Degraded)
	require.Positive(t, active.Amounts.Amount0.Sign())
	require.Positive(t, active.Amounts.Amount1.Sign())

	empty := inv.Empty[0]
	require.False(t, empty.Amounts.Degraded)
	require.Zero(t, empty.Amounts.Amount0.Sign())
	require.Zero(t, empty.Amounts.Amount1.Sign())
}

func TestFetchSkipsForeignPositions(t *testing.T) {
	f := newFixture(t)
	foreign := common.HexToAddress("0x00000000000000000000000000000000deadbeef")

	f.setBalance(t, 1)
	f.setTokenAt(t, 0, 55)
	f.setPosition(t, 55, foreign, f.weth, big.NewInt(1000))

	agg := New(f.caller, f.reg, nil)
	inv, err := agg.Fetch(context.Background(), f.owner)
	require.NoError(t, err)
	require.Empty(t, inv.Active)
	require.Empty(t, inv.Empty)
}

func TestFetchDegradesOnMissingPoolState(t *testing.T) {
	f := newFixture(t)
	f.setBalance(t, 1)
	f.setTokenAt(t, 0, 77)
	f.setPosition(t, 77, f.usdc, f.weth, big.NewInt(1000))
	// Pool state fixtures deliberately absent.

	agg := New(f.caller, f.reg, nil)
	inv, err := agg.Fetch(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, inv.Active, 1)
	require.True(t, inv.Active[0].Amounts.Degraded)
	require.Zero(t, inv.Active[0].Amounts.Amount0.Sign())
}

func TestSnapshots(t *testing.T) {
	f := newFixture(t)
	f.setBalance(t, 1)
	f.setTokenAt(t, 0, 101)
	f.setPosition(t, 101, f.usdc, f.weth, big.NewInt(1_000_000_000))
	f.setPoolState(t)

	agg := New(f.caller, f.reg, nil)
	inv, err := agg.Fetch(context.Background(), f.owner)
	require.NoError(t, err)

	capturedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := Snapshots(inv, 1, f.owner, capturedAt)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Equal(t, uint64(1), row.ChainID)
	require.Equal(t, f.owner.Hex(), row.Owner)
	require.Equal(t, "101", row.TokenID)
	require.Equal(t, "USDC", row.Token0)
	require.Equal(t, "WETH", row.Token1)
	require.Equal(t, uint32(500), row.Fee)
	require.Equal(t, "1000000000", row.Liquidity)
	require.False(t, row.Degraded)
	require.Equal(t, "2026-03-01T12:00:00Z", row.CapturedAt)
}
