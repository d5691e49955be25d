package registry

import (
	"strings"
	"testing"
)

func TestPoolKeyOrderIndependent(t *testing.T) {
	a := "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	b := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

	if PoolKey(a, b, 3000) != PoolKey(b, a, 3000) {
		t.Fatalf("pool key must not depend on argument order")
	}
	if PoolKey(a, b, 3000) == PoolKey(a, b, 500) {
		t.Fatalf("pool key must include the fee tier")
	}
	if PoolKey(a, b, 3000) != PoolKey(strings.ToLower(a), strings.ToUpper(b), 3000) {
		t.Fatalf("pool key must be case-insensitive")
	}
}

func TestForChainUnsupported(t *testing.T) {
	if _, err := ForChain(999); err == nil {
		t.Fatalf("expected error for unsupported chain")
	}
}

func TestTokenLookups(t *testing.T) {
	r, err := ForChain(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	usdc, ok := r.TokenBySymbol("usdc")
	if !ok || usdc.Symbol != "USDC" {
		t.Fatalf("symbol lookup must be case-insensitive")
	}

	weth, ok := r.TokenByAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	if !ok || weth.Symbol != "WETH" {
		t.Fatalf("address lookup must be checksum-insensitive")
	}

	if _, ok := r.TokenBySymbol("DOGE"); ok {
		t.Fatalf("unexpected token resolution")
	}
}

func TestPoolLookups(t *testing.T) {
	r, err := ForChain(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weth, _ := r.TokenBySymbol("WETH")
	usdc, _ := r.TokenBySymbol("USDC")

	forward, ok := r.PoolFor(weth.Address, usdc.Address, 500)
	if !ok {
		t.Fatalf("expected WETH/USDC 500 pool")
	}
	reverse, ok := r.PoolFor(usdc.Address, weth.Address, 500)
	if !ok || reverse.Address != forward.Address {
		t.Fatalf("pool lookup must work in either order")
	}

	pools := r.PoolsFor(weth.Address, usdc.Address)
	if len(pools) != 2 {
		t.Fatalf("expected two WETH/USDC fee tiers, got %d", len(pools))
	}
}

func TestIsWrapPair(t *testing.T) {
	r, err := ForChain(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eth, _ := r.TokenBySymbol("ETH")
	weth, _ := r.TokenBySymbol("WETH")
	usdc, _ := r.TokenBySymbol("USDC")

	if !r.IsWrapPair(eth.Address, weth.Address) {
		t.Fatalf("ETH -> WETH is the wrap pair")
	}
	if !r.IsWrapPair(weth.Address, eth.Address) {
		t.Fatalf("WETH -> ETH is the wrap pair")
	}
	if r.IsWrapPair(eth.Address, usdc.Address) {
		t.Fatalf("ETH -> USDC is not the wrap pair")
	}
	if r.IsWrapPair(weth.Address, usdc.Address) {
		t.Fatalf("WETH -> USDC is not the wrap pair")
	}
}

func TestIsNative(t *testing.T) {
	if !IsNative(strings.ToLower(NativeAddress)) {
		t.Fatalf("native check must be case-insensitive")
	}
	if IsNative("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2") {
		t.Fatalf("WETH is not the native placeholder")
	}
}
