package registry

import (
	"fmt"
	"strings"

	"liquidityDesk/internal/model"
)

// NativeAddress is the placeholder address used for the chain's native token.
const NativeAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// Contracts holds the per-chain protocol contract addresses.
type Contracts struct {
	PositionManager string
	SwapRouter      string
	Quoter          string
	WrappedNative   string
}

// Registry resolves tokens, pools, and contract addresses for one chain.
// Entries are static; the registry is never mutated after construction.
type Registry struct {
	chainID   uint64
	contracts Contracts
	tokens    []model.Token
	byAddress map[string]model.Token
	bySymbol  map[string]model.Token
	pools     map[string]model.Pool
}

// ForChain returns the registry for a chain ID, or an error if the chain
// is not supported.
func ForChain(chainID uint64) (*Registry, error) {
	tokens, pools, contracts, ok := tables(chainID)
	if !ok {
		return nil, fmt.Errorf("unsupported chain id: %d", chainID)
	}

	r := &Registry{
		chainID:   chainID,
		contracts: contracts,
		tokens:    tokens,
		byAddress: make(map[string]model.Token, len(tokens)),
		bySymbol:  make(map[string]model.Token, len(tokens)),
		pools:     make(map[string]model.Pool, len(pools)),
	}
	for _, token := range tokens {
		r.byAddress[strings.ToLower(token.Address)] = token
		r.bySymbol[strings.ToUpper(token.Symbol)] = token
	}
	for _, pool := range pools {
		r.pools[PoolKey(pool.Token0, pool.Token1, pool.Fee)] = pool
	}
	return r, nil
}

// PoolKey builds the canonical lookup key for a token pair and fee tier.
// The two addresses are sorted lexicographically after lowercasing, so the
// key is independent of argument order.
func PoolKey(tokenA, tokenB string, fee uint32) string {
	a := strings.ToLower(tokenA)
	b := strings.ToLower(tokenB)
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s:%s:%d", a, b, fee)
}

// ChainID returns the chain this registry serves.
func (r *Registry) ChainID() uint64 {
	return r.chainID
}

// Contracts returns the protocol contract addresses.
func (r *Registry) Contracts() Contracts {
	return r.contracts
}

// Tokens returns all registry tokens.
func (r *Registry) Tokens() []model.Token {
	return r.tokens
}

// TokenByAddress resolves a token by address, checksum-insensitive.
func (r *Registry) TokenByAddress(address string) (model.Token, bool) {
	token, ok := r.byAddress[strings.ToLower(address)]
	return token, ok
}

// TokenBySymbol resolves a token by its symbol, case-insensitive.
func (r *Registry) TokenBySymbol(symbol string) (model.Token, bool) {
	token, ok := r.bySymbol[strings.ToUpper(symbol)]
	return token, ok
}

// PoolFor resolves the pool for a token pair and fee tier in either order.
func (r *Registry) PoolFor(tokenA, tokenB string, fee uint32) (model.Pool, bool) {
	pool, ok := r.pools[PoolKey(tokenA, tokenB, fee)]
	return pool, ok
}

// PoolsFor returns all registered pools for a token pair across fee tiers.
func (r *Registry) PoolsFor(tokenA, tokenB string) []model.Pool {
	var found []model.Pool
	for _, fee := range []uint32{100, 500, 3000, 10000} {
		if pool, ok := r.PoolFor(tokenA, tokenB, fee); ok {
			found = append(found, pool)
		}
	}
	return found
}

// IsNative reports whether the address is the native-token placeholder.
func IsNative(address string) bool {
	return strings.EqualFold(address, NativeAddress)
}

// IsWrapPair reports whether the pair is the native/wrapped special case
// that converts 1:1 without a pool.
func (r *Registry) IsWrapPair(tokenIn, tokenOut string) bool {
	wrapped := r.contracts.WrappedNative
	if IsNative(tokenIn) && strings.EqualFold(tokenOut, wrapped) {
		return true
	}
	if IsNative(tokenOut) && strings.EqualFold(tokenIn, wrapped) {
		return true
	}
	return false
}
