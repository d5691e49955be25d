package model

import "math/big"

// Pool represents an immutable V3 pool registry entry.
// Token0 and Token1 follow the protocol's canonical ordering by ascending address.
type Pool struct {
	Address string `json:"address"`
	Token0  string `json:"token0"`
	Token1  string `json:"token1"`
	Fee     uint32 `json:"fee"`
}

// PoolState holds the ephemeral pool fields fetched on demand, never persisted.
type PoolState struct {
	SqrtPriceX96 *big.Int
	Tick         int32
	TickSpacing  int32
	Liquidity    *big.Int
}
