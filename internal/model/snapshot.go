package model

// PositionSnapshot is a flattened inventory row for export sinks.
type PositionSnapshot struct {
	ChainID    uint64 `json:"chain_id"`
	Owner      string `json:"owner"`
	TokenID    string `json:"token_id"`
	PoolAddr   string `json:"pool_address"`
	Token0     string `json:"token0"`
	Token1     string `json:"token1"`
	Fee        uint32 `json:"fee"`
	TickLower  int32  `json:"tick_lower"`
	TickUpper  int32  `json:"tick_upper"`
	Liquidity  string `json:"liquidity"`
	Amount0    string `json:"amount0"`
	Amount1    string `json:"amount1"`
	Degraded   bool   `json:"degraded,omitempty"`
	CapturedAt string `json:"captured_at"`
}
