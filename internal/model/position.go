package model

import "math/big"

// Position is an owned concentrated-liquidity NFT position together with
// its derived pool reference and current token amounts.
type Position struct {
	TokenID   *big.Int
	Token0    Token
	Token1    Token
	Fee       uint32
	TickLower int32
	TickUpper int32
	Liquidity *big.Int
	Pool      Pool
	Amounts   PositionAmounts
}

// PositionAmounts is the per-position amount result. A failed amount
// computation degrades to zero amounts with a reason instead of dropping
// the whole position.
type PositionAmounts struct {
	Amount0  *big.Int
	Amount1  *big.Int
	Degraded bool
	Reason   string
}

// ZeroAmounts returns an amounts value of (0, 0).
func ZeroAmounts() PositionAmounts {
	return PositionAmounts{Amount0: new(big.Int), Amount1: new(big.Int)}
}

// DegradedAmounts returns zero amounts tagged with the failure reason.
func DegradedAmounts(reason string) PositionAmounts {
	return PositionAmounts{
		Amount0:  new(big.Int),
		Amount1:  new(big.Int),
		Degraded: true,
		Reason:   reason,
	}
}
