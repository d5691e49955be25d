package position

import (
	"fmt"
	"math/big"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/pricing"
)

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// Amounts computes the two token amounts a position is entitled to withdraw
// against the pool's current state, using the three-region formula:
// fully token0 below the range, fully token1 at or above the upper bound,
// and a sqrt-price proportional split inside the range.
//
// Failures degrade to zero amounts with a reason instead of an error, so
// one malformed position cannot blank a whole inventory.
func Amounts(liquidity *big.Int, tickLower, tickUpper int32, state model.PoolState) model.PositionAmounts {
	if liquidity == nil || liquidity.Sign() == 0 {
		return model.ZeroAmounts()
	}
	if tickLower >= tickUpper {
		return model.DegradedAmounts(fmt.Sprintf("invalid tick range [%d, %d)", tickLower, tickUpper))
	}

	sqrtLower, err := pricing.SqrtRatioAtTick(tickLower)
	if err != nil {
		return model.DegradedAmounts(fmt.Sprintf("tick lower %d: %v", tickLower, err))
	}
	sqrtUpper, err := pricing.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return model.DegradedAmounts(fmt.Sprintf("tick upper %d: %v", tickUpper, err))
	}

	switch {
	case state.Tick < tickLower:
		return model.PositionAmounts{
			Amount0: amount0Delta(sqrtLower, sqrtUpper, liquidity),
			Amount1: new(big.Int),
		}
	case state.Tick >= tickUpper:
		return model.PositionAmounts{
			Amount0: new(big.Int),
			Amount1: amount1Delta(sqrtLower, sqrtUpper, liquidity),
		}
	default:
		if state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() <= 0 {
			return model.DegradedAmounts("missing pool sqrt price")
		}
		return model.PositionAmounts{
			Amount0: amount0Delta(state.SqrtPriceX96, sqrtUpper, liquidity),
			Amount1: amount1Delta(sqrtLower, state.SqrtPriceX96, liquidity),
		}
	}
}

// amount0Delta = floor(liquidity << 96 * (sqrtB - sqrtA) / sqrtB / sqrtA).
func amount0Delta(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	out := new(big.Int).Lsh(liquidity, 96)
	out.Mul(out, new(big.Int).Sub(sqrtB, sqrtA))
	out.Quo(out, sqrtB)
	return out.Quo(out, sqrtA)
}

// amount1Delta = floor(liquidity * (sqrtB - sqrtA) / 2^96).
func amount1Delta(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	out := new(big.Int).Mul(liquidity, new(big.Int).Sub(sqrtB, sqrtA))
	return out.Quo(out, q96)
}
