package pricing

import (
	"fmt"
	"math"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/shopspring/decimal"

	"liquidityDesk/internal/model"
)

// PriceToTick converts a human token1-per-token0 price into the tick index
// at or below it. The price is first adjusted by the token decimal
// difference, then mapped into log-1.0001 space and floored. When
// tickSpacing is nonzero the result is additionally floored to the previous
// multiple of tickSpacing so a chosen boundary never overshoots the
// intended range.
func PriceToTick(price float64, token0, token1 model.Token, tickSpacing int32) (int32, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price out of domain: %v", price)
	}

	adjusted := price * math.Pow(10, float64(token1.Decimals)-float64(token0.Decimals))
	raw := math.Log(adjusted) / math.Log(1.0001)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("tick out of domain for price %v", price)
	}

	tick := int32(math.Floor(raw))
	if tickSpacing == 0 {
		return tick, nil
	}
	return floorToSpacing(tick, tickSpacing), nil
}

// SqrtPriceToPrice converts the pool's packed sqrt price into a
// decimals-adjusted human token1-per-token0 price.
func SqrtPriceToPrice(sqrtPriceX96 *big.Int, token0, token1 model.Token) float64 {
	ratio, _ := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceX96),
		new(big.Float).SetInt(q96),
	).Float64()

	return ratio * ratio / math.Pow(10, float64(token1.Decimals)-float64(token0.Decimals))
}

// PriceToSqrtPriceX96 encodes a human price as the protocol's sqrt price.
// The price is expressed as an exact ratio of raw token units before
// encoding, so no float rounding enters the fixed-point result.
func PriceToSqrtPriceX96(price float64, token0, token1 model.Token) *big.Int {
	amount1 := decimal.NewFromFloat(price).Shift(int32(token1.Decimals))
	amount0 := decimal.New(1, int32(token0.Decimals))

	// Clear any remaining fractional exponent so both sides are integral.
	if exp := amount1.Exponent(); exp < 0 {
		amount1 = amount1.Shift(-exp)
		amount0 = amount0.Shift(-exp)
	}

	return utils.EncodeSqrtRatioX96(amount1.BigInt(), amount0.BigInt())
}

// ParseAmount converts a human amount string into raw token units,
// truncating precision beyond the token's decimals.
func ParseAmount(input string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(input)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", input, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount: %s", input)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FormatAmount renders raw token units as a human amount string.
func FormatAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

func floorToSpacing(tick, tickSpacing int32) int32 {
	quotient := tick / tickSpacing
	if tick%tickSpacing != 0 && tick < 0 {
		quotient--
	}
	return quotient * tickSpacing
}
