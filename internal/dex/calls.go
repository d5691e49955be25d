package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxUint256 is the maximal ERC20 approval value.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// MaxUint128 is the collect-everything cap for the position manager.
var MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// MintParams mirrors the position manager's mint call tuple.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// IncreaseLiquidityParams mirrors the increaseLiquidity call tuple.
type IncreaseLiquidityParams struct {
	TokenId        *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Deadline       *big.Int
}

// DecreaseLiquidityParams mirrors the decreaseLiquidity call tuple.
type DecreaseLiquidityParams struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Deadline   *big.Int
}

// CollectParams mirrors the collect call tuple.
type CollectParams struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

// ExactInputSingleParams mirrors the router's exactInputSingle call tuple.
type ExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// QuoteExactInputSingleParams mirrors the quoter's call tuple.
type QuoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// RawPosition holds the position-manager fields the client cares about.
type RawPosition struct {
	Token0    common.Address
	Token1    common.Address
	Fee       uint32
	TickLower int32
	TickUpper int32
	Liquidity *big.Int
}

func PackAllowance(owner, spender common.Address) ([]byte, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("allowance", owner, spender)
}

func UnpackAllowance(data []byte) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("allowance", data)
	if err != nil {
		return nil, fmt.Errorf("unpack allowance: %w", err)
	}
	return asBigInt(values[0])
}

func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("approve", spender, amount)
}

func PackBalanceOf(owner common.Address) ([]byte, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("balanceOf", owner)
}

func UnpackBalanceOf(data []byte) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("balanceOf", data)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	return asBigInt(values[0])
}

func PackSlot0() ([]byte, error) {
	parsed, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("slot0")
}

// UnpackSlot0 returns the pool's sqrt price and current tick.
func UnpackSlot0(data []byte) (*big.Int, int32, error) {
	parsed, err := V3PoolABI()
	if err != nil {
		return nil, 0, err
	}
	values, err := parsed.Unpack("slot0", data)
	if err != nil {
		return nil, 0, fmt.Errorf("unpack slot0: %w", err)
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return nil, 0, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return nil, 0, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return nil, 0, fmt.Errorf("slot0 tick: %w", err)
	}
	return sqrtPrice, tick, nil
}

func PackPoolLiquidity() ([]byte, error) {
	parsed, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("liquidity")
}

func UnpackPoolLiquidity(data []byte) (*big.Int, error) {
	parsed, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("liquidity", data)
	if err != nil {
		return nil, fmt.Errorf("unpack liquidity: %w", err)
	}
	return asBigInt(values[0])
}

func PackTickSpacing() ([]byte, error) {
	parsed, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("tickSpacing")
}

func UnpackTickSpacing(data []byte) (int32, error) {
	parsed, err := V3PoolABI()
	if err != nil {
		return 0, err
	}
	values, err := parsed.Unpack("tickSpacing", data)
	if err != nil {
		return 0, fmt.Errorf("unpack tickSpacing: %w", err)
	}
	spacing, err := asBigInt(values[0])
	if err != nil {
		return 0, err
	}
	return int24FromBig(spacing)
}

func PackPositionBalance(owner common.Address) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("balanceOf", owner)
}

func UnpackPositionBalance(data []byte) (*big.Int, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("balanceOf", data)
	if err != nil {
		return nil, fmt.Errorf("unpack position balance: %w", err)
	}
	return asBigInt(values[0])
}

func PackTokenOfOwnerByIndex(owner common.Address, index *big.Int) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("tokenOfOwnerByIndex", owner, index)
}

func UnpackTokenOfOwnerByIndex(data []byte) (*big.Int, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("tokenOfOwnerByIndex", data)
	if err != nil {
		return nil, fmt.Errorf("unpack tokenOfOwnerByIndex: %w", err)
	}
	return asBigInt(values[0])
}

func PackPositions(tokenID *big.Int) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("positions", tokenID)
}

func UnpackPositions(data []byte) (RawPosition, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return RawPosition{}, err
	}
	values, err := parsed.Unpack("positions", data)
	if err != nil {
		return RawPosition{}, fmt.Errorf("unpack positions: %w", err)
	}
	if len(values) < 12 {
		return RawPosition{}, fmt.Errorf("positions returned %d values", len(values))
	}

	token0, err := asAddress(values[2])
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions token0: %w", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions token1: %w", err)
	}
	fee, err := asBigInt(values[4])
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions fee: %w", err)
	}
	tickLowerInt, err := asBigInt(values[5])
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions tickLower: %w", err)
	}
	tickLower, err := int24FromBig(tickLowerInt)
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions tickLower: %w", err)
	}
	tickUpperInt, err := asBigInt(values[6])
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions tickUpper: %w", err)
	}
	tickUpper, err := int24FromBig(tickUpperInt)
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions tickUpper: %w", err)
	}
	liquidity, err := asBigInt(values[7])
	if err != nil {
		return RawPosition{}, fmt.Errorf("positions liquidity: %w", err)
	}

	return RawPosition{
		Token0:    token0,
		Token1:    token1,
		Fee:       uint32(fee.Uint64()),
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: liquidity,
	}, nil
}

func PackMint(params MintParams) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("mint", params)
}

func PackIncreaseLiquidity(params IncreaseLiquidityParams) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("increaseLiquidity", params)
}

func PackDecreaseLiquidity(params DecreaseLiquidityParams) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("decreaseLiquidity", params)
}

func PackCollect(params CollectParams) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("collect", params)
}

func PackBurn(tokenID *big.Int) ([]byte, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("burn", tokenID)
}

func PackExactInputSingle(params ExactInputSingleParams) ([]byte, error) {
	parsed, err := SwapRouterABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("exactInputSingle", params)
}

func PackQuoteExactInputSingle(params QuoteExactInputSingleParams) ([]byte, error) {
	parsed, err := QuoterABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("quoteExactInputSingle", params)
}

// UnpackQuoteAmountOut extracts amountOut from the quoter response.
func UnpackQuoteAmountOut(data []byte) (*big.Int, error) {
	parsed, err := QuoterABI()
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("quoteExactInputSingle", data)
	if err != nil {
		return nil, fmt.Errorf("unpack quote: %w", err)
	}
	return asBigInt(values[0])
}

func PackDeposit() ([]byte, error) {
	parsed, err := WrappedNativeABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("deposit")
}

func PackWithdraw(amount *big.Int) ([]byte, error) {
	parsed, err := WrappedNativeABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("withdraw", amount)
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
