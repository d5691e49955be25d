package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const v3PoolABIJSON = `[
  {"inputs": [], "name": "slot0", "outputs": [
    {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
    {"internalType": "int24", "name": "tick", "type": "int24"},
    {"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
    {"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
    {"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
    {"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
    {"internalType": "bool", "name": "unlocked", "type": "bool"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "liquidity", "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token0", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token1", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "fee", "outputs": [{"internalType": "uint24", "name": "", "type": "uint24"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "tickSpacing", "outputs": [{"internalType": "int24", "name": "", "type": "int24"}], "stateMutability": "view", "type": "function"}
]`

const positionManagerABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [
    {"internalType": "address", "name": "owner", "type": "address"},
    {"internalType": "uint256", "name": "index", "type": "uint256"}
  ], "name": "tokenOfOwnerByIndex", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}], "name": "positions", "outputs": [
    {"internalType": "uint96", "name": "nonce", "type": "uint96"},
    {"internalType": "address", "name": "operator", "type": "address"},
    {"internalType": "address", "name": "token0", "type": "address"},
    {"internalType": "address", "name": "token1", "type": "address"},
    {"internalType": "uint24", "name": "fee", "type": "uint24"},
    {"internalType": "int24", "name": "tickLower", "type": "int24"},
    {"internalType": "int24", "name": "tickUpper", "type": "int24"},
    {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
    {"internalType": "uint256", "name": "feeGrowthInside0LastX128", "type": "uint256"},
    {"internalType": "uint256", "name": "feeGrowthInside1LastX128", "type": "uint256"},
    {"internalType": "uint128", "name": "tokensOwed0", "type": "uint128"},
    {"internalType": "uint128", "name": "tokensOwed1", "type": "uint128"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [{"components": [
    {"internalType": "address", "name": "token0", "type": "address"},
    {"internalType": "address", "name": "token1", "type": "address"},
    {"internalType": "uint24", "name": "fee", "type": "uint24"},
    {"internalType": "int24", "name": "tickLower", "type": "int24"},
    {"internalType": "int24", "name": "tickUpper", "type": "int24"},
    {"internalType": "uint256", "name": "amount0Desired", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1Desired", "type": "uint256"},
    {"internalType": "uint256", "name": "amount0Min", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1Min", "type": "uint256"},
    {"internalType": "address", "name": "recipient", "type": "address"},
    {"internalType": "uint256", "name": "deadline", "type": "uint256"}
  ], "internalType": "struct INonfungiblePositionManager.MintParams", "name": "params", "type": "tuple"}],
  "name": "mint", "outputs": [
    {"internalType": "uint256", "name": "tokenId", "type": "uint256"},
    {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
    {"internalType": "uint256", "name": "amount0", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1", "type": "uint256"}
  ], "stateMutability": "payable", "type": "function"},
  {"inputs": [{"components": [
    {"internalType": "uint256", "name": "tokenId", "type": "uint256"},
    {"internalType": "uint256", "name": "amount0Desired", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1Desired", "type": "uint256"},
    {"internalType": "uint256", "name": "amount0Min", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1Min", "type": "uint256"},
    {"internalType": "uint256", "name": "deadline", "type": "uint256"}
  ], "internalType": "struct INonfungiblePositionManager.IncreaseLiquidityParams", "name": "params", "type": "tuple"}],
  "name": "increaseLiquidity", "outputs": [
    {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
    {"internalType": "uint256", "name": "amount0", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1", "type": "uint256"}
  ], "stateMutability": "payable", "type": "function"},
  {"inputs": [{"components": [
    {"internalType": "uint256", "name": "tokenId", "type": "uint256"},
    {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
    {"internalType": "uint256", "name": "amount0Min", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1Min", "type": "uint256"},
    {"internalType": "uint256", "name": "deadline", "type": "uint256"}
  ], "internalType": "struct INonfungiblePositionManager.DecreaseLiquidityParams", "name": "params", "type": "tuple"}],
  "name": "decreaseLiquidity", "outputs": [
    {"internalType": "uint256", "name": "amount0", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1", "type": "uint256"}
  ], "stateMutability": "payable", "type": "function"},
  {"inputs": [{"components": [
    {"internalType": "uint256", "name": "tokenId", "type": "uint256"},
    {"internalType": "address", "name": "recipient", "type": "address"},
    {"internalType": "uint128", "name": "amount0Max", "type": "uint128"},
    {"internalType": "uint128", "name": "amount1Max", "type": "uint128"}
  ], "internalType": "struct INonfungiblePositionManager.CollectParams", "name": "params", "type": "tuple"}],
  "name": "collect", "outputs": [
    {"internalType": "uint256", "name": "amount0", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1", "type": "uint256"}
  ], "stateMutability": "payable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}], "name": "burn", "outputs": [], "stateMutability": "payable", "type": "function"}
]`

const swapRouterABIJSON = `[
  {"inputs": [{"components": [
    {"internalType": "address", "name": "tokenIn", "type": "address"},
    {"internalType": "address", "name": "tokenOut", "type": "address"},
    {"internalType": "uint24", "name": "fee", "type": "uint24"},
    {"internalType": "address", "name": "recipient", "type": "address"},
    {"internalType": "uint256", "name": "deadline", "type": "uint256"},
    {"internalType": "uint256", "name": "amountIn", "type": "uint256"},
    {"internalType": "uint256", "name": "amountOutMinimum", "type": "uint256"},
    {"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
  ], "internalType": "struct ISwapRouter.ExactInputSingleParams", "name": "params", "type": "tuple"}],
  "name": "exactInputSingle", "outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}], "stateMutability": "payable", "type": "function"}
]`

const quoterABIJSON = `[
  {"inputs": [{"components": [
    {"internalType": "address", "name": "tokenIn", "type": "address"},
    {"internalType": "address", "name": "tokenOut", "type": "address"},
    {"internalType": "uint256", "name": "amountIn", "type": "uint256"},
    {"internalType": "uint24", "name": "fee", "type": "uint24"},
    {"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
  ], "internalType": "struct IQuoterV2.QuoteExactInputSingleParams", "name": "params", "type": "tuple"}],
  "name": "quoteExactInputSingle", "outputs": [
    {"internalType": "uint256", "name": "amountOut", "type": "uint256"},
    {"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
    {"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
    {"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
  ], "stateMutability": "nonpayable", "type": "function"}
]`

const wrappedNativeABIJSON = `[
  {"inputs": [], "name": "deposit", "outputs": [], "stateMutability": "payable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "wad", "type": "uint256"}], "name": "withdraw", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

var (
	v3PoolABI          abi.ABI
	v3PoolOnce         sync.Once
	v3PoolErr          error
	positionMgrABI     abi.ABI
	positionMgrOnce    sync.Once
	positionMgrErr     error
	swapRouterABI      abi.ABI
	swapRouterOnce     sync.Once
	swapRouterErr      error
	quoterABI          abi.ABI
	quoterOnce         sync.Once
	quoterErr          error
	wrappedNativeABI   abi.ABI
	wrappedNativeOnce  sync.Once
	wrappedNativeErr   error
)

// V3PoolABI returns the parsed pool view ABI.
func V3PoolABI() (abi.ABI, error) {
	v3PoolOnce.Do(func() {
		v3PoolABI, v3PoolErr = abi.JSON(strings.NewReader(v3PoolABIJSON))
	})
	return v3PoolABI, v3PoolErr
}

// PositionManagerABI returns the parsed position-manager ABI.
func PositionManagerABI() (abi.ABI, error) {
	positionMgrOnce.Do(func() {
		positionMgrABI, positionMgrErr = abi.JSON(strings.NewReader(positionManagerABIJSON))
	})
	return positionMgrABI, positionMgrErr
}

// SwapRouterABI returns the parsed router ABI.
func SwapRouterABI() (abi.ABI, error) {
	swapRouterOnce.Do(func() {
		swapRouterABI, swapRouterErr = abi.JSON(strings.NewReader(swapRouterABIJSON))
	})
	return swapRouterABI, swapRouterErr
}

// QuoterABI returns the parsed quoter ABI.
func QuoterABI() (abi.ABI, error) {
	quoterOnce.Do(func() {
		quoterABI, quoterErr = abi.JSON(strings.NewReader(quoterABIJSON))
	})
	return quoterABI, quoterErr
}

// WrappedNativeABI returns the parsed wrapped-native token ABI.
func WrappedNativeABI() (abi.ABI, error) {
	wrappedNativeOnce.Do(func() {
		wrappedNativeABI, wrappedNativeErr = abi.JSON(strings.NewReader(wrappedNativeABIJSON))
	})
	return wrappedNativeABI, wrappedNativeErr
}
