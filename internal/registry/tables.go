package registry

import "liquidityDesk/internal/model"

// Static per-chain tables. Addresses are the canonical mainnet deployments.
func tables(chainID uint64) ([]model.Token, []model.Pool, Contracts, bool) {
	switch chainID {
	case 1:
		return mainnetTokens, mainnetPools, mainnetContracts, true
	default:
		return nil, nil, Contracts{}, false
	}
}

var mainnetContracts = Contracts{
	PositionManager: "0xC36442b4a4522E871399CD717aBDD847Ab11FE88",
	SwapRouter:      "0xE592427A0AEce92De3Edee1F18E0157C05861564",
	Quoter:          "0x61fFE014bA17989E743c5F6cB21bF9697530B21e",
	WrappedNative:   "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
}

var mainnetTokens = []model.Token{
	{Address: NativeAddress, Symbol: "ETH", Name: "Ether", Decimals: 18, Icon: "eth.svg"},
	{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, Icon: "weth.svg"},
	{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Name: "USD Coin", Decimals: 6, Icon: "usdc.svg"},
	{Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Symbol: "USDT", Name: "Tether USD", Decimals: 6, Icon: "usdt.svg"},
	{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18, Icon: "dai.svg"},
	{Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Symbol: "WBTC", Name: "Wrapped BTC", Decimals: 8, Icon: "wbtc.svg"},
}

var mainnetPools = []model.Pool{
	{Address: "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640", Token0: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Token1: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Fee: 500},
	{Address: "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8", Token0: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Token1: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Fee: 3000},
	{Address: "0x4e68Ccd3E89f51C3074ca5072bbAC773960dFa36", Token0: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Token1: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Fee: 3000},
	{Address: "0x5777d92f208679DB4b9778590Fa3CAB3aC9e2168", Token0: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Token1: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Fee: 100},
	{Address: "0xCBCdF9626bC03E24f779434178A73a0B4bad62eD", Token0: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Token1: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Fee: 3000},
	{Address: "0x11b815efB8f581194ae79006d24E0d814B7697F6", Token0: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Token1: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Fee: 500},
}
