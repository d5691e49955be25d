package model

import "strings"

// Token describes an ERC20 token entry from the static per-chain registry.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Icon     string `json:"icon,omitempty"`
}

// Is reports whether the token has the given address, checksum-insensitive.
func (t Token) Is(address string) bool {
	return strings.EqualFold(t.Address, address)
}
