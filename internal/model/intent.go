package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CallIntent is a concrete contract invocation produced by a plan builder.
// A nil intent means preconditions were unmet and the action is unavailable.
type CallIntent struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}
