package pricing

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick and MaxTick bound the protocol's usable tick range.
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// ErrTickOutOfBounds is returned for ticks outside [MinTick, MaxTick].
var ErrTickOutOfBounds = errors.New("tick out of bounds")

// sqrtRatios[i] holds sqrt(1.0001^(2^(i-1))) in UQ128.128 for i >= 2;
// index 0 is sqrt(1.0001) and index 1 is one. These are the protocol's
// published magic constants and must match it bit for bit.
var sqrtRatios = [21]*uint256.Int{
	mustHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	mustHex("0x100000000000000000000000000000000"),
	mustHex("0xfff97272373d413259a46990580e213a"),
	mustHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	mustHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	mustHex("0xffcb9843d60f6159c9db58835c926644"),
	mustHex("0xff973b41fa98c081472e6896dfb254c0"),
	mustHex("0xff2ea16466c96a3843ec78b326b52861"),
	mustHex("0xfe5dee046a99a2a811c461f1969c3053"),
	mustHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	mustHex("0xf987a7253ac413176f2b074cf7815e54"),
	mustHex("0xf3392b0822b70005940c7a398e4b70f3"),
	mustHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	mustHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	mustHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	mustHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	mustHex("0x31be135f97d08fd981231505542fcfa6"),
	mustHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	mustHex("0x5d6af8dedb81196699c329225ee604"),
	mustHex("0x2216e584f5fa1ea926041bedfe98"),
	mustHex("0x48a170391f7dc42444e8fa2"),
}

var (
	roundingMask = mustHex("0xffffffff")
	uintOne      = uint256.NewInt(1)
	uintMax      = func() *uint256.Int {
		v := new(uint256.Int)
		v.SetAllOne()
		return v
	}()
)

// SqrtRatioAtTick computes sqrt(1.0001^tick) * 2^96 exactly, matching the
// protocol's fixed-point formula.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(sqrtRatios[0])
	} else {
		ratio.Set(sqrtRatios[1])
	}
	for i := 2; i < 21; i++ {
		if absTick&(1<<(i-1)) != 0 {
			ratio.Mul(ratio, sqrtRatios[i]).Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(uintMax, ratio)
	}

	// Convert from UQ128.128 to UQ64.96, rounding up on a remainder.
	rem := new(uint256.Int).And(ratio, roundingMask)
	ratio.Rsh(ratio, 32)
	if rem.Sign() > 0 {
		ratio.Add(ratio, uintOne)
	}

	return ratio.ToBig(), nil
}

func mustHex(hex string) *uint256.Int {
	value, err := uint256.FromHex(hex)
	if err != nil {
		panic(err)
	}
	return value
}
