package sequencer

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/model"
)

// DefaultDeadline is how far in the future submitted calls stay valid.
const DefaultDeadline = 20 * time.Minute

// MintInput carries the prepared values for a new position.
type MintInput struct {
	Token0          model.Token
	Token1          model.Token
	Fee             uint32
	TickLower       int32
	TickUpper       int32
	Amount0         *big.Int
	Amount1         *big.Int
	Recipient       common.Address
	PositionManager common.Address
	Deadline        time.Time
}

// BuildMint assembles approve-approve-mint. Minimum amounts are submitted
// as zero: provisioning carries no slippage bound, only swaps do.
func BuildMint(in MintInput) (Action, error) {
	if in.TickLower >= in.TickUpper {
		return Action{}, fmt.Errorf("tick lower %d must be below tick upper %d", in.TickLower, in.TickUpper)
	}

	var steps []Step
	approve0, err := approveStep(in.Token0, in.PositionManager, in.Amount0)
	if err != nil {
		return Action{}, err
	}
	approve1, err := approveStep(in.Token1, in.PositionManager, in.Amount1)
	if err != nil {
		return Action{}, err
	}
	steps = append(steps, approve0, approve1)

	data, err := dex.PackMint(dex.MintParams{
		Token0:         common.HexToAddress(in.Token0.Address),
		Token1:         common.HexToAddress(in.Token1.Address),
		Fee:            new(big.Int).SetUint64(uint64(in.Fee)),
		TickLower:      big.NewInt(int64(in.TickLower)),
		TickUpper:      big.NewInt(int64(in.TickUpper)),
		Amount0Desired: in.Amount0,
		Amount1Desired: in.Amount1,
		Amount0Min:     new(big.Int),
		Amount1Min:     new(big.Int),
		Recipient:      in.Recipient,
		Deadline:       deadlineArg(in.Deadline),
	})
	if err != nil {
		return Action{}, fmt.Errorf("pack mint: %w", err)
	}
	steps = append(steps, Step{
		Name:   "mint",
		Intent: model.CallIntent{To: in.PositionManager, Data: data},
	})

	return Action{
		Name:  "add-liquidity",
		Steps: steps,
		Touches: []TokenTouch{
			{Token: common.HexToAddress(in.Token0.Address), Spender: in.PositionManager},
			{Token: common.HexToAddress(in.Token1.Address), Spender: in.PositionManager},
		},
	}, nil
}

// IncreaseInput carries the prepared values for growing a position.
type IncreaseInput struct {
	TokenID         *big.Int
	Token0          model.Token
	Token1          model.Token
	Amount0         *big.Int
	Amount1         *big.Int
	PositionManager common.Address
	Deadline        time.Time
}

// BuildIncrease assembles approve-approve-increaseLiquidity for an
// existing tokenId.
func BuildIncrease(in IncreaseInput) (Action, error) {
	approve0, err := approveStep(in.Token0, in.PositionManager, in.Amount0)
	if err != nil {
		return Action{}, err
	}
	approve1, err := approveStep(in.Token1, in.PositionManager, in.Amount1)
	if err != nil {
		return Action{}, err
	}

	data, err := dex.PackIncreaseLiquidity(dex.IncreaseLiquidityParams{
		TokenId:        in.TokenID,
		Amount0Desired: in.Amount0,
		Amount1Desired: in.Amount1,
		Amount0Min:     new(big.Int),
		Amount1Min:     new(big.Int),
		Deadline:       deadlineArg(in.Deadline),
	})
	if err != nil {
		return Action{}, fmt.Errorf("pack increaseLiquidity: %w", err)
	}

	return Action{
		Name: "increase-liquidity",
		Steps: []Step{
			approve0,
			approve1,
			{Name: "increase", Intent: model.CallIntent{To: in.PositionManager, Data: data}},
		},
		Touches: []TokenTouch{
			{Token: common.HexToAddress(in.Token0.Address), Spender: in.PositionManager},
			{Token: common.HexToAddress(in.Token1.Address), Spender: in.PositionManager},
		},
	}, nil
}

// DecreaseInput carries the values for a partial or full withdrawal.
type DecreaseInput struct {
	TokenID         *big.Int
	Liquidity       *big.Int
	Percent         int64
	Recipient       common.Address
	PositionManager common.Address
	Deadline        time.Time
}

// BuildDecrease assembles decreaseLiquidity followed by a collect of
// everything owed. The removed liquidity is floor(liquidity * percent / 100).
func BuildDecrease(in DecreaseInput) (Action, error) {
	if in.Percent <= 0 || in.Percent > 100 {
		return Action{}, fmt.Errorf("percent must be in (0, 100]: %d", in.Percent)
	}
	if in.Liquidity == nil || in.Liquidity.Sign() == 0 {
		return Action{}, fmt.Errorf("position has no liquidity to remove")
	}

	toRemove := LiquidityToRemove(in.Liquidity, in.Percent)

	decreaseData, err := dex.PackDecreaseLiquidity(dex.DecreaseLiquidityParams{
		TokenId:    in.TokenID,
		Liquidity:  toRemove,
		Amount0Min: new(big.Int),
		Amount1Min: new(big.Int),
		Deadline:   deadlineArg(in.Deadline),
	})
	if err != nil {
		return Action{}, fmt.Errorf("pack decreaseLiquidity: %w", err)
	}
	collectData, err := dex.PackCollect(dex.CollectParams{
		TokenId:    in.TokenID,
		Recipient:  in.Recipient,
		Amount0Max: dex.MaxUint128,
		Amount1Max: dex.MaxUint128,
	})
	if err != nil {
		return Action{}, fmt.Errorf("pack collect: %w", err)
	}

	return Action{
		Name: "remove-liquidity",
		Steps: []Step{
			{Name: "decrease", Intent: model.CallIntent{To: in.PositionManager, Data: decreaseData}},
			{Name: "collect", Intent: model.CallIntent{To: in.PositionManager, Data: collectData}},
		},
	}, nil
}

// LiquidityToRemove computes floor(liquidity * percent / 100).
func LiquidityToRemove(liquidity *big.Int, percent int64) *big.Int {
	out := new(big.Int).Mul(liquidity, big.NewInt(percent))
	return out.Quo(out, big.NewInt(100))
}

// BuildBurn assembles the single burn call. Burning is only valid once all
// liquidity has been withdrawn.
func BuildBurn(tokenID, liquidity *big.Int, positionManager common.Address) (Action, error) {
	if liquidity != nil && liquidity.Sign() != 0 {
		return Action{}, fmt.Errorf("position still holds liquidity %s; remove it before burning", liquidity)
	}
	data, err := dex.PackBurn(tokenID)
	if err != nil {
		return Action{}, fmt.Errorf("pack burn: %w", err)
	}
	return Action{
		Name: "burn",
		Steps: []Step{
			{Name: "burn", Intent: model.CallIntent{To: positionManager, Data: data}},
		},
	}, nil
}

// SwapInput carries the prepared values for an exact-input swap.
type SwapInput struct {
	TokenIn     model.Token
	TokenOut    model.Token
	Fee         uint32
	AmountIn    *big.Int
	QuotedOut   *big.Int
	SlippageBps int64
	Recipient   common.Address
	Router      common.Address
	Deadline    time.Time
}

// BuildSwap assembles approve-then-exactInputSingle with the minimum output
// derived from the quote and the user's slippage tolerance.
func BuildSwap(in SwapInput) (Action, error) {
	if in.AmountIn == nil || in.AmountIn.Sign() <= 0 {
		return Action{}, fmt.Errorf("swap amount must be positive")
	}
	if in.QuotedOut == nil {
		return Action{}, fmt.Errorf("a quote is required before swapping")
	}

	approve, err := approveStep(in.TokenIn, in.Router, in.AmountIn)
	if err != nil {
		return Action{}, err
	}

	data, err := dex.PackExactInputSingle(dex.ExactInputSingleParams{
		TokenIn:           common.HexToAddress(in.TokenIn.Address),
		TokenOut:          common.HexToAddress(in.TokenOut.Address),
		Fee:               new(big.Int).SetUint64(uint64(in.Fee)),
		Recipient:         in.Recipient,
		Deadline:          deadlineArg(in.Deadline),
		AmountIn:          in.AmountIn,
		AmountOutMinimum:  MinimumOut(in.QuotedOut, in.SlippageBps),
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return Action{}, fmt.Errorf("pack exactInputSingle: %w", err)
	}

	return Action{
		Name: "swap",
		Steps: []Step{
			approve,
			{Name: "swap", Intent: model.CallIntent{To: in.Router, Data: data}},
		},
		Touches: []TokenTouch{
			{Token: common.HexToAddress(in.TokenIn.Address), Spender: in.Router},
		},
	}, nil
}

// MinimumOut applies the slippage tolerance to a quoted output:
// quoted * (10000 - bps) / 10000, floored.
func MinimumOut(quoted *big.Int, slippageBps int64) *big.Int {
	if slippageBps < 0 {
		slippageBps = 0
	}
	if slippageBps > 10000 {
		slippageBps = 10000
	}
	out := new(big.Int).Mul(quoted, big.NewInt(10000-slippageBps))
	return out.Quo(out, big.NewInt(10000))
}

// BuildWrap assembles the 1:1 native deposit into the wrapped token.
func BuildWrap(amount *big.Int, wrapped common.Address) (Action, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Action{}, fmt.Errorf("wrap amount must be positive")
	}
	data, err := dex.PackDeposit()
	if err != nil {
		return Action{}, fmt.Errorf("pack deposit: %w", err)
	}
	return Action{
		Name: "wrap",
		Steps: []Step{
			{Name: "deposit", Intent: model.CallIntent{To: wrapped, Data: data, Value: amount}},
		},
		Touches: []TokenTouch{{Token: wrapped}},
	}, nil
}

// BuildUnwrap assembles the 1:1 withdrawal back to the native token.
func BuildUnwrap(amount *big.Int, wrapped common.Address) (Action, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Action{}, fmt.Errorf("unwrap amount must be positive")
	}
	data, err := dex.PackWithdraw(amount)
	if err != nil {
		return Action{}, fmt.Errorf("pack withdraw: %w", err)
	}
	return Action{
		Name: "unwrap",
		Steps: []Step{
			{Name: "withdraw", Intent: model.CallIntent{To: wrapped, Data: data}},
		},
		Touches: []TokenTouch{{Token: wrapped}},
	}, nil
}

// approveStep builds a maximal approval gated on the current allowance
// covering need. Approving the maximum avoids a fresh approval per action.
func approveStep(token model.Token, spender common.Address, need *big.Int) (Step, error) {
	data, err := dex.PackApprove(spender, dex.MaxUint256)
	if err != nil {
		return Step{}, fmt.Errorf("pack approve %s: %w", token.Symbol, err)
	}
	tokenAddr := common.HexToAddress(token.Address)
	return Step{
		Name: "approve-" + token.Symbol,
		Approval: &ApprovalCheck{
			Token:   tokenAddr,
			Spender: spender,
			Need:    need,
		},
		Intent: model.CallIntent{To: tokenAddr, Data: data},
	}, nil
}

func deadlineArg(deadline time.Time) *big.Int {
	if deadline.IsZero() {
		deadline = time.Now().Add(DefaultDeadline)
	}
	return big.NewInt(deadline.Unix())
}
