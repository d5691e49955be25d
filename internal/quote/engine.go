package quote

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/pricing"
	"liquidityDesk/internal/registry"
)

// DefaultDebounce is the quiet period before a quote request is issued.
const DefaultDebounce = 400 * time.Millisecond

// Quoter simulates an exact-input trade and returns the output amount.
type Quoter interface {
	QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error)
}

// Result is the outcome of one quote request.
type Result struct {
	AmountOut string
	Raw       *big.Int
	Wrapped   bool
	Err       error
}

// Engine debounces quote requests and enforces last-write-wins on the
// result slot: a newer input supersedes any in-flight quote, and stale
// resolutions are discarded even if they arrive later.
type Engine struct {
	quoter   Quoter
	registry *registry.Registry
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	gen       uint64
	latest    Result
	hasResult bool
	onResult  func(Result)
}

// New builds a quote engine. A zero debounce falls back to the default.
func New(quoter Quoter, reg *registry.Registry, debounce time.Duration, logger *zap.Logger) *Engine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		quoter:   quoter,
		registry: reg,
		debounce: debounce,
		logger:   logger,
	}
}

// OnResult registers the observer invoked for each non-stale result.
func (e *Engine) OnResult(fn func(Result)) {
	e.mu.Lock()
	e.onResult = fn
	e.mu.Unlock()
}

// Latest returns the current result slot.
func (e *Engine) Latest() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest, e.hasResult
}

// Quote resolves a quote synchronously. The wrap/unwrap pair converts 1:1
// with no network call; everything else simulates the trade against the
// live pool with no output minimum and no price limit.
func (e *Engine) Quote(ctx context.Context, tokenIn, tokenOut model.Token, fee uint32, amountIn string) (Result, error) {
	raw, err := pricing.ParseAmount(amountIn, tokenIn.Decimals)
	if err != nil {
		return Result{Err: err}, err
	}
	if raw.Sign() <= 0 {
		err := fmt.Errorf("amount must be positive: %s", amountIn)
		return Result{Err: err}, err
	}

	if e.registry.IsWrapPair(tokenIn.Address, tokenOut.Address) {
		return Result{
			AmountOut: pricing.FormatAmount(raw, tokenOut.Decimals),
			Raw:       raw,
			Wrapped:   true,
		}, nil
	}

	if _, ok := e.registry.PoolFor(tokenIn.Address, tokenOut.Address, fee); !ok {
		err := fmt.Errorf("no pool for %s/%s at fee %d", tokenIn.Symbol, tokenOut.Symbol, fee)
		return Result{Err: err}, err
	}

	out, err := e.quoter.QuoteExactInputSingle(ctx,
		common.HexToAddress(tokenIn.Address),
		common.HexToAddress(tokenOut.Address),
		fee,
		raw,
	)
	if err != nil {
		return Result{Err: err}, err
	}

	return Result{
		AmountOut: pricing.FormatAmount(out, tokenOut.Decimals),
		Raw:       out,
	}, nil
}

// SetInput schedules a debounced quote for the newest input. Only the
// latest scheduled request may update the result slot; earlier in-flight
// requests are logically cancelled.
func (e *Engine) SetInput(ctx context.Context, tokenIn, tokenOut model.Token, fee uint32, amountIn string) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	// The wrap pair needs no quiet period: the answer is the input.
	if e.registry.IsWrapPair(tokenIn.Address, tokenOut.Address) {
		result, _ := e.Quote(ctx, tokenIn, tokenOut, fee, amountIn)
		e.store(gen, result)
		return
	}

	time.AfterFunc(e.debounce, func() {
		if !e.current(gen) {
			return
		}
		result, err := e.Quote(ctx, tokenIn, tokenOut, fee, amountIn)
		if err != nil {
			e.logger.Debug("quote failed", zap.String("amount_in", amountIn), zap.Error(err))
		}
		e.store(gen, result)
	})
}

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.gen
}

// store writes the result only if it is still the newest request.
func (e *Engine) store(gen uint64, result Result) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.latest = result
	e.hasResult = true
	fn := e.onResult
	e.mu.Unlock()

	if fn != nil {
		fn(result)
	}
}
