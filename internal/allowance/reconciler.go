package allowance

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// State tracks one cached chain read through its lifecycle.
type State int

const (
	StateUnknown State = iota
	StateFetching
	StateKnown
	StateStale
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateKnown:
		return "known"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Reader fetches allowances and balances from the chain.
type Reader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Balance(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

type pairKey struct {
	token   common.Address
	spender common.Address
}

type entry struct {
	state State
	value *big.Int
}

// Reconciler caches ERC20 allowances and balances for one owner and
// re-derives approval requirements against desired amounts. A cache entry
// moves Unknown -> Fetching -> Known, and back to Stale when a confirmed
// transaction may have changed it.
type Reconciler struct {
	owner  common.Address
	reader Reader
	logger *zap.Logger

	mu         sync.Mutex
	allowances map[pairKey]*entry
	balances   map[common.Address]*entry
}

// New builds a reconciler for the owner account.
func New(reader Reader, owner common.Address, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		owner:      owner,
		reader:     reader,
		logger:     logger,
		allowances: make(map[pairKey]*entry),
		balances:   make(map[common.Address]*entry),
	}
}

// RefreshAllowance fetches the (token, spender) allowance from chain truth
// and caches it. On a read failure the entry returns to Unknown so
// dependent checks disable instead of assuming a value.
func (r *Reconciler) RefreshAllowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	key := pairKey{token: token, spender: spender}

	r.mu.Lock()
	e, ok := r.allowances[key]
	if !ok {
		e = &entry{}
		r.allowances[key] = e
	}
	e.state = StateFetching
	r.mu.Unlock()

	value, err := r.reader.Allowance(ctx, token, r.owner, spender)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		e.state = StateUnknown
		e.value = nil
		r.logger.Warn("allowance fetch failed",
			zap.String("token", token.Hex()),
			zap.String("spender", spender.Hex()),
			zap.Error(err),
		)
		return nil, err
	}
	e.state = StateKnown
	e.value = new(big.Int).Set(value)
	return new(big.Int).Set(value), nil
}

// RefreshBalance fetches the owner's token balance and caches it.
func (r *Reconciler) RefreshBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	r.mu.Lock()
	e, ok := r.balances[token]
	if !ok {
		e = &entry{}
		r.balances[token] = e
	}
	e.state = StateFetching
	r.mu.Unlock()

	value, err := r.reader.Balance(ctx, token, r.owner)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		e.state = StateUnknown
		e.value = nil
		r.logger.Warn("balance fetch failed", zap.String("token", token.Hex()), zap.Error(err))
		return nil, err
	}
	e.state = StateKnown
	e.value = new(big.Int).Set(value)
	return new(big.Int).Set(value), nil
}

// Allowance returns the cached allowance and its state.
func (r *Reconciler) Allowance(token, spender common.Address) (*big.Int, State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.allowances[pairKey{token: token, spender: spender}]
	if !ok {
		return nil, StateUnknown
	}
	if e.value == nil {
		return nil, e.state
	}
	return new(big.Int).Set(e.value), e.state
}

// Balance returns the cached balance and its state.
func (r *Reconciler) Balance(token common.Address) (*big.Int, State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.balances[token]
	if !ok {
		return nil, StateUnknown
	}
	if e.value == nil {
		return nil, e.state
	}
	return new(big.Int).Set(e.value), e.state
}

// NeedsApproval reports whether the desired amount exceeds the cached
// allowance. The boolean is only decided (known=true) when the cache holds
// a fresh value or the desired amount is zero; an unknown allowance must
// disable the action, never read as "no approval needed".
func (r *Reconciler) NeedsApproval(token, spender common.Address, desired *big.Int) (needed bool, known bool) {
	if desired == nil || desired.Sign() == 0 {
		return false, true
	}
	value, state := r.Allowance(token, spender)
	if state != StateKnown || value == nil {
		return false, false
	}
	return value.Cmp(desired) < 0, true
}

// Invalidate marks the allowance pair stale after a transaction that could
// have changed it. The next check must re-fetch.
func (r *Reconciler) Invalidate(token, spender common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.allowances[pairKey{token: token, spender: spender}]; ok && e.state == StateKnown {
		e.state = StateStale
	}
}

// InvalidateBalance marks the token balance stale.
func (r *Reconciler) InvalidateBalance(token common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.balances[token]; ok && e.state == StateKnown {
		e.state = StateStale
	}
}
