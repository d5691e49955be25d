package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDesk/internal/model"
)

// Status is the single tagged state of an in-flight action. One action has
// exactly one status at a time; there is no pending-and-succeeded.
type Status int

const (
	StatusIdle Status = iota
	StatusSimulating
	StatusAwaitingSignature
	StatusPending
	StatusConfirming
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSimulating:
		return "simulating"
	case StatusAwaitingSignature:
		return "awaiting-signature"
	case StatusPending:
		return "pending"
	case StatusConfirming:
		return "confirming"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrBusy is returned when an action is started while another is running.
var ErrBusy = errors.New("an action is already in progress")

// Backend executes one contract call: dry-run simulation, signed
// submission, and receipt waiting.
type Backend interface {
	Simulate(ctx context.Context, intent model.CallIntent) (uint64, error)
	Submit(ctx context.Context, intent model.CallIntent, gas uint64) (common.Hash, error)
	WaitReceipt(ctx context.Context, hash common.Hash) (bool, error)
}

// AllowanceSource re-derives approval preconditions from chain truth and
// invalidates caches after confirmed mutations.
type AllowanceSource interface {
	RefreshAllowance(ctx context.Context, token, spender common.Address) (*big.Int, error)
	Invalidate(token, spender common.Address)
	InvalidateBalance(token common.Address)
}

// ApprovalCheck gates a step on a fresh allowance read. When the on-chain
// allowance already covers Need the step is skipped entirely, which makes a
// partially-completed action safe to re-run.
type ApprovalCheck struct {
	Token   common.Address
	Spender common.Address
	Need    *big.Int
}

// Step is one ordered unit of an action. Step N+1 never starts before step
// N's receipt confirms.
type Step struct {
	Name     string
	Approval *ApprovalCheck
	Intent   model.CallIntent
}

// TokenTouch names a cache pair an action may have mutated.
type TokenTouch struct {
	Token   common.Address
	Spender common.Address
}

// Action is an ordered list of steps plus the caches to invalidate once
// the final step confirms.
type Action struct {
	Name    string
	Steps   []Step
	Touches []TokenTouch
}

// Sequencer drives actions step by step with simulate-then-execute
// semantics. A failure at any step resets to Idle with no automatic retry;
// earlier confirmed steps stay on chain and are skipped on the next run
// via their approval checks.
type Sequencer struct {
	backend    Backend
	allowances AllowanceSource
	logger     *zap.Logger

	mu        sync.Mutex
	status    Status
	onStatus  func(action string, status Status)
	onSettled []func()
}

// New builds a sequencer.
func New(backend Backend, allowances AllowanceSource, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		backend:    backend,
		allowances: allowances,
		logger:     logger,
	}
}

// OnStatus registers a status-transition observer.
func (s *Sequencer) OnStatus(fn func(action string, status Status)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// OnSettled registers a refresh hook run after an action fully confirms.
func (s *Sequencer) OnSettled(fn func()) {
	s.mu.Lock()
	s.onSettled = append(s.onSettled, fn)
	s.mu.Unlock()
}

// Status returns the current action status.
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run executes the action's steps strictly in order. On success the
// touched caches are invalidated and settled hooks fire; on failure the
// error carries the failing step. Either way the sequencer returns to Idle
// so the user may retry.
func (s *Sequencer) Run(ctx context.Context, action Action) error {
	if !s.begin() {
		return ErrBusy
	}

	err := s.runSteps(ctx, action)
	if err != nil {
		s.setStatus(action.Name, StatusFailed)
		s.logger.Warn("action failed", zap.String("action", action.Name), zap.Error(err))
	} else {
		s.setStatus(action.Name, StatusSucceeded)
		s.settle(action)
	}

	s.setStatus(action.Name, StatusIdle)
	return err
}

func (s *Sequencer) runSteps(ctx context.Context, action Action) error {
	for _, step := range action.Steps {
		if step.Approval != nil {
			value, err := s.allowances.RefreshAllowance(ctx, step.Approval.Token, step.Approval.Spender)
			if err != nil {
				return fmt.Errorf("step %s: allowance check: %w", step.Name, err)
			}
			if value.Cmp(step.Approval.Need) >= 0 {
				s.logger.Debug("approval already in place, skipping",
					zap.String("step", step.Name),
					zap.String("allowance", value.String()),
				)
				continue
			}
		}

		s.setStatus(action.Name, StatusSimulating)
		gas, err := s.backend.Simulate(ctx, step.Intent)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}

		s.setStatus(action.Name, StatusAwaitingSignature)
		hash, err := s.backend.Submit(ctx, step.Intent, gas)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		s.setStatus(action.Name, StatusPending)

		s.setStatus(action.Name, StatusConfirming)
		ok, err := s.backend.WaitReceipt(ctx, hash)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		if !ok {
			return fmt.Errorf("step %s: transaction %s reverted", step.Name, hash.Hex())
		}

		if step.Approval != nil {
			s.allowances.Invalidate(step.Approval.Token, step.Approval.Spender)
		}
		s.logger.Info("step confirmed", zap.String("action", action.Name), zap.String("step", step.Name), zap.String("tx", hash.Hex()))
	}
	return nil
}

func (s *Sequencer) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle {
		return false
	}
	s.status = StatusSimulating
	return true
}

func (s *Sequencer) settle(action Action) {
	for _, touch := range action.Touches {
		s.allowances.Invalidate(touch.Token, touch.Spender)
		s.allowances.InvalidateBalance(touch.Token)
	}
	s.mu.Lock()
	hooks := append([]func(){}, s.onSettled...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

func (s *Sequencer) setStatus(action string, status Status) {
	s.mu.Lock()
	s.status = status
	fn := s.onStatus
	s.mu.Unlock()
	if fn != nil {
		fn(action, status)
	}
}
