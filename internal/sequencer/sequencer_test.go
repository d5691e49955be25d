package sequencer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"liquidityDesk/internal/model"
)

type fakeBackend struct {
	mu          sync.Mutex
	submitted   []model.CallIntent
	simulateErr error
	failSubmit  int // 1-based submit index that fails, 0 means never
	revertAt    int // 1-based submit index whose receipt reverts

	started chan struct{}
	release chan struct{}
}

func (b *fakeBackend) Simulate(_ context.Context, _ model.CallIntent) (uint64, error) {
	if b.started != nil {
		b.started <- struct{}{}
		<-b.release
	}
	if b.simulateErr != nil {
		return 0, b.simulateErr
	}
	return 21000, nil
}

func (b *fakeBackend) Submit(_ context.Context, intent model.CallIntent, _ uint64) (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSubmit > 0 && len(b.submitted)+1 == b.failSubmit {
		return common.Hash{}, errors.New("broadcast failed")
	}
	b.submitted = append(b.submitted, intent)
	return common.BigToHash(big.NewInt(int64(len(b.submitted)))), nil
}

func (b *fakeBackend) WaitReceipt(_ context.Context, hash common.Hash) (bool, error) {
	if b.revertAt > 0 && hash == common.BigToHash(big.NewInt(int64(b.revertAt))) {
		return false, nil
	}
	return true, nil
}

func (b *fakeBackend) submitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.submitted)
}

type fakeAllowances struct {
	mu                  sync.Mutex
	values              map[common.Address]*big.Int
	refreshErr          error
	invalidated         []common.Address
	invalidatedBalances []common.Address
}

func (a *fakeAllowances) RefreshAllowance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if value, ok := a.values[token]; ok {
		return new(big.Int).Set(value), nil
	}
	return new(big.Int), nil
}

func (a *fakeAllowances) Invalidate(token, _ common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidated = append(a.invalidated, token)
}

func (a *fakeAllowances) InvalidateBalance(token common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidatedBalances = append(a.invalidatedBalances, token)
}

func (a *fakeAllowances) setValue(token common.Address, value *big.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values == nil {
		a.values = make(map[common.Address]*big.Int)
	}
	a.values[token] = value
}

var (
	tokenAddr   = common.HexToAddress("0x0000000000000000000000000000000000000aaa")
	spenderAddr = common.HexToAddress("0x0000000000000000000000000000000000000bbb")
)

func approvedAction(need *big.Int) Action {
	return Action{
		Name: "test-action",
		Steps: []Step{
			{
				Name:     "approve",
				Approval: &ApprovalCheck{Token: tokenAddr, Spender: spenderAddr, Need: need},
				Intent:   model.CallIntent{To: tokenAddr, Data: []byte{0x01}},
			},
			{
				Name:   "execute",
				Intent: model.CallIntent{To: spenderAddr, Data: []byte{0x02}},
			},
		},
		Touches: []TokenTouch{{Token: tokenAddr, Spender: spenderAddr}},
	}
}

func TestRunSkipsSatisfiedApproval(t *testing.T) {
	backend := &fakeBackend{}
	allowances := &fakeAllowances{}
	allowances.setValue(tokenAddr, big.NewInt(1000))

	seq := New(backend, allowances, nil)
	err := seq.Run(context.Background(), approvedAction(big.NewInt(500)))
	require.NoError(t, err)

	// Only the execute step reaches the chain.
	require.Equal(t, 1, backend.submitCount())
	require.Equal(t, []byte{0x02}, backend.submitted[0].Data)
}

func TestRunExecutesApprovalWhenShort(t *testing.T) {
	backend := &fakeBackend{}
	allowances := &fakeAllowances{}
	allowances.setValue(tokenAddr, big.NewInt(10))

	seq := New(backend, allowances, nil)
	err := seq.Run(context.Background(), approvedAction(big.NewInt(500)))
	require.NoError(t, err)

	require.Equal(t, 2, backend.submitCount())
	// Approval cache invalidated after the approve confirms, and again with
	// balances when the action settles.
	require.Contains(t, allowances.invalidated, tokenAddr)
	require.Contains(t, allowances.invalidatedBalances, tokenAddr)
}

func TestRunStatusSequence(t *testing.T) {
	backend := &fakeBackend{}
	allowances := &fakeAllowances{}
	seq := New(backend, allowances, nil)

	var statuses []Status
	seq.OnStatus(func(_ string, status Status) {
		statuses = append(statuses, status)
	})

	action := Action{
		Name:  "single",
		Steps: []Step{{Name: "only", Intent: model.CallIntent{To: spenderAddr}}},
	}
	require.NoError(t, seq.Run(context.Background(), action))

	want := []Status{
		StatusSimulating,
		StatusAwaitingSignature,
		StatusPending,
		StatusConfirming,
		StatusSucceeded,
		StatusIdle,
	}
	require.Equal(t, want, statuses)
	require.Equal(t, StatusIdle, seq.Status())
}

func TestRunFailureResetsToIdle(t *testing.T) {
	backend := &fakeBackend{simulateErr: errors.New("execution reverted")}
	seq := New(backend, &fakeAllowances{}, nil)

	settled := false
	seq.OnSettled(func() { settled = true })

	action := Action{
		Name:  "failing",
		Steps: []Step{{Name: "only", Intent: model.CallIntent{To: spenderAddr}}},
	}
	err := seq.Run(context.Background(), action)
	require.Error(t, err)
	require.ErrorContains(t, err, "only")

	require.Equal(t, StatusIdle, seq.Status())
	require.False(t, settled, "failed actions must not settle")
	require.Equal(t, 0, backend.submitCount())
}

func TestRunRevertedReceiptFails(t *testing.T) {
	backend := &fakeBackend{revertAt: 1}
	seq := New(backend, &fakeAllowances{}, nil)

	action := Action{
		Name:  "reverting",
		Steps: []Step{{Name: "only", Intent: model.CallIntent{To: spenderAddr}}},
	}
	err := seq.Run(context.Background(), action)
	require.Error(t, err)
	require.ErrorContains(t, err, "reverted")
	require.Equal(t, StatusIdle, seq.Status())
}

func TestRunSettledHooksFire(t *testing.T) {
	backend := &fakeBackend{}
	seq := New(backend, &fakeAllowances{}, nil)

	calls := 0
	seq.OnSettled(func() { calls++ })
	seq.OnSettled(func() { calls++ })

	action := Action{
		Name:  "ok",
		Steps: []Step{{Name: "only", Intent: model.CallIntent{To: spenderAddr}}},
	}
	require.NoError(t, seq.Run(context.Background(), action))
	require.Equal(t, 2, calls)
}

func TestRunRejectsConcurrentAction(t *testing.T) {
	backend := &fakeBackend{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	seq := New(backend, &fakeAllowances{}, nil)

	action := Action{
		Name:  "slow",
		Steps: []Step{{Name: "only", Intent: model.CallIntent{To: spenderAddr}}},
	}

	done := make(chan error, 1)
	go func() {
		done <- seq.Run(context.Background(), action)
	}()

	<-backend.started
	err := seq.Run(context.Background(), action)
	require.ErrorIs(t, err, ErrBusy)

	close(backend.release)
	require.NoError(t, <-done)
}

func TestRerunSkipsConfirmedApproval(t *testing.T) {
	backend := &fakeBackend{failSubmit: 2}
	allowances := &fakeAllowances{}
	allowances.setValue(tokenAddr, big.NewInt(0))

	seq := New(backend, allowances, nil)
	action := approvedAction(big.NewInt(500))

	// First run confirms the approval, then fails at the execute step.
	err := seq.Run(context.Background(), action)
	require.Error(t, err)
	require.Equal(t, 1, backend.submitCount())

	// The confirmed approval is now on chain; a re-run re-reads it fresh
	// and goes straight to the execute step.
	allowances.setValue(tokenAddr, big.NewInt(1000))
	backend.failSubmit = 0
	require.NoError(t, seq.Run(context.Background(), action))
	require.Equal(t, 2, backend.submitCount())
	require.Equal(t, []byte{0x02}, backend.submitted[1].Data)
}
