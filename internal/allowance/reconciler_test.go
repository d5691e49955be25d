package allowance

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type fakeReader struct {
	allowance *big.Int
	balance   *big.Int
	err       error
}

func (f *fakeReader) Allowance(_ context.Context, _, _, _ common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeReader) Balance(_ context.Context, _, _ common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.balance), nil
}

var (
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testSpender = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testOwner   = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func TestNeedsApprovalUnknownDisables(t *testing.T) {
	r := New(&fakeReader{}, testOwner, nil)

	needed, known := r.NeedsApproval(testToken, testSpender, big.NewInt(100))
	if known {
		t.Fatalf("unfetched allowance must be unknown")
	}
	if needed {
		t.Fatalf("unknown allowance must never read as approval-needed")
	}
}

func TestNeedsApprovalZeroDesired(t *testing.T) {
	r := New(&fakeReader{}, testOwner, nil)

	needed, known := r.NeedsApproval(testToken, testSpender, big.NewInt(0))
	if !known || needed {
		t.Fatalf("zero desired amount needs no approval: needed=%v known=%v", needed, known)
	}
	needed, known = r.NeedsApproval(testToken, testSpender, nil)
	if !known || needed {
		t.Fatalf("nil desired amount needs no approval: needed=%v known=%v", needed, known)
	}
}

func TestNeedsApprovalAfterRefresh(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(500)}
	r := New(reader, testOwner, nil)

	if _, err := r.RefreshAllowance(context.Background(), testToken, testSpender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, state := r.Allowance(testToken, testSpender)
	if state != StateKnown || value.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("cache mismatch: state=%s value=%s", state, value)
	}

	needed, known := r.NeedsApproval(testToken, testSpender, big.NewInt(501))
	if !known || !needed {
		t.Fatalf("desired above allowance must need approval: needed=%v known=%v", needed, known)
	}
	needed, known = r.NeedsApproval(testToken, testSpender, big.NewInt(500))
	if !known || needed {
		t.Fatalf("desired equal to allowance needs no approval: needed=%v known=%v", needed, known)
	}
}

func TestRefreshFailureReturnsToUnknown(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(500)}
	r := New(reader, testOwner, nil)

	if _, err := r.RefreshAllowance(context.Background(), testToken, testSpender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reader.err = errors.New("rpc down")
	if _, err := r.RefreshAllowance(context.Background(), testToken, testSpender); err == nil {
		t.Fatalf("expected refresh error")
	}

	_, state := r.Allowance(testToken, testSpender)
	if state != StateUnknown {
		t.Fatalf("failed refresh must reset to unknown, got %s", state)
	}
	if _, known := r.NeedsApproval(testToken, testSpender, big.NewInt(1)); known {
		t.Fatalf("check must be undecided after a failed refresh")
	}
}

func TestInvalidateMarksStale(t *testing.T) {
	reader := &fakeReader{allowance: big.NewInt(500)}
	r := New(reader, testOwner, nil)

	if _, err := r.RefreshAllowance(context.Background(), testToken, testSpender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Invalidate(testToken, testSpender)
	_, state := r.Allowance(testToken, testSpender)
	if state != StateStale {
		t.Fatalf("expected stale after invalidate, got %s", state)
	}
	if _, known := r.NeedsApproval(testToken, testSpender, big.NewInt(1)); known {
		t.Fatalf("stale allowance must not decide the check")
	}
}

func TestBalanceLifecycle(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(42)}
	r := New(reader, testOwner, nil)

	if _, state := r.Balance(testToken); state != StateUnknown {
		t.Fatalf("unfetched balance must be unknown, got %s", state)
	}

	if _, err := r.RefreshBalance(context.Background(), testToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, state := r.Balance(testToken)
	if state != StateKnown || value.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("balance mismatch: state=%s value=%s", state, value)
	}

	r.InvalidateBalance(testToken)
	if _, state := r.Balance(testToken); state != StateStale {
		t.Fatalf("expected stale balance, got %s", state)
	}
}
