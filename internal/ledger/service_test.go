package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GridPay/server/internal/multiversx"
)

var (
	payerAddr     = "erd1" + strings.Repeat("p", 58)
	recipientAddr = "erd1" + strings.Repeat("r", 58)
)

// fakeOracle counts queries and returns a scripted status.
type fakeOracle struct {
	status multiversx.TxStatus
	err    error
	calls  int
}

func (f *fakeOracle) TransactionStatus(context.Context, string) (multiversx.TxStatus, error) {
	f.calls++
	if f.err != nil {
		return multiversx.StatusUnknown, f.err
	}
	return f.status, nil
}

func newTestService(oracle Oracle) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	svc := NewService(store, oracle, nil, Config{FeeBps: 10}, nil)
	return svc, store
}

func TestCreateIntent(t *testing.T) {
	svc, _ := newTestService(&fakeOracle{})

	quote, err := svc.CreateIntent(context.Background(), "0.5", payerAddr, recipientAddr)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if quote.Intent.Status != StatusPending {
		t.Errorf("status = %s, want pending", quote.Intent.Status)
	}
	if quote.Intent.Amount != "0.5" {
		t.Errorf("amount = %q, want 0.5", quote.Intent.Amount)
	}
	if quote.TotalAmount != "0.5005" {
		t.Errorf("totalAmount = %q, want 0.5005 (0.1%% fee)", quote.TotalAmount)
	}
	if quote.Intent.ID == "" {
		t.Error("intent id must be generated")
	}
}

func TestCreateIntentValidation(t *testing.T) {
	svc, _ := newTestService(&fakeOracle{})
	ctx := context.Background()

	tests := []struct {
		name                     string
		amount, payer, recipient string
		wantErr                  error
	}{
		{"zero amount", "0", payerAddr, recipientAddr, ErrInvalidAmount},
		{"negative amount", "-1", payerAddr, recipientAddr, ErrInvalidAmount},
		{"float garbage", "0.5.5", payerAddr, recipientAddr, ErrInvalidAmount},
		{"bad payer", "0.5", "erd1short", recipientAddr, ErrInvalidAddress},
		{"bad recipient", "0.5", payerAddr, "not-an-address", ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateIntent(ctx, tt.amount, tt.payer, tt.recipient); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateIntentRejectsBeforeExternalCalls(t *testing.T) {
	// An accounts source that must never be consulted for invalid input.
	accounts := &countingAccounts{}
	store := NewMemoryStore()
	svc := NewService(store, &fakeOracle{}, accounts, Config{FeeBps: 10}, nil)

	if _, err := svc.CreateIntent(context.Background(), "bogus", payerAddr, recipientAddr); err == nil {
		t.Fatal("expected validation error")
	}
	if accounts.calls != 0 {
		t.Errorf("accounts consulted %d times during validation failure, want 0", accounts.calls)
	}
}

type countingAccounts struct {
	err   error
	calls int
}

func (c *countingAccounts) Account(context.Context, string) (multiversx.Account, error) {
	c.calls++
	return multiversx.Account{}, c.err
}

func TestCreateIntentUnknownPayerAccount(t *testing.T) {
	accounts := &countingAccounts{err: multiversx.ErrAccountNotFound}
	svc := NewService(NewMemoryStore(), &fakeOracle{}, accounts, Config{FeeBps: 10}, nil)

	if _, err := svc.CreateIntent(context.Background(), "0.5", payerAddr, recipientAddr); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("err = %v, want ErrUnknownAccount", err)
	}
}

func TestResolveIntentSuccess(t *testing.T) {
	oracle := &fakeOracle{status: multiversx.StatusSuccess}
	svc, _ := newTestService(oracle)
	ctx := context.Background()

	quote, _ := svc.CreateIntent(ctx, "0.5", payerAddr, recipientAddr)

	resolved, err := svc.ResolveIntent(ctx, quote.Intent.ID, "txhash1")
	if err != nil {
		t.Fatalf("ResolveIntent: %v", err)
	}
	if resolved.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", resolved.Status)
	}
	if resolved.TxHash != "txhash1" {
		t.Errorf("txHash = %q, want txhash1", resolved.TxHash)
	}
}

func TestResolveIntentFailedTransaction(t *testing.T) {
	oracle := &fakeOracle{status: multiversx.StatusFailed}
	svc, _ := newTestService(oracle)
	ctx := context.Background()

	quote, _ := svc.CreateIntent(ctx, "1", payerAddr, recipientAddr)

	resolved, err := svc.ResolveIntent(ctx, quote.Intent.ID, "txhash2")
	if err != nil {
		t.Fatalf("ResolveIntent: %v", err)
	}
	if resolved.Status != StatusFailed {
		t.Errorf("status = %s, want failed", resolved.Status)
	}
}

func TestResolveIntentIdempotent(t *testing.T) {
	oracle := &fakeOracle{status: multiversx.StatusSuccess}
	svc, _ := newTestService(oracle)
	ctx := context.Background()

	quote, _ := svc.CreateIntent(ctx, "0.5", payerAddr, recipientAddr)

	first, err := svc.ResolveIntent(ctx, quote.Intent.ID, "txhash3")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ResolveIntent(ctx, quote.Intent.ID, "txhash3")
	if err != nil {
		t.Fatal(err)
	}

	if first.Status != second.Status || first.TxHash != second.TxHash || first.UpdatedAt != second.UpdatedAt {
		t.Errorf("repeated resolution changed the record: %+v vs %+v", first, second)
	}
	if oracle.calls != 1 {
		t.Errorf("oracle queried %d times, want 1 (terminal intents skip the oracle)", oracle.calls)
	}
}

func TestResolveIntentOracleUnreachableStaysPending(t *testing.T) {
	oracle := &fakeOracle{err: multiversx.ErrUnavailable}
	svc, store := newTestService(oracle)
	ctx := context.Background()

	quote, _ := svc.CreateIntent(ctx, "0.5", payerAddr, recipientAddr)

	_, err := svc.ResolveIntent(ctx, quote.Intent.ID, "txhash4")
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}

	// The transient failure must not have caused a terminal transition.
	intent, _ := store.GetIntent(ctx, quote.Intent.ID)
	if intent.Status != StatusPending {
		t.Errorf("status = %s, want pending after transient oracle failure", intent.Status)
	}
}

func TestResolveIntentUnknownStatusStaysPending(t *testing.T) {
	oracle := &fakeOracle{status: multiversx.StatusUnknown}
	svc, store := newTestService(oracle)
	ctx := context.Background()

	quote, _ := svc.CreateIntent(ctx, "0.5", payerAddr, recipientAddr)

	if _, err := svc.ResolveIntent(ctx, quote.Intent.ID, "tx"); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}
	intent, _ := store.GetIntent(ctx, quote.Intent.ID)
	if intent.Status != StatusPending {
		t.Errorf("status = %s, want pending", intent.Status)
	}
}

func TestResolveIntentStillPendingOnChain(t *testing.T) {
	oracle := &fakeOracle{status: multiversx.StatusPending}
	svc, _ := newTestService(oracle)
	ctx := context.Background()

	quote, _ := svc.CreateIntent(ctx, "0.5", payerAddr, recipientAddr)

	intent, err := svc.ResolveIntent(ctx, quote.Intent.ID, "tx")
	if err != nil {
		t.Fatalf("a pending on-chain transaction is not an error: %v", err)
	}
	if intent.Status != StatusPending {
		t.Errorf("status = %s, want pending", intent.Status)
	}
}

func TestResolveIntentNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeOracle{})
	if _, err := svc.ResolveIntent(context.Background(), "nope", "tx"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
