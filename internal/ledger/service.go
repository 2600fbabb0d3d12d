package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/internal/metrics"
	"github.com/GridPay/server/internal/money"
	"github.com/GridPay/server/internal/multiversx"
)

var (
	// ErrInvalidAmount indicates the amount is not a positive decimal string.
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrInvalidAddress indicates a payer or recipient address is malformed.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrUnknownAccount indicates the payer account does not exist on chain.
	ErrUnknownAccount = errors.New("ledger: payer account not found on chain")

	// ErrOracleUnavailable indicates the status oracle could not be
	// consulted. The intent stays pending; callers retry later.
	ErrOracleUnavailable = errors.New("ledger: status oracle unavailable")
)

// Oracle reports the on-chain status of a transaction hash.
type Oracle interface {
	TransactionStatus(ctx context.Context, txHash string) (multiversx.TxStatus, error)
}

// AccountSource looks up on-chain account state for an address.
type AccountSource interface {
	Account(ctx context.Context, address string) (multiversx.Account, error)
}

// Quote is the caller-facing result of intent creation: the persisted
// intent plus the fee-inclusive total the payer must transfer.
type Quote struct {
	Intent      PaymentIntent
	FeeBps      int64
	TotalAmount string
}

// Config holds payment service settings.
type Config struct {
	// FeeBps is the transaction fee in basis points added on top of the
	// payment amount (10 = 0.1%).
	FeeBps int64

	// OracleTimeout bounds each status oracle query.
	OracleTimeout time.Duration
}

// Service drives the payment intent state machine: create pending, poll
// the external oracle, finalize exactly once.
type Service struct {
	store     Store
	oracle    Oracle
	accounts  AccountSource // nil skips the on-chain payer check
	cfg       Config
	collector *metrics.Metrics
	now       func() time.Time
}

// NewService wires the payment service.
func NewService(store Store, oracle Oracle, accounts AccountSource, cfg Config, collector *metrics.Metrics) *Service {
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 10 * time.Second
	}
	return &Service{
		store:     store,
		oracle:    oracle,
		accounts:  accounts,
		cfg:       cfg,
		collector: collector,
		now:       time.Now,
	}
}

// FeeBps returns the configured fee in basis points.
func (s *Service) FeeBps() int64 { return s.cfg.FeeBps }

// Intent returns the stored intent without consulting the oracle.
func (s *Service) Intent(ctx context.Context, id string) (PaymentIntent, error) {
	return s.store.GetIntent(ctx, id)
}

// CreateIntent validates the request, optionally verifies the payer exists
// on chain, and persists a new pending intent. Validation happens before
// any external call.
func (s *Service) CreateIntent(ctx context.Context, amount, payer, recipient string) (Quote, error) {
	parsed, err := money.ParsePositive(amount)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !multiversx.IsValidAddress(recipient) {
		return Quote{}, fmt.Errorf("%w: recipient %q", ErrInvalidAddress, logger.TruncateAddress(recipient))
	}
	if !multiversx.IsValidAddress(payer) {
		return Quote{}, fmt.Errorf("%w: payer %q", ErrInvalidAddress, logger.TruncateAddress(payer))
	}

	if s.accounts != nil {
		if _, err := s.accounts.Account(ctx, payer); err != nil {
			if errors.Is(err, multiversx.ErrAccountNotFound) {
				return Quote{}, ErrUnknownAccount
			}
			return Quote{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
		}
	}

	now := s.now().UTC()
	intent := PaymentIntent{
		ID:               uuid.NewString(),
		Amount:           parsed.ToMajor(),
		PayerAddress:     payer,
		RecipientAddress: recipient,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateIntent(ctx, intent); err != nil {
		return Quote{}, err
	}

	s.collector.ObservePaymentCreated()
	log := logger.FromContext(ctx)
	log.Info().
		Str("payment_id", intent.ID).
		Str("amount", intent.Amount).
		Str("payer", logger.TruncateAddress(payer)).
		Msg("payment.intent_created")

	return Quote{
		Intent:      intent,
		FeeBps:      s.cfg.FeeBps,
		TotalAmount: parsed.WithFee(s.cfg.FeeBps).ToMajor(),
	}, nil
}

// ResolveIntent reconciles the intent against the status oracle.
//
// A terminal intent is returned as-is without consulting the oracle
// (idempotent). While pending, the oracle is queried for txHash: success
// completes the intent, an executed-but-failed transaction fails it, and a
// still-pending transaction leaves it untouched. An unreachable oracle or
// an unknown status leaves the intent pending and returns
// ErrOracleUnavailable; a transient lookup failure is never allowed to
// force the irreversible failed transition.
func (s *Service) ResolveIntent(ctx context.Context, id, txHash string) (PaymentIntent, error) {
	intent, err := s.store.GetIntent(ctx, id)
	if err != nil {
		return PaymentIntent{}, err
	}
	if intent.Status.Terminal() {
		return intent, nil
	}

	oracleCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	txStatus, err := s.oracle.TransactionStatus(oracleCtx, txHash)
	if err != nil {
		return intent, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	var next Status
	switch txStatus {
	case multiversx.StatusSuccess:
		next = StatusCompleted
	case multiversx.StatusFailed:
		next = StatusFailed
	case multiversx.StatusPending:
		return intent, nil
	default:
		return intent, fmt.Errorf("%w: oracle reported %q", ErrOracleUnavailable, txStatus)
	}

	resolved, err := s.store.ResolveIntent(ctx, id, next, txHash, s.now().UTC())
	if errors.Is(err, ErrAlreadyResolved) {
		// Lost the race against a concurrent resolution; the persisted
		// terminal state wins regardless of arrival order.
		return resolved, nil
	}
	if err != nil {
		return PaymentIntent{}, err
	}

	s.collector.ObservePaymentResolved(string(next))
	log := logger.FromContext(ctx)
	log.Info().
		Str("payment_id", id).
		Str("tx_hash", txHash).
		Str("status", string(next)).
		Msg("payment.intent_resolved")

	return resolved, nil
}
