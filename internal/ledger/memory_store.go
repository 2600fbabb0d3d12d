package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation suitable for tests and
// development. Intents survive only for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	intents map[string]PaymentIntent
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{intents: make(map[string]PaymentIntent)}
}

// CreateIntent persists a new intent in pending state.
func (m *MemoryStore) CreateIntent(_ context.Context, intent PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.intents[intent.ID]; exists {
		return fmt.Errorf("ledger: duplicate intent id %s", intent.ID)
	}
	m.intents[intent.ID] = intent
	return nil
}

// GetIntent returns the intent by id.
func (m *MemoryStore) GetIntent(_ context.Context, id string) (PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	intent, ok := m.intents[id]
	if !ok {
		return PaymentIntent{}, ErrNotFound
	}
	return intent, nil
}

// ResolveIntent applies the pending -> terminal transition under the lock,
// mirroring the conditional update the durable backends perform.
func (m *MemoryStore) ResolveIntent(_ context.Context, id string, status Status, txHash string, at time.Time) (PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[id]
	if !ok {
		return PaymentIntent{}, ErrNotFound
	}
	if intent.Status.Terminal() {
		return intent, ErrAlreadyResolved
	}

	intent.Status = status
	intent.TxHash = txHash
	intent.UpdatedAt = at
	m.intents[id] = intent
	return intent, nil
}

// Close implements the Store interface.
func (m *MemoryStore) Close() error { return nil }
