package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GridPay/server/internal/metrics"
)

var (
	// ErrNotFound is returned when a payment intent is missing from the store.
	ErrNotFound = errors.New("ledger: payment not found")

	// ErrAlreadyResolved is returned when a conditional transition finds
	// the intent already in a terminal state. Callers read back the
	// persisted record instead of overwriting it.
	ErrAlreadyResolved = errors.New("ledger: payment already resolved")
)

// Store captures the persistence requirements for payment intents.
//
// ResolveIntent is the only mutation after creation and is conditional on
// the current status: the transition applies only while the intent is still
// pending, so concurrent resolutions cannot corrupt the record or reverse a
// terminal state. Implementations must enforce this with an atomic
// conditional update keyed by id and status, never a read-modify-write.
type Store interface {
	// CreateIntent persists a new intent in pending state.
	CreateIntent(ctx context.Context, intent PaymentIntent) error

	// GetIntent returns the intent by id.
	GetIntent(ctx context.Context, id string) (PaymentIntent, error)

	// ResolveIntent transitions the intent from pending to the given
	// terminal status, recording the transaction hash. It returns
	// ErrAlreadyResolved when the intent is already terminal and
	// ErrNotFound when it does not exist.
	ResolveIntent(ctx context.Context, id string, status Status, txHash string, at time.Time) (PaymentIntent, error)

	Close() error
}

// StoreConfig holds storage backend configuration.
type StoreConfig struct {
	Backend         string // "memory", "postgres", or "mongodb"
	PostgresURL     string
	MongoDBURL      string
	MongoDBDatabase string
	TableName       string           // defaults to "payments"
	Metrics         *metrics.Metrics // optional query instrumentation
}

// NewStore creates a Store based on the provided configuration.
func NewStore(cfg StoreConfig) (Store, error) {
	return NewStoreWithDB(cfg, nil)
}

// NewStoreWithDB creates a Store, reusing sharedDB for postgres backends
// when it is non-nil so the connection pool is shared across stores.
func NewStoreWithDB(cfg StoreConfig, sharedDB *sql.DB) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres", "":
		if cfg.PostgresURL == "" && sharedDB == nil {
			if cfg.Backend == "" {
				if cfg.MongoDBURL != "" {
					return NewMongoDBStore(cfg.MongoDBURL, cfg.MongoDBDatabase, cfg.TableName)
				}
				return NewMemoryStore(), nil
			}
			return nil, fmt.Errorf("postgres backend requires postgres_url")
		}
		if sharedDB != nil {
			return NewPostgresStoreWithDB(sharedDB, cfg.TableName, cfg.Metrics)
		}
		return NewPostgresStore(cfg.PostgresURL, cfg.TableName, cfg.Metrics)
	case "mongodb":
		if cfg.MongoDBURL == "" {
			return nil, fmt.Errorf("mongodb backend requires mongodb_url")
		}
		return NewMongoDBStore(cfg.MongoDBURL, cfg.MongoDBDatabase, cfg.TableName)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
