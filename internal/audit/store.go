package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GridPay/server/internal/metrics"
)

// ErrUnavailable indicates the trail backend could not serve the request.
var ErrUnavailable = errors.New("audit: store unavailable")

// Store persists the call trail.
type Store interface {
	// Append adds one record. Appends never modify existing records.
	Append(ctx context.Context, rec Record) error

	// List returns records newest-first, paginated by limit and offset.
	List(ctx context.Context, limit, offset int) ([]Record, error)

	// Stats aggregates the whole trail relative to now.
	Stats(ctx context.Context, now time.Time) (Stats, error)

	Close() error
}

// StoreConfig holds trail backend configuration.
type StoreConfig struct {
	Backend         string // "memory", "postgres", or "mongodb"
	PostgresURL     string
	MongoDBURL      string
	MongoDBDatabase string
	TableName       string           // defaults to "api_calls"
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

// clampPage normalizes pagination inputs. Limit defaults to 50 and is
// capped at 500 so a dashboard query cannot drag the whole table over.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
