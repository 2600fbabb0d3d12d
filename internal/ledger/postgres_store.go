package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/GridPay/server/internal/metrics"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db        *sql.DB
	ownsDB    bool
	tableName string
	metrics   *metrics.Metrics
}

// NewPostgresStore creates a new PostgreSQL-backed store with its own
// connection pool.
func NewPostgresStore(connectionString, tableName string, collector *metrics.Metrics) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		// Close() error during initialization cleanup is not actionable
		// and would only obscure the connection failure.
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := newPostgresStore(db, tableName, collector)
	store.ownsDB = true
	if err := store.createTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithDB creates a store on an existing connection pool so
// the pool can be shared with the audit store.
func NewPostgresStoreWithDB(db *sql.DB, tableName string, collector *metrics.Metrics) (*PostgresStore, error) {
	store := newPostgresStore(db, tableName, collector)
	if err := store.createTable(); err != nil {
		return nil, err
	}
	return store, nil
}

func newPostgresStore(db *sql.DB, tableName string, collector *metrics.Metrics) *PostgresStore {
	if tableName == "" {
		tableName = "payments"
	}
	return &PostgresStore{db: db, tableName: tableName, metrics: collector}
}

func (s *PostgresStore) createTable() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			payer_address TEXT NOT NULL,
			recipient_address TEXT NOT NULL,
			status TEXT NOT NULL,
			tx_hash TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_status ON %s(status);
		CREATE INDEX IF NOT EXISTS idx_%s_payer ON %s(payer_address);
		CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at DESC);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create payments table: %w", err)
	}
	return nil
}

// CreateIntent persists a new intent in pending state.
func (s *PostgresStore) CreateIntent(ctx context.Context, intent PaymentIntent) error {
	defer metrics.MeasureDBQuery(s.metrics, "create_intent")()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, amount, payer_address, recipient_address, status, tx_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query,
		intent.ID, intent.Amount, intent.PayerAddress, intent.RecipientAddress,
		string(intent.Status), intent.TxHash, intent.CreatedAt, intent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}

// GetIntent returns the intent by id.
func (s *PostgresStore) GetIntent(ctx context.Context, id string) (PaymentIntent, error) {
	defer metrics.MeasureDBQuery(s.metrics, "get_intent")()
	query := fmt.Sprintf(`
		SELECT id, amount, payer_address, recipient_address, status, COALESCE(tx_hash, ''), created_at, updated_at
		FROM %s WHERE id = $1
	`, s.tableName)

	return s.scanIntent(s.db.QueryRowContext(ctx, query, id))
}

// ResolveIntent transitions the intent from pending to a terminal status.
// The transition is a single conditional UPDATE keyed by id and current
// status, so a concurrent resolution cannot overwrite a terminal record.
func (s *PostgresStore) ResolveIntent(ctx context.Context, id string, status Status, txHash string, at time.Time) (PaymentIntent, error) {
	defer metrics.MeasureDBQuery(s.metrics, "resolve_intent")()
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, tx_hash = NULLIF($3, ''), updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING id, amount, payer_address, recipient_address, status, COALESCE(tx_hash, ''), created_at, updated_at
	`, s.tableName)

	intent, err := s.scanIntent(s.db.QueryRowContext(ctx, query, id, string(status), txHash, at, string(StatusPending)))
	if err == nil {
		return intent, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return PaymentIntent{}, err
	}

	// The conditional update matched nothing: either the intent does not
	// exist or it is already terminal.
	existing, getErr := s.GetIntent(ctx, id)
	if getErr != nil {
		return PaymentIntent{}, getErr
	}
	if existing.Status.Terminal() {
		return existing, ErrAlreadyResolved
	}
	return PaymentIntent{}, fmt.Errorf("resolve payment intent %s: conditional update matched nothing", id)
}

func (s *PostgresStore) scanIntent(row *sql.Row) (PaymentIntent, error) {
	var intent PaymentIntent
	var status string
	err := row.Scan(
		&intent.ID, &intent.Amount, &intent.PayerAddress, &intent.RecipientAddress,
		&status, &intent.TxHash, &intent.CreatedAt, &intent.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return PaymentIntent{}, ErrNotFound
	}
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("scan payment intent: %w", err)
	}
	intent.Status = Status(status)
	return intent, nil
}

// Close closes the connection pool when this store owns it.
func (s *PostgresStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
