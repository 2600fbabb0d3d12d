package audit

import (
	"context"
	"database/sql"
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

// NewPostgresStore creates a new PostgreSQL-backed trail with its own
// connection pool.
func NewPostgresStore(connectionString, tableName string, collector *metrics.Metrics) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
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

// NewPostgresStoreWithDB creates a trail on an existing connection pool so
// the pool can be shared with the payment store.
func NewPostgresStoreWithDB(db *sql.DB, tableName string, collector *metrics.Metrics) (*PostgresStore, error) {
	store := newPostgresStore(db, tableName, collector)
	if err := store.createTable(); err != nil {
		return nil, err
	}
	return store, nil
}

func newPostgresStore(db *sql.DB, tableName string, collector *metrics.Metrics) *PostgresStore {
	if tableName == "" {
		tableName = "api_calls"
	}
	return &PostgresStore{db: db, tableName: tableName, metrics: collector}
}

func (s *PostgresStore) createTable() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			resource_id TEXT NOT NULL,
			method TEXT NOT NULL,
			status INTEGER NOT NULL,
			cache_hit BOOLEAN NOT NULL,
			caller_address TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_%s_caller ON %s(caller_address);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create api calls table: %w", err)
	}
	return nil
}

// Append implements the Store interface.
func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	defer metrics.MeasureDBQuery(s.metrics, "append_call")()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, resource_id, method, status, cache_hit, caller_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.ResourceID, rec.Method, rec.Status, rec.CacheHit, rec.CallerAddress, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api call record: %w", err)
	}
	return nil
}

// List implements the Store interface.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]Record, error) {
	defer metrics.MeasureDBQuery(s.metrics, "list_calls")()
	limit, offset = clampPage(limit, offset)

	query := fmt.Sprintf(`
		SELECT id, resource_id, method, status, cache_hit, caller_address, created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list api call records: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ResourceID, &rec.Method, &rec.Status, &rec.CacheHit, &rec.CallerAddress, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api call record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api call records: %w", err)
	}
	return out, nil
}

// Stats implements the Store interface. Aggregation happens in a single
// query so the counters are mutually consistent.
func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	defer metrics.MeasureDBQuery(s.metrics, "call_stats")()
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE cache_hit),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE status >= 200 AND status < 400)
		FROM %s
	`, s.tableName)

	var stats Stats
	var successes int64
	err := s.db.QueryRowContext(ctx, query, monthStart(now)).Scan(
		&stats.TotalCalls, &stats.CachedCalls, &stats.CallsThisMonth, &successes,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate api call stats: %w", err)
	}
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(successes) / float64(stats.TotalCalls)
		stats.CacheHitRate = float64(stats.CachedCalls) / float64(stats.TotalCalls)
	}
	return stats, nil
}

// Close closes the connection pool when this store owns it.
func (s *PostgresStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
