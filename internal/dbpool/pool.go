// Package dbpool owns the single PostgreSQL connection pool shared by
// the payment ledger and the audit trail.
package dbpool

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// SharedPool manages one PostgreSQL connection pool. Both stores use the
// same pool so two subsystems do not hold two sets of connections against
// the same database.
type SharedPool struct {
	db *sql.DB
}

// NewSharedPool opens and verifies a PostgreSQL connection pool.
func NewSharedPool(connectionString string) (*SharedPool, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SharedPool{db: db}, nil
}

// DB returns the underlying *sql.DB for use by the stores.
func (p *SharedPool) DB() *sql.DB {
	return p.db
}

// Close closes the shared connection pool. Called once at shutdown;
// sql.DB.Close is safe to call multiple times.
func (p *SharedPool) Close() error {
	return p.db.Close()
}
