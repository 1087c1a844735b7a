package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"
)

// Store wraps a database handle with circuit breaker protection.
// SQLite rarely disappears, but a corrupted or locked database file shows
// up as a burst of failing statements; tripping the breaker turns that
// into a health signal instead of a pile of slow errors.
type Store struct {
	cb *CircuitBreaker
	db *sql.DB
}

// StoreConfig returns configuration for the database circuit breaker.
// Opens after 5 consecutive failures, probes again after 15 seconds.
func StoreConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          15 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// NewStore wraps db with a circuit breaker using StoreConfig.
func NewStore(db *sql.DB) *Store {
	return &Store{cb: New(StoreConfig()), db: db}
}

// NewStoreWithConfig wraps db with a circuit breaker using cfg.
func NewStoreWithConfig(db *sql.DB, cfg Config) *Store {
	return &Store{cb: New(cfg), db: db}
}

// QueryContext executes a query through the circuit breaker.
func (s *Store) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*sql.Rows), nil
}

// ExecContext executes a statement through the circuit breaker.
func (s *Store) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(sql.Result), nil
}

// QueryRowContext executes a single-row query.
// sql.Row defers its error until Scan, so the breaker cannot observe the
// outcome here; the row is returned directly.
func (s *Store) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction through the circuit breaker.
func (s *Store) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.BeginTx(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return result.(*sql.Tx), nil
}

// State returns the current breaker state.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

// IsOpen returns true if the breaker is open.
func (s *Store) IsOpen() bool {
	return s.cb.IsOpen()
}

// DB returns the underlying handle, bypassing the breaker.
// Intended for migrations and shutdown only.
func (s *Store) DB() *sql.DB {
	return s.db
}
