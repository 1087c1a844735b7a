// Package sqlite implements the repository interfaces on SQLite.
package sqlite

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the repositories need. It is satisfied
// by *sql.DB and by *circuitbreaker.Store, so callers choose whether queries
// run through the breaker.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
