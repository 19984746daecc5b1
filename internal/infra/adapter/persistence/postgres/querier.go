// Package postgres implements the repository interfaces on PostgreSQL.
// Queries run through a Querier, which is satisfied both by *sql.DB and by
// the database circuit breaker guard, so callers choose whether database
// calls fail fast during an outage.
package postgres

import (
	"context"
	"database/sql"
)

// Querier is the subset of database operations the repositories need.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
