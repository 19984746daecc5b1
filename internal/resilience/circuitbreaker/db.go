package circuitbreaker

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// DBConfig holds configuration for the database circuit breaker.
//
// Unlike the consecutive-failure breaker in this package, database calls are
// guarded by a windowed failure-ratio breaker (gobreaker): individual query
// errors such as constraint violations must not trip the circuit, only a
// sustained error rate indicating the database itself is unhealthy.
type DBConfig struct {
	// MaxRequests is the number of trial requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state used to clear counts.
	Interval time.Duration

	// Timeout is how long to wait in open state before trial requests.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit.
	FailureThreshold float64

	// MinRequests is the minimum request count before the ratio is evaluated.
	MinRequests uint32
}

// DefaultDBConfig returns configuration tuned for the clinical database:
// trip only on a full window of failures, recover after 30 seconds.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// DBGuard wraps a database handle with circuit breaker protection so that a
// down or thrashing database fails fast instead of piling up connections.
type DBGuard struct {
	breaker *gobreaker.CircuitBreaker
	db      *sql.DB
}

// NewDBGuard creates a database guard around db with the given configuration.
func NewDBGuard(db *sql.DB, cfg DBConfig) *DBGuard {
	settings := gobreaker.Settings{
		Name:        "database",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("database circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &DBGuard{
		breaker: gobreaker.NewCircuitBreaker(settings),
		db:      db,
	}
}

// QueryContext executes a query with circuit breaker protection. If the
// circuit is open it returns gobreaker.ErrOpenState without touching the
// database.
func (g *DBGuard) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*sql.Rows), nil
}

// ExecContext executes a statement with circuit breaker protection.
func (g *DBGuard) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(sql.Result), nil
}

// QueryRowContext executes a single-row query. sql.Row defers its error to
// Scan, so this path cannot participate in failure counting and passes
// through to the underlying handle.
func (g *DBGuard) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return g.db.QueryRowContext(ctx, query, args...)
}

// State returns the current state of the database circuit breaker.
func (g *DBGuard) State() gobreaker.State {
	return g.breaker.State()
}

// IsOpen reports whether the database circuit breaker is open.
func (g *DBGuard) IsOpen() bool {
	return g.breaker.State() == gobreaker.StateOpen
}

// DB returns the underlying database handle for operations that must bypass
// the breaker (e.g., shutdown).
func (g *DBGuard) DB() *sql.DB {
	return g.db
}
