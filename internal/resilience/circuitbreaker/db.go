package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"
)

// Querier is the subset of *sql.DB the SQL article stores use. Both *sql.DB
// and *DBCircuitBreaker implement it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DBConfig is the article store breaker: five straight connectivity failures
// open it for thirty seconds. Constraint violations and missing rows are
// answers from a healthy store and never count.
func DBConfig() Config {
	return Config{
		Name:             "article-store",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
		IsSuccessful: func(err error) bool {
			return err == nil || !IsUnavailable(err)
		},
	}
}

// DBCircuitBreaker guards a database connection. Once the store has failed
// repeatedly, calls fail fast with gobreaker.ErrOpenState, which Classify
// reports as store unavailable.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// NewDBCircuitBreaker wraps db with DBConfig.
func NewDBCircuitBreaker(db *sql.DB) *DBCircuitBreaker {
	return NewDBCircuitBreakerWithConfig(db, DBConfig())
}

func NewDBCircuitBreakerWithConfig(db *sql.DB, cfg Config) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(cfg), db: db}
}

func (d *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	v, err := d.cb.Execute(func() (any, error) {
		return d.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.Rows), nil
}

func (d *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	v, err := d.cb.Execute(func() (any, error) {
		return d.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return v.(sql.Result), nil
}

// QueryRowContext bypasses the breaker: sql.Row defers its error to Scan, so
// the outcome is not observable here. Lookups that must fail fast use
// QueryContext.
func (d *DBCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// PingContext checks connectivity through the breaker; health checks use it.
func (d *DBCircuitBreaker) PingContext(ctx context.Context) error {
	_, err := d.cb.Execute(func() (any, error) {
		return nil, d.db.PingContext(ctx)
	})
	return err
}

func (d *DBCircuitBreaker) State() gobreaker.State { return d.cb.State() }

func (d *DBCircuitBreaker) IsOpen() bool { return d.cb.IsOpen() }

// DB returns the unguarded connection, e.g. for pool statistics.
func (d *DBCircuitBreaker) DB() *sql.DB { return d.db }
