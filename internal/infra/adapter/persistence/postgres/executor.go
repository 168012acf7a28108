package postgres

import (
	"context"
	"database/sql"
)

// executor is the subset of *sql.DB the repositories need. It is also
// satisfied by circuitbreaker.DBCircuitBreaker, so callers can wrap the
// connection pool with breaker protection without the repositories knowing.
type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
