package repositories

import (
	"context"
	"database/sql"
)

// querier - общее у *sql.DB и *sql.Tx, чтобы одни и те же выборки работали в транзакции и без нее.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
