package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// ConnectDB поднимает пул pgx и оборачивает его в *sql.DB для репозиториев и миграций.
func ConnectDB(ctx context.Context, dsn string) (*pgxpool.Pool, *sql.DB, error) {
	dbpool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка создания пула соединений к БД: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("не удалось пинговать БД: %w", err)
	}

	return dbpool, stdlib.OpenDBFromPool(dbpool), nil
}
