package database

import (
	"context"
	"database/sql"
	"fmt"

	"equipment-qms/pkg/config"
	"equipment-qms/pkg/database/postgresql"
	"equipment-qms/pkg/database/sqlite"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DB - соединение с хранилищем вместе с диалектом, под который строятся запросы.
type DB struct {
	*sql.DB
	Dialect Dialect

	closers []func()
}

func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, Dialect: dialect}
}

// Builder возвращает squirrel-билдер с нужным форматом плейсхолдеров.
func (d *DB) Builder() sq.StatementBuilderType {
	if d.Dialect == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// SupportsRowLocks - умеет ли диалект SELECT ... FOR UPDATE.
func (d *DB) SupportsRowLocks() bool {
	return d.Dialect == DialectPostgres
}

func (d *DB) Close() error {
	err := d.DB.Close()
	for _, c := range d.closers {
		c()
	}
	return err
}

// Open подключается к хранилищу, выбранному в конфиге.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	switch Dialect(cfg.Driver) {
	case DialectPostgres:
		pool, sqlDB, err := postgresql.ConnectDB(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("✅ Подключено к PostgreSQL")
		db := New(sqlDB, DialectPostgres)
		db.closers = append(db.closers, pool.Close)
		return db, nil
	case DialectSQLite:
		sqlDB, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("✅ Подключено к SQLite", zap.String("path", cfg.SQLitePath))
		return New(sqlDB, DialectSQLite), nil
	default:
		return nil, fmt.Errorf("неизвестный драйвер БД: %q", cfg.Driver)
	}
}
