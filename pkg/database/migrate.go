package database

import (
	"context"
	"fmt"
	"io/fs"

	"equipment-qms/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrate накатывает встроенные миграции goose для диалекта соединения.
func Migrate(ctx context.Context, db *DB, logger *zap.Logger) error {
	var (
		dir     string
		dialect goose.Dialect
	)
	switch db.Dialect {
	case DialectPostgres:
		dir, dialect = "postgres", goose.DialectPostgres
	case DialectSQLite:
		dir, dialect = "sqlite", goose.DialectSQLite3
	default:
		return fmt.Errorf("миграции для диалекта %q не поддерживаются", db.Dialect)
	}

	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("применение миграций: %w", err)
	}
	for _, r := range results {
		logger.Info("Миграция применена",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}
