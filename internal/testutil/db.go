package testutil

import (
	"context"
	"testing"

	"equipment-qms/pkg/database"
	"equipment-qms/pkg/database/sqlite"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// OpenMemoryDB открывает SQLite в памяти и накатывает миграции.
func OpenMemoryDB(ctx context.Context) (*database.DB, error) {
	sqlDB, err := sqlite.Open(sqlite.MemoryPath)
	if err != nil {
		return nil, err
	}
	db := database.New(sqlDB, database.DialectSQLite)
	if err := database.Migrate(ctx, db, zap.NewNop()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewMemoryDB - OpenMemoryDB для отдельного теста, база закрывается по его завершении.
func NewMemoryDB(t testing.TB) *database.DB {
	t.Helper()
	db, err := OpenMemoryDB(context.Background())
	require.NoError(t, err, "Не удалось поднять тестовую БД")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CleanupTables очищает таблицы между тестами на общей базе.
func CleanupTables(t testing.TB, db *database.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), "DELETE FROM maintenance_entries")
	require.NoError(t, err, "Не удалось очистить таблицы")
	_, err = db.ExecContext(context.Background(), "DELETE FROM equipment")
	require.NoError(t, err, "Не удалось очистить таблицы")
}
