package repositories

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"equipment-qms/internal/entities"
	"equipment-qms/internal/testutil"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/database"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testDB *database.DB

// TestMain поднимает SQLite в памяти с миграциями и запускает тесты.
func TestMain(m *testing.M) {
	var err error
	testDB, err = testutil.OpenMemoryDB(context.Background())
	if err != nil {
		log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
	}

	code := m.Run()
	_ = testDB.Close()
	os.Exit(code)
}

func newTestRepo(t *testing.T) EquipmentRepositoryInterface {
	t.Helper()
	testutil.CleanupTables(t, testDB)
	return NewEquipmentRepository(testDB, zap.NewNop())
}

func newEquipment(name string) *entities.Equipment {
	now := time.Now().UTC().Truncate(time.Second)
	return &entities.Equipment{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       "Monitor",
		Status:     constants.EquipmentStatusActive,
		Location:   "ICU",
		BaseEntity: types.BaseEntity{CreatedAt: now, UpdatedAt: now},
	}
}

func TestEquipmentRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := newEquipment("Ventilator")
	e.NextInspection = null.TimeFrom(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	e.MaintenanceHistory = []entities.MaintenanceEntry{
		{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Documentation: "Калибровка"},
		{Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), Documentation: "Замена фильтра", Technician: "Иванов"},
	}
	require.NoError(t, repo.CreateEquipment(ctx, e))

	found, err := repo.FindEquipment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ventilator", found.Name)
	assert.Equal(t, constants.EquipmentStatusActive, found.Status)
	assert.False(t, found.LastInspection.Valid)
	require.True(t, found.NextInspection.Valid)
	assert.True(t, found.NextInspection.Time.Equal(e.NextInspection.Time))
	require.Len(t, found.MaintenanceHistory, 2)
	assert.Equal(t, "Калибровка", found.MaintenanceHistory[0].Documentation)
	assert.Equal(t, "Иванов", found.MaintenanceHistory[1].Technician)
}

func TestEquipmentRepository_FindMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindEquipment(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEquipmentRepository_ListKeepsCreationOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	names := []string{"C-arm", "Autoclave", "Defibrillator"}
	for _, n := range names {
		require.NoError(t, repo.CreateEquipment(ctx, newEquipment(n)))
	}

	list, err := repo.GetEquipments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, n := range names {
		assert.Equal(t, n, list[i].Name)
		assert.NotNil(t, list[i].MaintenanceHistory)
	}
}

func TestEquipmentRepository_UpdateAppendKeepsOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := newEquipment("Infusion Pump")
	e.MaintenanceHistory = []entities.MaintenanceEntry{{Date: time.Now().UTC(), Documentation: "первичный осмотр"}}
	require.NoError(t, repo.CreateEquipment(ctx, e))

	updated, err := repo.UpdateEquipment(ctx, e.ID, func(cur *entities.Equipment) (entities.HistoryMode, error) {
		cur.Status = constants.EquipmentStatusMaintenance
		cur.MaintenanceHistory = append(cur.MaintenanceHistory, entities.MaintenanceEntry{
			Date: time.Now().UTC(), Documentation: "Replaced battery",
		})
		return entities.HistoryAppend, nil
	})
	require.NoError(t, err)
	assert.Equal(t, constants.EquipmentStatusMaintenance, updated.Status)

	found, err := repo.FindEquipment(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, found.MaintenanceHistory, 2)
	assert.Equal(t, "первичный осмотр", found.MaintenanceHistory[0].Documentation)
	assert.Equal(t, "Replaced battery", found.MaintenanceHistory[1].Documentation)
}

func TestEquipmentRepository_UpdateReplaceHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := newEquipment("X-Ray")
	e.MaintenanceHistory = []entities.MaintenanceEntry{
		{Date: time.Now().UTC(), Documentation: "a"},
		{Date: time.Now().UTC(), Documentation: "b"},
	}
	require.NoError(t, repo.CreateEquipment(ctx, e))

	_, err := repo.UpdateEquipment(ctx, e.ID, func(cur *entities.Equipment) (entities.HistoryMode, error) {
		cur.MaintenanceHistory = []entities.MaintenanceEntry{{Date: time.Now().UTC(), Documentation: "c"}}
		return entities.HistoryReplace, nil
	})
	require.NoError(t, err)

	found, err := repo.FindEquipment(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, found.MaintenanceHistory, 1)
	assert.Equal(t, "c", found.MaintenanceHistory[0].Documentation)
}

func TestEquipmentRepository_UpdateNoChangesSkipsWrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := newEquipment("Scale")
	require.NoError(t, repo.CreateEquipment(ctx, e))

	got, err := repo.UpdateEquipment(ctx, e.ID, func(cur *entities.Equipment) (entities.HistoryMode, error) {
		cur.Name = "не должно сохраниться"
		return entities.HistoryKeep, apperrors.ErrNoChanges
	})
	require.NoError(t, err)
	assert.Equal(t, "Scale", got.Name)

	found, err := repo.FindEquipment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Scale", found.Name)
	assert.True(t, found.UpdatedAt.Equal(e.UpdatedAt))
}

func TestEquipmentRepository_UpdateFailureLeavesRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := newEquipment("Ultrasound")
	require.NoError(t, repo.CreateEquipment(ctx, e))

	_, err := repo.UpdateEquipment(ctx, e.ID, func(cur *entities.Equipment) (entities.HistoryMode, error) {
		cur.Name = "изменено"
		return entities.HistoryKeep, apperrors.NewValidationError("documentation", "обязательно")
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	found, err := repo.FindEquipment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ultrasound", found.Name)
}

func TestEquipmentRepository_UpdateMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpdateEquipment(context.Background(), uuid.NewString(), func(cur *entities.Equipment) (entities.HistoryMode, error) {
		return entities.HistoryKeep, nil
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEquipmentRepository_ConcurrentAppends(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := newEquipment("Anesthesia Machine")
	require.NoError(t, repo.CreateEquipment(ctx, e))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateEquipment(ctx, e.ID, func(cur *entities.Equipment) (entities.HistoryMode, error) {
				cur.MaintenanceHistory = append(cur.MaintenanceHistory, entities.MaintenanceEntry{
					Date: time.Now().UTC(), Documentation: "осмотр",
				})
				return entities.HistoryAppend, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := repo.FindEquipment(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, found.MaintenanceHistory, workers)
}

func TestEquipmentRepository_DeleteAndCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DashboardCounts{}, counts)

	a := newEquipment("A")
	b := newEquipment("B")
	b.Status = constants.EquipmentStatusMaintenance
	b.MaintenanceHistory = []entities.MaintenanceEntry{{Date: time.Now().UTC(), Documentation: "x"}}
	c := newEquipment("C")
	c.Status = constants.EquipmentStatusInactive
	for _, e := range []*entities.Equipment{a, b, c} {
		require.NoError(t, repo.CreateEquipment(ctx, e))
	}

	counts, err = repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DashboardCounts{Total: 3, Active: 1, Maintenance: 1, Inactive: 1}, counts)

	assert.ErrorIs(t, repo.DeleteEquipment(ctx, uuid.NewString()), apperrors.ErrNotFound)
	require.NoError(t, repo.DeleteEquipment(ctx, b.ID))

	_, err = repo.FindEquipment(ctx, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var left int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM maintenance_entries").Scan(&left))
	assert.Zero(t, left)

	counts, err = repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DashboardCounts{Total: 2, Active: 1, Maintenance: 0, Inactive: 1}, counts)
}
