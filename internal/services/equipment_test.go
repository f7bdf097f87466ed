package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/events"
	"equipment-qms/internal/repositories"
	"equipment-qms/internal/testutil"
	"equipment-qms/pkg/constants"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// recordingCache считает увеличения версии сводки.
type recordingCache struct {
	repositories.CacheRepositoryInterface
	mu    sync.Mutex
	bumps map[string]int64
}

func (c *recordingCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bumps == nil {
		c.bumps = map[string]int64{}
	}
	c.bumps[key]++
	return c.bumps[key], nil
}

func (c *recordingCache) versionBumps() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bumps[constants.DashboardVersionCacheKey]
}

type serviceFixture struct {
	service EquipmentServiceInterface
	repo    repositories.EquipmentRepositoryInterface
	cache   *recordingCache
	bus     *eventbus.Bus

	mu      sync.Mutex
	actions []string
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.NewMemoryDB(t)

	f := &serviceFixture{
		repo:  repositories.NewEquipmentRepository(db, logger),
		cache: &recordingCache{CacheRepositoryInterface: repositories.NewNoopCacheRepository()},
		bus:   eventbus.New(logger),
	}
	f.bus.Subscribe(events.EquipmentChangedEventName, func(_ context.Context, e eventbus.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.actions = append(f.actions, e.(events.EquipmentChangedEvent).Action)
		return nil
	})
	f.service = NewEquipmentService(f.repo, f.cache, f.bus, NewLifecyclePolicy(time.UTC, 3), fixedClock, logger)
	return f
}

func (f *serviceFixture) publishedActions(t *testing.T) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.bus.Wait(ctx))

	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

func TestEquipmentService_InfusionPumpLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateEquipment(ctx, dto.CreateEquipmentDTO{
		Name:           "Infusion Pump",
		Type:           "Pump",
		Location:       "Ward 3",
		NextInspection: dto.DateValue("2025-01-20"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, constants.EquipmentStatusActive.String(), created.Status, "статус по умолчанию")
	assert.Empty(t, created.MaintenanceHistory)
	assert.NotNil(t, created.MaintenanceHistory)

	inMaintenance, err := f.service.ChangeStatus(ctx, created.ID, dto.ChangeStatusDTO{Status: "Maintenance"})
	require.NoError(t, err)
	assert.Equal(t, "Maintenance", inMaintenance.Status)
	assert.False(t, inMaintenance.LastInspection.Valid)

	done, err := f.service.CompleteMaintenance(ctx, created.ID, dto.CompleteMaintenanceDTO{
		Documentation: "Replaced battery",
		Technician:    "Сидоров",
	})
	require.NoError(t, err)
	assert.Equal(t, "Active", done.Status)
	require.Len(t, done.MaintenanceHistory, 1)
	assert.Equal(t, "Replaced battery", done.MaintenanceHistory[0].Documentation)
	require.True(t, done.LastInspection.Valid)
	assert.True(t, done.LastInspection.Time.Equal(fixedNow))
	assert.True(t, done.NextInspection.Time.Equal(time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)))

	stored, err := f.service.FindEquipment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ward 3", stored.Location)
	require.Len(t, stored.MaintenanceHistory, 1)
	assert.True(t, stored.MaintenanceHistory[0].Date.Equal(stored.LastInspection.Time))

	// Слушатели асинхронные, порядок доставки не гарантирован
	assert.ElementsMatch(t, []string{
		events.ActionCreated,
		events.ActionStatusChanged,
		events.ActionMaintenanceComplete,
	}, f.publishedActions(t))
	assert.Equal(t, int64(3), f.cache.versionBumps())
}

func TestEquipmentService_ChangeStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "ECG", Type: "Monitor", Status: "Maintenance"})
	require.NoError(t, err)

	t.Run("Тот же статус ничего не пишет", func(t *testing.T) {
		same, err := f.service.ChangeStatus(ctx, created.ID, dto.ChangeStatusDTO{Status: "Maintenance"})
		require.NoError(t, err)
		assert.True(t, same.UpdatedAt.Equal(created.UpdatedAt))
		assert.Equal(t, int64(1), f.cache.versionBumps(), "кеш сводки не сбрасывается")
	})

	t.Run("Maintenance -> Active отмечает проверку", func(t *testing.T) {
		active, err := f.service.ChangeStatus(ctx, created.ID, dto.ChangeStatusDTO{Status: "Active"})
		require.NoError(t, err)
		require.True(t, active.LastInspection.Valid)
		assert.True(t, active.LastInspection.Time.Equal(fixedNow))
		assert.Empty(t, active.MaintenanceHistory, "смена статуса не пишет журнал")
	})

	t.Run("Неизвестный статус", func(t *testing.T) {
		_, err := f.service.ChangeStatus(ctx, created.ID, dto.ChangeStatusDTO{Status: "Broken"})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("Несуществующая запись", func(t *testing.T) {
		_, err := f.service.ChangeStatus(ctx, "missing", dto.ChangeStatusDTO{Status: "Inactive"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	assert.ElementsMatch(t, []string{events.ActionCreated, events.ActionStatusChanged}, f.publishedActions(t))
}

func TestEquipmentService_CreateValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	cases := map[string]dto.CreateEquipmentDTO{
		"без названия":     {Type: "Pump"},
		"без типа":         {Name: "Pump"},
		"пробелы":          {Name: "  ", Type: "Pump"},
		"плохой статус":    {Name: "Pump", Type: "Pump", Status: "Broken"},
		"плохая дата":      {Name: "Pump", Type: "Pump", NextInspection: dto.DateValue("15.01.2025")},
		"плохая дата лога": {Name: "Pump", Type: "Pump", MaintenanceHistory: []dto.MaintenanceEntryInputDTO{{Date: dto.DateValue("вчера")}}},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.CreateEquipment(ctx, payload)
			assert.True(t, apperrors.IsValidation(err), "ожидалась ошибка валидации, получено %v", err)
		})
	}

	list, err := f.service.GetEquipments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEquipmentService_UpdateEquipment(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	doc := "Первичная установка"
	created, err := f.service.CreateEquipment(ctx, dto.CreateEquipmentDTO{
		Name:               "Defibrillator",
		Type:               "Emergency",
		Location:           "ER",
		NextInspection:     dto.DateValue("2025-02-01"),
		MaintenanceHistory: []dto.MaintenanceEntryInputDTO{{Documentation: &doc}},
	})
	require.NoError(t, err)
	require.Len(t, created.MaintenanceHistory, 1)
	assert.True(t, created.MaintenanceHistory[0].Date.Equal(fixedNow), "дата записи по умолчанию - сейчас")

	t.Run("Присланные поля применяются, остальные не трогаются", func(t *testing.T) {
		location := "ICU"
		updated, err := f.service.UpdateEquipment(ctx, created.ID, dto.UpdateEquipmentDTO{
			Location:       &location,
			NextInspection: dto.DateNull(),
		})
		require.NoError(t, err)
		assert.Equal(t, "ICU", updated.Location)
		assert.Equal(t, "Defibrillator", updated.Name)
		assert.False(t, updated.NextInspection.Valid)
		assert.Len(t, updated.MaintenanceHistory, 1)
	})

	t.Run("Присланный журнал заменяет сохраненный", func(t *testing.T) {
		a, b := "Калибровка", "Замена электродов"
		history := []dto.MaintenanceEntryInputDTO{
			{Date: dto.DateValue("2024-11-01"), Documentation: &a},
			{Date: dto.DateValue("2024-12-01"), Documentation: &b},
		}
		updated, err := f.service.UpdateEquipment(ctx, created.ID, dto.UpdateEquipmentDTO{MaintenanceHistory: &history})
		require.NoError(t, err)
		require.Len(t, updated.MaintenanceHistory, 2)

		entries, err := f.service.GetMaintenanceHistory(ctx, created.ID, true)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Замена электродов", entries[0].Documentation)
	})

	t.Run("Пустое название отклоняется", func(t *testing.T) {
		blank := " "
		_, err := f.service.UpdateEquipment(ctx, created.ID, dto.UpdateEquipmentDTO{Name: &blank})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestEquipmentService_CompleteMaintenanceRejectsPastNextInspection(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "X-Ray", Type: "Imaging", Status: "Maintenance"})
	require.NoError(t, err)

	_, err = f.service.CompleteMaintenance(ctx, created.ID, dto.CompleteMaintenanceDTO{
		Documentation:  "Замена трубки",
		NextInspection: dto.DateValue("2025-01-14"),
	})
	assert.True(t, apperrors.IsValidation(err))

	stored, err := f.service.FindEquipment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maintenance", stored.Status, "запись не изменилась")
	assert.Empty(t, stored.MaintenanceHistory)

	// Явная дата в будущем принимается как есть
	done, err := f.service.CompleteMaintenance(ctx, created.ID, dto.CompleteMaintenanceDTO{
		Documentation:  "Замена трубки",
		NextInspection: dto.DateValue("2025-06-01"),
	})
	require.NoError(t, err)
	assert.True(t, done.NextInspection.Time.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEquipmentService_ConcurrentMaintenanceCompletions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "Ventilator", Type: "Respiratory"})
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.CompleteMaintenance(ctx, created.ID, dto.CompleteMaintenanceDTO{
				Documentation: fmt.Sprintf("Работа %d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := f.service.GetMaintenanceHistory(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Len(t, entries, n, "ни одна запись журнала не потеряна")
}

func TestEquipmentService_DeleteEquipment(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "Monitor", Type: "Monitor"})
	require.NoError(t, err)

	err = f.service.DeleteEquipment(ctx, "does-not-exist")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	counts, err := f.repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Total, "неудачное удаление ничего не меняет")

	require.NoError(t, f.service.DeleteEquipment(ctx, created.ID))
	_, err = f.service.FindEquipment(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ElementsMatch(t, []string{events.ActionCreated, events.ActionDeleted}, f.publishedActions(t))
}
