package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/repositories"
	"equipment-qms/internal/testutil"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/types"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryCache - кеш в памяти с семантикой промаха и INCR как у Redis.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string]string{}} }

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	default:
		return errors.New("unsupported value")
	}
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.data[key], 10, 64)
	n++
	c.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// racingRepository выполняет запись между подсчетом сводки и возвратом результата,
// как параллельный запрос, который успел закоммититься до записи в кеш.
type racingRepository struct {
	repositories.EquipmentRepositoryInterface
	once    sync.Once
	between func()
}

func (r *racingRepository) CountByStatus(ctx context.Context) (types.DashboardCounts, error) {
	counts, err := r.EquipmentRepositoryInterface.CountByStatus(ctx)
	r.once.Do(r.between)
	return counts, err
}

func TestDashboardService_CountsAreCachedPerVersion(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	repo := repositories.NewEquipmentRepository(testutil.NewMemoryDB(t), logger)
	cache := newMemoryCache()

	equipment := NewEquipmentService(repo, cache, nil, NewLifecyclePolicy(time.UTC, 3), fixedClock, logger)
	dashboard := NewDashboardService(repo, cache, time.Minute, logger)

	counts, err := dashboard.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total)
	assert.True(t, cache.has(constants.DashboardCountsKeyPrefix+"0"))

	_, err = equipment.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "Pump", Type: "Pump", Status: "Maintenance"})
	require.NoError(t, err)

	counts, err = dashboard.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Total)
	assert.Equal(t, int64(1), counts.Maintenance)
	assert.Equal(t, counts.Total, counts.Active+counts.Maintenance+counts.Inactive)
	assert.True(t, cache.has(constants.DashboardCountsKeyPrefix+"1"))

	// Битое значение в кеше не ломает ответ
	require.NoError(t, cache.Set(ctx, constants.DashboardCountsKeyPrefix+"1", "{", time.Minute))
	counts, err = dashboard.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Total)
}

func TestDashboardService_WriteDuringCountIsNotLost(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	store := repositories.NewEquipmentRepository(testutil.NewMemoryDB(t), logger)
	cache := newMemoryCache()
	equipment := NewEquipmentService(store, cache, nil, NewLifecyclePolicy(time.UTC, 3), fixedClock, logger)

	racing := &racingRepository{EquipmentRepositoryInterface: store}
	racing.between = func() {
		_, err := equipment.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "Ventilator", Type: "Respiratory"})
		require.NoError(t, err)
	}
	dashboard := NewDashboardService(racing, cache, time.Minute, logger)

	// Подсчет до записи: 0, и это значение уходит в кеш
	counts, err := dashboard.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total)

	counts, err = dashboard.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Total, "после закоммиченной записи сводка не должна браться из старого кеша")
}

func TestDashboardService_WithoutCache(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	repo := repositories.NewEquipmentRepository(testutil.NewMemoryDB(t), logger)
	equipment := NewEquipmentService(repo, nil, nil, NewLifecyclePolicy(time.UTC, 3), fixedClock, logger)
	dashboard := NewDashboardService(repo, nil, time.Minute, logger)

	for _, status := range []string{"Active", "Active", "Inactive"} {
		_, err := equipment.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "Bed", Type: "Furniture", Status: status})
		require.NoError(t, err)
	}

	counts, err := dashboard.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Total)
	assert.Equal(t, int64(2), counts.Active)
	assert.Equal(t, int64(1), counts.Inactive)
}
