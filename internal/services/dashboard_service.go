package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"equipment-qms/internal/repositories"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/types"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type DashboardServiceInterface interface {
	GetCounts(ctx context.Context) (*types.DashboardCounts, error)
}

// DashboardService отдает сводку по статусам. Сводка кешируется в Redis под ключом
// с текущей версией. EquipmentService поднимает версию после каждой записи, поэтому
// значение, посчитанное до записи, попадает под старый ключ и больше не читается.
type DashboardService struct {
	repo   repositories.EquipmentRepositoryInterface
	cache  repositories.CacheRepositoryInterface
	ttl    time.Duration
	logger *zap.Logger
}

func NewDashboardService(
	repo repositories.EquipmentRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	ttl time.Duration,
	logger *zap.Logger,
) DashboardServiceInterface {
	if cache == nil {
		cache = repositories.NewNoopCacheRepository()
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func (s *DashboardService) GetCounts(ctx context.Context) (*types.DashboardCounts, error) {
	// Версию читаем до подсчета: запись, закоммиченная после подсчета, уже сменила ключ
	key, cacheOK := s.countsKey(ctx)
	if cacheOK {
		if counts, ok := s.readCached(ctx, key); ok {
			return counts, nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Ошибка подсчета сводки по статусам", zap.Error(err))
		return nil, err
	}

	if cacheOK && s.ttl > 0 {
		if data, err := json.Marshal(counts); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				s.logger.Warn("Не удалось записать сводку в кеш", zap.Error(err))
			}
		}
	}
	return &counts, nil
}

// countsKey - ключ сводки для текущей версии. false - кеш недоступен, идем в БД без записи.
func (s *DashboardService) countsKey(ctx context.Context) (string, bool) {
	version, err := s.cache.Get(ctx, constants.DashboardVersionCacheKey)
	switch {
	case errors.Is(err, redis.Nil):
		version = "0"
	case err != nil:
		s.logger.Warn("Кеш сводки недоступен", zap.Error(err))
		return "", false
	}
	return constants.DashboardCountsKeyPrefix + version, true
}

func (s *DashboardService) readCached(ctx context.Context, key string) (*types.DashboardCounts, bool) {
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Кеш сводки недоступен", zap.Error(err))
		}
		return nil, false
	}
	var counts types.DashboardCounts
	if err := json.Unmarshal([]byte(cached), &counts); err != nil {
		s.logger.Warn("Битое значение в кеше сводки, пересчитываем", zap.String("key", key))
		return nil, false
	}
	return &counts, true
}
