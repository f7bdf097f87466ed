package services

import (
	"context"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/entities"
	"equipment-qms/internal/events"
	"equipment-qms/internal/repositories"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/eventbus"
	"equipment-qms/pkg/types"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context) ([]dto.EquipmentDTO, error)
	FindEquipment(ctx context.Context, id string) (*dto.EquipmentDTO, error)
	CreateEquipment(ctx context.Context, d dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error)
	UpdateEquipment(ctx context.Context, id string, d dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error)
	ChangeStatus(ctx context.Context, id string, d dto.ChangeStatusDTO) (*dto.EquipmentDTO, error)
	CompleteMaintenance(ctx context.Context, id string, d dto.CompleteMaintenanceDTO) (*dto.EquipmentDTO, error)
	GetMaintenanceHistory(ctx context.Context, id string, newestFirst bool) ([]dto.MaintenanceEntryDTO, error)
	DeleteEquipment(ctx context.Context, id string) error
}

// Clock - источник текущего времени, в тестах подменяется.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type EquipmentService struct {
	equipmentRepository repositories.EquipmentRepositoryInterface
	cache               repositories.CacheRepositoryInterface
	bus                 *eventbus.Bus
	policy              LifecyclePolicy
	now                 Clock
	logger              *zap.Logger
}

func NewEquipmentService(
	equipmentRepository repositories.EquipmentRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	bus *eventbus.Bus,
	policy LifecyclePolicy,
	clock Clock,
	logger *zap.Logger,
) EquipmentServiceInterface {
	if clock == nil {
		clock = SystemClock
	}
	if cache == nil {
		cache = repositories.NewNoopCacheRepository()
	}
	return &EquipmentService{
		equipmentRepository: equipmentRepository,
		cache:               cache,
		bus:                 bus,
		policy:              policy,
		now:                 clock,
		logger:              logger,
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context) ([]dto.EquipmentDTO, error) {
	list, err := s.equipmentRepository.GetEquipments(ctx)
	if err != nil {
		s.logger.Error("Ошибка при получении списка оборудования", zap.Error(err))
		return nil, err
	}
	return toEquipmentDTOs(list), nil
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id string) (*dto.EquipmentDTO, error) {
	e, err := s.equipmentRepository.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEquipmentDTO(e), nil
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, d dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	if err := requireText("name", d.Name); err != nil {
		return nil, err
	}
	if err := requireText("type", d.Type); err != nil {
		return nil, err
	}
	status, err := parseStatus(d.Status, true)
	if err != nil {
		return nil, err
	}
	loc := s.policy.Location()
	lastInspection, err := resolveDate("lastInspection", d.LastInspection, loc)
	if err != nil {
		return nil, err
	}
	nextInspection, err := resolveDate("nextInspection", d.NextInspection, loc)
	if err != nil {
		return nil, err
	}

	now := s.now()
	history, err := normalizeEntries(d.MaintenanceHistory, now, loc)
	if err != nil {
		return nil, err
	}

	e := &entities.Equipment{
		ID:                 uuid.NewString(),
		Name:               d.Name,
		Type:               d.Type,
		Status:             status,
		Location:           d.Location,
		BaseEntity:         types.BaseEntity{CreatedAt: now, UpdatedAt: now},
		MaintenanceHistory: history,
	}
	if lastInspection != nil {
		e.LastInspection = *lastInspection
	}
	if nextInspection != nil {
		e.NextInspection = *nextInspection
	}

	if err := s.equipmentRepository.CreateEquipment(ctx, e); err != nil {
		s.logger.Error("Ошибка при создании оборудования", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Оборудование создано", zap.String("id", e.ID), zap.String("name", e.Name))

	s.afterWrite(ctx, events.ActionCreated, e, "")
	return toEquipmentDTO(e), nil
}

// UpdateEquipment - простая правка: присланные поля применяются как есть.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, id string, d dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	changes, err := s.buildChanges(d)
	if err != nil {
		return nil, err
	}

	var oldStatus constants.EquipmentStatus
	updated, err := s.equipmentRepository.UpdateEquipment(ctx, id, func(e *entities.Equipment) (entities.HistoryMode, error) {
		oldStatus = e.Status
		return s.policy.ApplyEdit(e, changes, s.now()), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Оборудование обновлено", zap.String("id", id))

	s.afterWrite(ctx, events.ActionUpdated, updated, oldStatus)
	return toEquipmentDTO(updated), nil
}

func (s *EquipmentService) buildChanges(d dto.UpdateEquipmentDTO) (entities.EquipmentChanges, error) {
	var ch entities.EquipmentChanges
	loc := s.policy.Location()

	if d.Name != nil {
		if err := requireText("name", *d.Name); err != nil {
			return ch, err
		}
		ch.Name = d.Name
	}
	if d.Type != nil {
		if err := requireText("type", *d.Type); err != nil {
			return ch, err
		}
		ch.Type = d.Type
	}
	if d.Status != nil {
		status, err := parseStatus(*d.Status, false)
		if err != nil {
			return ch, err
		}
		ch.Status = &status
	}
	ch.Location = d.Location

	var err error
	if ch.LastInspection, err = resolveDate("lastInspection", d.LastInspection, loc); err != nil {
		return ch, err
	}
	if ch.NextInspection, err = resolveDate("nextInspection", d.NextInspection, loc); err != nil {
		return ch, err
	}

	if d.MaintenanceHistory != nil {
		history, err := normalizeEntries(*d.MaintenanceHistory, s.now(), loc)
		if err != nil {
			return ch, err
		}
		ch.MaintenanceHistory = &history
	}
	return ch, nil
}

// ChangeStatus - быстрая смена статуса. Повторная установка того же статуса ничего не пишет.
func (s *EquipmentService) ChangeStatus(ctx context.Context, id string, d dto.ChangeStatusDTO) (*dto.EquipmentDTO, error) {
	status, err := parseStatus(d.Status, false)
	if err != nil {
		return nil, err
	}

	var (
		oldStatus constants.EquipmentStatus
		changed   bool
	)
	updated, err := s.equipmentRepository.UpdateEquipment(ctx, id, func(e *entities.Equipment) (entities.HistoryMode, error) {
		oldStatus = e.Status
		mode, err := s.policy.ApplyStatusChange(e, status, s.now())
		changed = err == nil
		return mode, err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Статус оборудования изменен",
			zap.String("id", id),
			zap.String("from", oldStatus.String()),
			zap.String("to", status.String()),
		)
		s.afterWrite(ctx, events.ActionStatusChanged, updated, oldStatus)
	}
	return toEquipmentDTO(updated), nil
}

// CompleteMaintenance атомарно дописывает запись журнала, переводит в Active и двигает даты проверок.
func (s *EquipmentService) CompleteMaintenance(ctx context.Context, id string, d dto.CompleteMaintenanceDTO) (*dto.EquipmentDTO, error) {
	completion := MaintenanceCompletion{
		Documentation: d.Documentation,
		Technician:    d.Technician,
		Notes:         d.Notes,
	}
	next, err := resolveDate("nextInspection", d.NextInspection, s.policy.Location())
	if err != nil {
		return nil, err
	}
	if next != nil {
		completion.NextInspection = *next
	}

	// Проверка до транзакции: при ошибке запись не трогается вовсе.
	if _, err := s.policy.ResolveNextInspection(completion, s.now()); err != nil {
		return nil, err
	}

	var oldStatus constants.EquipmentStatus
	updated, err := s.equipmentRepository.UpdateEquipment(ctx, id, func(e *entities.Equipment) (entities.HistoryMode, error) {
		oldStatus = e.Status
		return s.policy.ApplyMaintenanceCompletion(e, completion, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Обслуживание завершено",
		zap.String("id", id),
		zap.Int("history_len", len(updated.MaintenanceHistory)),
		zap.Time("next_inspection", updated.NextInspection.Time),
	)

	s.afterWrite(ctx, events.ActionMaintenanceComplete, updated, oldStatus)
	return toEquipmentDTO(updated), nil
}

// GetMaintenanceHistory отдает журнал в порядке хранения либо, по запросу, сначала свежие.
func (s *EquipmentService) GetMaintenanceHistory(ctx context.Context, id string, newestFirst bool) ([]dto.MaintenanceEntryDTO, error) {
	e, err := s.equipmentRepository.FindEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	entries := toMaintenanceEntryDTOs(e.MaintenanceHistory)
	if newestFirst {
		entries = lo.Reverse(entries)
	}
	return entries, nil
}

func (s *EquipmentService) DeleteEquipment(ctx context.Context, id string) error {
	if err := s.equipmentRepository.DeleteEquipment(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Оборудование удалено", zap.String("id", id))

	s.afterWrite(ctx, events.ActionDeleted, &entities.Equipment{ID: id}, "")
	return nil
}

// afterWrite поднимает версию кеша сводки и публикует событие. Ошибки кеша запрос не роняют.
func (s *EquipmentService) afterWrite(ctx context.Context, action string, e *entities.Equipment, oldStatus constants.EquipmentStatus) {
	if _, err := s.cache.Incr(ctx, constants.DashboardVersionCacheKey); err != nil {
		s.logger.Warn("Не удалось сбросить кеш сводки", zap.Error(err))
	}
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.EquipmentChangedEvent{
		Action:        action,
		EquipmentID:   e.ID,
		EquipmentName: e.Name,
		Status:        e.Status.String(),
		OldStatus:     oldStatus.String(),
		At:            s.now(),
	})
}
