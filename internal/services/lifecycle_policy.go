package services

import (
	"strings"
	"time"

	"equipment-qms/internal/entities"
	"equipment-qms/internal/scheduling"
	"equipment-qms/pkg/constants"
	apperrors "equipment-qms/pkg/errors"

	"github.com/aarondl/null/v8"
)

// LifecyclePolicy - единственное место, где описано, как меняются статус, даты проверок
// и журнал обслуживания. Три намерения: правка полей, быстрая смена статуса, завершение обслуживания.
type LifecyclePolicy struct {
	loc              *time.Location
	nextInspectionIn int
}

func NewLifecyclePolicy(loc *time.Location, nextInspectionMonths int) LifecyclePolicy {
	if loc == nil {
		loc = time.Local
	}
	if nextInspectionMonths <= 0 {
		nextInspectionMonths = 3
	}
	return LifecyclePolicy{loc: loc, nextInspectionIn: nextInspectionMonths}
}

// MaintenanceCompletion - данные завершения обслуживания. Невалидный NextInspection = по умолчанию.
type MaintenanceCompletion struct {
	Documentation  string
	Technician     string
	Notes          string
	NextInspection null.Time
}

// ApplyEdit применяет присланные поля как есть, без производных изменений.
// Присланный журнал целиком заменяет сохраненный.
func (p LifecyclePolicy) ApplyEdit(e *entities.Equipment, ch entities.EquipmentChanges, now time.Time) entities.HistoryMode {
	if ch.Name != nil {
		e.Name = *ch.Name
	}
	if ch.Type != nil {
		e.Type = *ch.Type
	}
	if ch.Status != nil {
		e.Status = *ch.Status
	}
	if ch.Location != nil {
		e.Location = *ch.Location
	}
	if ch.LastInspection != nil {
		e.LastInspection = *ch.LastInspection
	}
	if ch.NextInspection != nil {
		e.NextInspection = *ch.NextInspection
	}
	e.UpdatedAt = now

	if ch.MaintenanceHistory != nil {
		e.MaintenanceHistory = append([]entities.MaintenanceEntry{}, (*ch.MaintenanceHistory)...)
		return entities.HistoryReplace
	}
	return entities.HistoryKeep
}

// ApplyStatusChange - быстрая смена статуса. Выход из обслуживания в Active
// отмечает проверку текущим моментом. Тот же статус - apperrors.ErrNoChanges.
func (p LifecyclePolicy) ApplyStatusChange(e *entities.Equipment, status constants.EquipmentStatus, now time.Time) (entities.HistoryMode, error) {
	if !status.IsValid() {
		return entities.HistoryKeep, apperrors.NewValidationError("status", "неизвестный статус %q", status)
	}
	if e.Status == status {
		return entities.HistoryKeep, apperrors.ErrNoChanges
	}
	if e.Status == constants.EquipmentStatusMaintenance && status == constants.EquipmentStatusActive {
		e.LastInspection = null.TimeFrom(now)
	}
	e.Status = status
	e.UpdatedAt = now
	return entities.HistoryKeep, nil
}

// ApplyMaintenanceCompletion дописывает одну запись журнала и переводит оборудование в Active.
// Дата записи и lastInspection совпадают. Название, тип и локация не трогаются.
func (p LifecyclePolicy) ApplyMaintenanceCompletion(e *entities.Equipment, c MaintenanceCompletion, now time.Time) (entities.HistoryMode, error) {
	next, err := p.ResolveNextInspection(c, now)
	if err != nil {
		return entities.HistoryKeep, err
	}

	e.MaintenanceHistory = append(e.MaintenanceHistory, entities.MaintenanceEntry{
		Date:          now,
		Documentation: c.Documentation,
		Technician:    c.Technician,
		Notes:         c.Notes,
	})
	e.Status = constants.EquipmentStatusActive
	e.LastInspection = null.TimeFrom(now)
	e.NextInspection = null.TimeFrom(next)
	e.UpdatedAt = now
	return entities.HistoryAppend, nil
}

// ResolveNextInspection проверяет данные завершения до любой записи в хранилище.
func (p LifecyclePolicy) ResolveNextInspection(c MaintenanceCompletion, now time.Time) (time.Time, error) {
	if strings.TrimSpace(c.Documentation) == "" {
		return time.Time{}, apperrors.NewValidationError("documentation", "описание выполненных работ обязательно")
	}
	if !c.NextInspection.Valid {
		return p.DefaultNextInspection(now), nil
	}
	if scheduling.DaysUntil(c.NextInspection.Time, now, p.loc) < 0 {
		return time.Time{}, apperrors.NewValidationError("nextInspection", "дата следующей проверки раньше даты завершения обслуживания")
	}
	return c.NextInspection.Time, nil
}

// DefaultNextInspection - сегодня плюс N календарных месяцев в часовом поясе расписания.
func (p LifecyclePolicy) DefaultNextInspection(now time.Time) time.Time {
	return now.In(p.loc).AddDate(0, p.nextInspectionIn, 0)
}

func (p LifecyclePolicy) Location() *time.Location { return p.loc }
