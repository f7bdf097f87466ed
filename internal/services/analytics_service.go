package services

import (
	"context"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/repositories"
	"equipment-qms/internal/scheduling"
	"equipment-qms/pkg/config"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/utils"

	"go.uber.org/zap"
)

const topGroups = 5

type AnalyticsServiceInterface interface {
	GetAnalytics(ctx context.Context) (*dto.AnalyticsDTO, error)
	GetCalendarMonth(ctx context.Context, year, month int) (*dto.CalendarMonthDTO, error)
	GetDaySchedule(ctx context.Context, date string) (*dto.DayScheduleDTO, error)
}

// AnalyticsService собирает производные представления графика по свежему списку на каждый запрос.
type AnalyticsService struct {
	repo   repositories.EquipmentRepositoryInterface
	cfg    config.ScheduleConfig
	loc    *time.Location
	now    Clock
	logger *zap.Logger
}

func NewAnalyticsService(
	repo repositories.EquipmentRepositoryInterface,
	cfg config.ScheduleConfig,
	loc *time.Location,
	clock Clock,
	logger *zap.Logger,
) AnalyticsServiceInterface {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{repo: repo, cfg: cfg, loc: loc, now: clock, logger: logger}
}

func (s *AnalyticsService) GetAnalytics(ctx context.Context) (*dto.AnalyticsDTO, error) {
	list, err := s.repo.GetEquipments(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	upcoming := scheduling.Upcoming(list, now, s.loc, s.cfg.UpcomingWindow)
	overdue := scheduling.Overdue(list, now, s.loc)
	recent := scheduling.RecentlyInspected(list, now, s.loc, s.cfg.RecentWindow)
	counts := scheduling.StatusCounts(list)
	byLocation := scheduling.ByLocation(list)
	byType := scheduling.ByType(list)

	return &dto.AnalyticsDTO{
		Counts:              counts,
		Percentages:         scheduling.Percentages(counts),
		UpcomingInspections: len(upcoming),
		OverdueInspections:  len(overdue),
		RecentInspections:   len(recent),
		Upcoming:            ScheduledDTOs(upcoming, false),
		Overdue:             ScheduledDTOs(overdue, false),
		ByLocation:          byLocation,
		ByType:              byType,
		TopLocations:        scheduling.TopN(byLocation, topGroups),
		TopTypes:            scheduling.TopN(byType, topGroups),
	}, nil
}

func (s *AnalyticsService) GetCalendarMonth(ctx context.Context, year, month int) (*dto.CalendarMonthDTO, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.NewValidationError("month", "месяц должен быть от 1 до 12")
	}
	if year < 1 || year > 9999 {
		return nil, apperrors.NewValidationError("year", "некорректный год %d", year)
	}

	list, err := s.repo.GetEquipments(ctx)
	if err != nil {
		return nil, err
	}
	m := time.Month(month)
	return &dto.CalendarMonthDTO{
		Year:            year,
		Month:           month,
		DaysInMonth:     scheduling.DaysIn(year, m),
		StartingWeekday: scheduling.FirstWeekday(year, m),
		Counts:          scheduling.CalendarMonth(list, year, m, s.loc),
	}, nil
}

func (s *AnalyticsService) GetDaySchedule(ctx context.Context, date string) (*dto.DayScheduleDTO, error) {
	day, err := utils.ParseDate(date, s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError("date", "некорректная дата %q", date)
	}

	list, err := s.repo.GetEquipments(ctx)
	if err != nil {
		return nil, err
	}
	due := scheduling.DueOn(list, day, s.loc)
	return &dto.DayScheduleDTO{
		Date:      utils.FormatDate(day, s.loc),
		Equipment: toEquipmentDTOs(due),
	}, nil
}

// ScheduledDTOs переводит выборку графика в DTO. withLevel добавляет уровень оповещения.
func ScheduledDTOs(list []scheduling.Due, withLevel bool) []dto.ScheduledEquipmentDTO {
	res := make([]dto.ScheduledEquipmentDTO, 0, len(list))
	for _, d := range list {
		item := dto.ScheduledEquipmentDTO{
			ID:             d.Equipment.ID,
			Name:           d.Equipment.Name,
			Type:           d.Equipment.Type,
			Status:         d.Equipment.Status.String(),
			Location:       d.Equipment.Location,
			NextInspection: d.Equipment.NextInspection.Time,
			DaysUntil:      d.DaysUntil,
		}
		if withLevel {
			item.AlertLevel = scheduling.AlertLevel(d.DaysUntil)
		}
		res = append(res, item)
	}
	return res
}
