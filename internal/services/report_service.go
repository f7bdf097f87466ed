package services

import (
	"context"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/repositories"
	"equipment-qms/internal/scheduling"

	"go.uber.org/zap"
)

// Состояние графика для строки отчета.
const (
	ScheduleStateOverdue     = "overdue"
	ScheduleStateUpcoming    = "upcoming"
	ScheduleStateScheduled   = "scheduled"
	ScheduleStateUnscheduled = "unscheduled"
)

type ReportServiceInterface interface {
	GetEquipmentReport(ctx context.Context) (*dto.EquipmentReportDTO, error)
}

type reportService struct {
	repo           repositories.EquipmentRepositoryInterface
	loc            *time.Location
	upcomingWindow int
	now            Clock
	logger         *zap.Logger
}

func NewReportService(
	repo repositories.EquipmentRepositoryInterface,
	loc *time.Location,
	upcomingWindow int,
	clock Clock,
	logger *zap.Logger,
) ReportServiceInterface {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.Local
	}
	return &reportService{repo: repo, loc: loc, upcomingWindow: upcomingWindow, now: clock, logger: logger}
}

// GetEquipmentReport - полная выгрузка парка со сводкой, общая для JSON и XLSX.
func (s *reportService) GetEquipmentReport(ctx context.Context) (*dto.EquipmentReportDTO, error) {
	list, err := s.repo.GetEquipments(ctx)
	if err != nil {
		s.logger.Error("Ошибка при формировании отчета", zap.Error(err))
		return nil, err
	}
	now := s.now()
	counts := scheduling.StatusCounts(list)

	rows := make([]dto.ReportRowDTO, 0, len(list))
	for _, e := range list {
		row := dto.ReportRowDTO{
			ID:             e.ID,
			Name:           e.Name,
			Type:           e.Type,
			Status:         e.Status.String(),
			Location:       e.Location,
			LastInspection: e.LastInspection,
			NextInspection: e.NextInspection,
			ScheduleState:  ScheduleStateUnscheduled,
			MaintenanceLog: len(e.MaintenanceHistory),
		}
		if e.NextInspection.Valid {
			days := scheduling.DaysUntil(e.NextInspection.Time, now, s.loc)
			row.DaysUntil = &days
			switch {
			case days < 0:
				row.ScheduleState = ScheduleStateOverdue
			case days <= s.upcomingWindow:
				row.ScheduleState = ScheduleStateUpcoming
			default:
				row.ScheduleState = ScheduleStateScheduled
			}
		}
		rows = append(rows, row)
	}

	return &dto.EquipmentReportDTO{
		Generated:   now,
		Summary:     counts,
		Percentages: scheduling.Percentages(counts),
		Equipment:   rows,
	}, nil
}
