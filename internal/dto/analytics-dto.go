package dto

import (
	"time"

	"equipment-qms/pkg/types"
)

// ScheduledEquipmentDTO - запись в списках "скоро проверка" / "просрочено" / оповещения.
type ScheduledEquipmentDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	Location       string    `json:"location"`
	NextInspection time.Time `json:"nextInspection"`
	DaysUntil      int       `json:"daysUntil"`
	AlertLevel     string    `json:"alertLevel,omitempty"`
}

type AnalyticsDTO struct {
	Counts              types.DashboardCounts         `json:"counts"`
	Percentages         types.DashboardPercentages    `json:"percentages"`
	UpcomingInspections int                           `json:"upcomingInspections"`
	OverdueInspections  int                           `json:"overdueInspections"`
	RecentInspections   int                           `json:"recentInspections"`
	Upcoming            []ScheduledEquipmentDTO       `json:"upcoming"`
	Overdue             []ScheduledEquipmentDTO       `json:"overdue"`
	ByLocation          map[string]int                `json:"byLocation"`
	ByType              map[string]int                `json:"byType"`
	TopLocations        []types.DashboardCountByGroup `json:"topLocations"`
	TopTypes            []types.DashboardCountByGroup `json:"topTypes"`
}

type CalendarMonthDTO struct {
	Year            int         `json:"year"`
	Month           int         `json:"month"`
	DaysInMonth     int         `json:"daysInMonth"`
	StartingWeekday int         `json:"startingWeekday"`
	Counts          map[int]int `json:"counts"`
}

type DayScheduleDTO struct {
	Date      string         `json:"date"`
	Equipment []EquipmentDTO `json:"equipment"`
}

type MonitoringSnapshotDTO struct {
	GeneratedAt time.Time               `json:"generatedAt"`
	Counts      types.DashboardCounts   `json:"counts"`
	Alerts      []ScheduledEquipmentDTO `json:"alerts"`
}
