package dto

import (
	"time"

	"equipment-qms/pkg/types"

	"github.com/aarondl/null/v8"
)

type ReportRowDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	Location       string    `json:"location"`
	LastInspection null.Time `json:"lastInspection"`
	NextInspection null.Time `json:"nextInspection"`
	DaysUntil      *int      `json:"daysUntil,omitempty"`
	ScheduleState  string    `json:"scheduleState,omitempty"`
	MaintenanceLog int       `json:"maintenanceEntries"`
}

type EquipmentReportDTO struct {
	Generated   time.Time                  `json:"generated"`
	Summary     types.DashboardCounts      `json:"summary"`
	Percentages types.DashboardPercentages `json:"percentages"`
	Equipment   []ReportRowDTO             `json:"equipment"`
}
