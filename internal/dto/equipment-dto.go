package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aarondl/null/v8"
)

// OptionalDate различает три состояния поля даты в запросе:
// ключ отсутствует (Set=false), null (Set=true, Raw=nil) и текстовая дата.
// Разбор текста делает сервис, он знает часовой пояс расписания.
type OptionalDate struct {
	Set bool
	Raw *string
}

func (d *OptionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" {
		d.Raw = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("дата должна быть строкой ISO-8601 или null: %w", err)
	}
	d.Raw = &s
	return nil
}

// DateValue - дата, присланная текстом.
func DateValue(s string) OptionalDate { return OptionalDate{Set: true, Raw: &s} }

// DateNull - явный null, т.е. "очистить дату".
func DateNull() OptionalDate { return OptionalDate{Set: true} }

type MaintenanceEntryInputDTO struct {
	Date          OptionalDate `json:"date"`
	Documentation *string      `json:"documentation"`
	Technician    *string      `json:"technician"`
	Notes         *string      `json:"notes"`
}

type CreateEquipmentDTO struct {
	Name               string                     `json:"name" validate:"required,notblank"`
	Type               string                     `json:"type" validate:"required,notblank"`
	Status             string                     `json:"status" validate:"omitempty,equipment_status"`
	Location           string                     `json:"location"`
	LastInspection     OptionalDate               `json:"lastInspection"`
	NextInspection     OptionalDate               `json:"nextInspection"`
	MaintenanceHistory []MaintenanceEntryInputDTO `json:"maintenanceHistory" validate:"omitempty,dive"`
}

type UpdateEquipmentDTO struct {
	Name               *string                     `json:"name,omitempty"     validate:"omitempty,notblank"`
	Type               *string                     `json:"type,omitempty"     validate:"omitempty,notblank"`
	Status             *string                     `json:"status,omitempty"   validate:"omitempty,equipment_status"`
	Location           *string                     `json:"location,omitempty"`
	LastInspection     OptionalDate                `json:"lastInspection"`
	NextInspection     OptionalDate                `json:"nextInspection"`
	MaintenanceHistory *[]MaintenanceEntryInputDTO `json:"maintenanceHistory,omitempty" validate:"omitempty,dive"`
}

type ChangeStatusDTO struct {
	Status string `json:"status" validate:"required,equipment_status"`
}

type CompleteMaintenanceDTO struct {
	Documentation  string       `json:"documentation" validate:"required,notblank"`
	Technician     string       `json:"technician"`
	Notes          string       `json:"notes"`
	NextInspection OptionalDate `json:"nextInspection"`
}

type MaintenanceEntryDTO struct {
	Date          time.Time `json:"date"`
	Documentation string    `json:"documentation"`
	Technician    string    `json:"technician"`
	Notes         string    `json:"notes"`
}

type EquipmentDTO struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	Type               string                `json:"type"`
	Status             string                `json:"status"`
	Location           string                `json:"location"`
	LastInspection     null.Time             `json:"lastInspection"`
	NextInspection     null.Time             `json:"nextInspection"`
	MaintenanceHistory []MaintenanceEntryDTO `json:"maintenanceHistory"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}
