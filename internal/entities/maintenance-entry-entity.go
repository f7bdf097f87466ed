package entities

import "time"

type MaintenanceEntry struct {
	Date          time.Time `json:"date" db:"performed_at"`
	Documentation string    `json:"documentation" db:"documentation"`
	Technician    string    `json:"technician" db:"technician"`
	Notes         string    `json:"notes" db:"notes"`
}
