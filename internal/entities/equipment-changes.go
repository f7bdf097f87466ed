package entities

import (
	"equipment-qms/pkg/constants"

	"github.com/aarondl/null/v8"
)

// EquipmentChanges - частичное изменение записи. nil означает "поле не прислано".
// Для дат указатель на невалидный null.Time означает "очистить".
type EquipmentChanges struct {
	Name               *string
	Type               *string
	Status             *constants.EquipmentStatus
	Location           *string
	LastInspection     *null.Time
	NextInspection     *null.Time
	MaintenanceHistory *[]MaintenanceEntry
}
