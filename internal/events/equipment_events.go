package events

import "time"

const EquipmentChangedEventName = "equipment.changed"

// Действия над записью оборудования.
const (
	ActionCreated             = "created"
	ActionUpdated             = "updated"
	ActionStatusChanged       = "status_changed"
	ActionMaintenanceComplete = "maintenance_completed"
	ActionDeleted             = "deleted"
)

// EquipmentChangedEvent - событие после успешной записи в хранилище.
type EquipmentChangedEvent struct {
	Action        string
	EquipmentID   string
	EquipmentName string
	Status        string
	OldStatus     string
	At            time.Time
}

// Name - реализуем интерфейс eventbus.Event
func (e EquipmentChangedEvent) Name() string {
	return EquipmentChangedEventName
}
