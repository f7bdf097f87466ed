package entities

import (
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/types"

	"github.com/aarondl/null/v8"
)

type Equipment struct {
	ID             string                    `json:"id" db:"id"`
	Name           string                    `json:"name" db:"name"`
	Type           string                    `json:"type" db:"type"`
	Status         constants.EquipmentStatus `json:"status" db:"status"`
	Location       string                    `json:"location" db:"location"`
	LastInspection null.Time                 `json:"lastInspection" db:"last_inspection"`
	NextInspection null.Time                 `json:"nextInspection" db:"next_inspection"`

	types.BaseEntity // CreatedAt, UpdatedAt

	// Хранится в maintenance_entries, порядок вставки = хронологический порядок
	MaintenanceHistory []MaintenanceEntry `json:"maintenanceHistory" db:"-"`
}

// Clone возвращает копию записи с собственным срезом истории.
func (e *Equipment) Clone() *Equipment {
	c := *e
	c.MaintenanceHistory = append([]MaintenanceEntry(nil), e.MaintenanceHistory...)
	return &c
}

// HistoryMode говорит репозиторию, что делать с журналом обслуживания при сохранении.
type HistoryMode int

const (
	// HistoryKeep - журнал не трогаем.
	HistoryKeep HistoryMode = iota
	// HistoryAppend - дописываем записи, которых не было в прочитанной версии.
	HistoryAppend
	// HistoryReplace - журнал целиком заменяется присланным.
	HistoryReplace
)
