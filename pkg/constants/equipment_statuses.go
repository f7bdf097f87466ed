package constants

import "strings"

// EquipmentStatus - эксплуатационное состояние оборудования.
type EquipmentStatus string

// --- СТАТУСЫ ОБОРУДОВАНИЯ (значения совпадают с тем, что хранится в БД и уходит в JSON) ---
const (
	EquipmentStatusActive      EquipmentStatus = "Active"
	EquipmentStatusMaintenance EquipmentStatus = "Maintenance"
	EquipmentStatusInactive    EquipmentStatus = "Inactive"
)

var EquipmentStatuses = []EquipmentStatus{
	EquipmentStatusActive,
	EquipmentStatusMaintenance,
	EquipmentStatusInactive,
}

func (s EquipmentStatus) IsValid() bool {
	for _, st := range EquipmentStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s EquipmentStatus) String() string { return string(s) }

// ParseEquipmentStatus принимает значение статуса из запроса.
// Пустая строка означает статус по умолчанию (Active).
func ParseEquipmentStatus(raw string) (EquipmentStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EquipmentStatusActive, true
	}
	s := EquipmentStatus(raw)
	return s, s.IsValid()
}

// Значение для пустых полей в группировках по локации и типу.
const UnknownGroup = "Unknown"
