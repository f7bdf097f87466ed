package services

import (
	"strings"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/entities"
	"equipment-qms/pkg/constants"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/utils"

	"github.com/aarondl/null/v8"
)

func toEquipmentDTO(e *entities.Equipment) *dto.EquipmentDTO {
	return &dto.EquipmentDTO{
		ID:                 e.ID,
		Name:               e.Name,
		Type:               e.Type,
		Status:             e.Status.String(),
		Location:           e.Location,
		LastInspection:     e.LastInspection,
		NextInspection:     e.NextInspection,
		MaintenanceHistory: toMaintenanceEntryDTOs(e.MaintenanceHistory),
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toEquipmentDTOs(list []entities.Equipment) []dto.EquipmentDTO {
	res := make([]dto.EquipmentDTO, 0, len(list))
	for i := range list {
		res = append(res, *toEquipmentDTO(&list[i]))
	}
	return res
}

func toMaintenanceEntryDTOs(entries []entities.MaintenanceEntry) []dto.MaintenanceEntryDTO {
	res := make([]dto.MaintenanceEntryDTO, 0, len(entries))
	for _, entry := range entries {
		res = append(res, dto.MaintenanceEntryDTO{
			Date:          entry.Date,
			Documentation: entry.Documentation,
			Technician:    entry.Technician,
			Notes:         entry.Notes,
		})
	}
	return res
}

// resolveDate: nil - поле не прислано, невалидный null.Time - очистить.
func resolveDate(field string, d dto.OptionalDate, loc *time.Location) (*null.Time, error) {
	if !d.Set {
		return nil, nil
	}
	if d.Raw == nil || strings.TrimSpace(*d.Raw) == "" {
		return &null.Time{}, nil
	}
	t, err := utils.ParseDate(*d.Raw, loc)
	if err != nil {
		return nil, apperrors.NewValidationError(field, "некорректная дата %q", *d.Raw)
	}
	v := null.TimeFrom(t.UTC())
	return &v, nil
}

// normalizeEntries приводит присланный журнал к полному виду: без даты - now, пустые строки вместо отсутствующих.
func normalizeEntries(in []dto.MaintenanceEntryInputDTO, now time.Time, loc *time.Location) ([]entities.MaintenanceEntry, error) {
	res := make([]entities.MaintenanceEntry, 0, len(in))
	for _, raw := range in {
		date, err := resolveDate("maintenanceHistory.date", raw.Date, loc)
		if err != nil {
			return nil, err
		}
		entry := entities.MaintenanceEntry{Date: now}
		if date != nil && date.Valid {
			entry.Date = date.Time
		}
		if raw.Documentation != nil {
			entry.Documentation = *raw.Documentation
		}
		if raw.Technician != nil {
			entry.Technician = *raw.Technician
		}
		if raw.Notes != nil {
			entry.Notes = *raw.Notes
		}
		res = append(res, entry)
	}
	return res, nil
}

func requireText(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperrors.NewValidationError(field, "поле обязательно")
	}
	return nil
}

func parseStatus(raw string, allowBlank bool) (constants.EquipmentStatus, error) {
	if !allowBlank && strings.TrimSpace(raw) == "" {
		return "", apperrors.NewValidationError("status", "статус обязателен")
	}
	status, ok := constants.ParseEquipmentStatus(raw)
	if !ok {
		return "", apperrors.NewValidationError("status", "неизвестный статус %q, допустимы Active, Maintenance, Inactive", raw)
	}
	return status, nil
}
