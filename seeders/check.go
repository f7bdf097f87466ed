package seeders

import (
	"fmt"
	"io"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/pkg/utils"

	"github.com/aarondl/null/v8"
)

const empty = "(пусто)"

// PrintEquipment - диагностический вывод всех записей в человекочитаемом виде.
func PrintEquipment(w io.Writer, list []dto.EquipmentDTO, loc *time.Location) {
	fmt.Fprintf(w, "\nВсего записей оборудования: %d\n\n", len(list))
	for i, item := range list {
		fmt.Fprintf(w, "Оборудование %d:\n", i+1)
		fmt.Fprintf(w, "  ID:               %s\n", item.ID)
		fmt.Fprintf(w, "  Название:         %s\n", orEmpty(item.Name))
		fmt.Fprintf(w, "  Тип:              %s\n", orEmpty(item.Type))
		fmt.Fprintf(w, "  Статус:           %s\n", orEmpty(item.Status))
		fmt.Fprintf(w, "  Локация:          %s\n", orEmpty(item.Location))
		fmt.Fprintf(w, "  Последняя проверка: %s\n", dateOrEmpty(item.LastInspection, loc))
		fmt.Fprintf(w, "  Следующая проверка: %s\n", dateOrEmpty(item.NextInspection, loc))
		fmt.Fprintf(w, "  Записей в журнале:  %d\n\n", len(item.MaintenanceHistory))
	}
}

func orEmpty(s string) string {
	if s == "" {
		return empty
	}
	return s
}

func dateOrEmpty(t null.Time, loc *time.Location) string {
	if !t.Valid {
		return empty
	}
	return utils.FormatDate(t.Time, loc)
}
