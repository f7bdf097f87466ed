package utils

import (
	"strings"
	"time"

	"equipment-qms/pkg/constants"
	apperrors "equipment-qms/pkg/errors"
)

var acceptedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	constants.DateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	constants.DateLayout,
}

// ParseDate разбирает текстовую дату из запроса (ISO-8601 или YYYY-MM-DD).
// Даты без часового пояса трактуются в loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range acceptedDateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano || layout == time.RFC3339 {
			t, err = time.Parse(layout, raw)
		} else {
			t, err = time.ParseInLocation(layout, raw, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("", "не удалось разобрать дату %q", raw)
}

// StartOfDay возвращает полночь календарного дня t в loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// FormatDate форматирует дату для отчетов и консольного вывода.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateLayout)
}
