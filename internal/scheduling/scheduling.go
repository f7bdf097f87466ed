// Package scheduling - производные представления графика проверок.
// Все функции чистые: считают по переданному списку и моменту now, ничего не кешируют.
package scheduling

import (
	"math"
	"sort"
	"strings"
	"time"

	"equipment-qms/internal/entities"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/types"
	"equipment-qms/pkg/utils"

	"github.com/samber/lo"
)

// Due - запись вместе с числом дней до ее следующей проверки.
type Due struct {
	Equipment entities.Equipment
	DaysUntil int
}

// DaysUntil - разница календарных дат (полночь к полуночи в loc), а не 24-часовых интервалов.
// Переход на летнее время результат не сдвигает.
func DaysUntil(date, now time.Time, loc *time.Location) int {
	d := utils.StartOfDay(date, loc)
	n := utils.StartOfDay(now, loc)
	du := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	nu := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(du.Sub(nu).Hours() / 24))
}

// Upcoming - записи с проверкой через 0..window дней, ближайшие первыми.
func Upcoming(list []entities.Equipment, now time.Time, loc *time.Location, window int) []Due {
	return dueWhere(list, now, loc, func(days int) bool { return days >= 0 && days <= window })
}

// Overdue - записи с проверкой в прошлом. Проверка сегодня просрочкой не считается.
func Overdue(list []entities.Equipment, now time.Time, loc *time.Location) []Due {
	return dueWhere(list, now, loc, func(days int) bool { return days < 0 })
}

func dueWhere(list []entities.Equipment, now time.Time, loc *time.Location, keep func(days int) bool) []Due {
	res := make([]Due, 0)
	for _, e := range list {
		if !e.NextInspection.Valid {
			continue
		}
		days := DaysUntil(e.NextInspection.Time, now, loc)
		if keep(days) {
			res = append(res, Due{Equipment: e, DaysUntil: days})
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].DaysUntil < res[j].DaysUntil })
	return res
}

// RecentlyInspected - записи, проверенные не раньше чем window календарных дней назад.
func RecentlyInspected(list []entities.Equipment, now time.Time, loc *time.Location, window int) []entities.Equipment {
	return lo.Filter(list, func(e entities.Equipment, _ int) bool {
		return e.LastInspection.Valid && DaysUntil(e.LastInspection.Time, now, loc) >= -window
	})
}

func ByLocation(list []entities.Equipment) map[string]int {
	return lo.CountValuesBy(list, func(e entities.Equipment) string { return groupKey(e.Location) })
}

func ByType(list []entities.Equipment) map[string]int {
	return lo.CountValuesBy(list, func(e entities.Equipment) string { return groupKey(e.Type) })
}

func groupKey(v string) string {
	if strings.TrimSpace(v) == "" {
		return constants.UnknownGroup
	}
	return v
}

// CalendarMonth раскладывает следующие проверки по дням месяца (локальные даты в loc).
// Дни без проверок в результат не попадают.
func CalendarMonth(list []entities.Equipment, year int, month time.Month, loc *time.Location) map[int]int {
	res := make(map[int]int)
	for _, e := range list {
		if !e.NextInspection.Valid {
			continue
		}
		local := e.NextInspection.Time.In(loc)
		if local.Year() == year && local.Month() == month {
			res[local.Day()]++
		}
	}
	return res
}

// DaysIn - число дней в месяце.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday - день недели первого числа (0 = воскресенье).
func FirstWeekday(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// DueOn - записи, у которых следующая проверка приходится на календарный день day.
func DueOn(list []entities.Equipment, day time.Time, loc *time.Location) []entities.Equipment {
	target := utils.StartOfDay(day, loc)
	return lo.Filter(list, func(e entities.Equipment, _ int) bool {
		return e.NextInspection.Valid && utils.StartOfDay(e.NextInspection.Time, loc).Equal(target)
	})
}

// Percentage - округленный процент, 0 при total = 0.
func Percentage(value, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(value) * 100 / float64(total)))
}

func Percentages(c types.DashboardCounts) types.DashboardPercentages {
	return types.DashboardPercentages{
		Active:      Percentage(c.Active, c.Total),
		Maintenance: Percentage(c.Maintenance, c.Total),
		Inactive:    Percentage(c.Inactive, c.Total),
	}
}

// AlertLevel - уровень оповещения по числу дней до проверки.
func AlertLevel(days int) string {
	switch {
	case days <= constants.AlertUrgentDays:
		return constants.AlertLevelUrgent
	case days <= constants.AlertWarningDays:
		return constants.AlertLevelWarning
	default:
		return constants.AlertLevelInfo
	}
}

// TopN - n самых больших групп: по убыванию количества, при равенстве по имени.
func TopN(counts map[string]int, n int) []types.DashboardCountByGroup {
	res := lo.MapToSlice(counts, func(k string, v int) types.DashboardCountByGroup {
		return types.DashboardCountByGroup{GroupName: k, Count: v}
	})
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].GroupName < res[j].GroupName
	})
	if n >= 0 && len(res) > n {
		res = res[:n]
	}
	return res
}

// StatusCounts считает сводку по статусам по уже загруженному списку.
func StatusCounts(list []entities.Equipment) types.DashboardCounts {
	c := types.DashboardCounts{Total: int64(len(list))}
	for _, e := range list {
		switch e.Status {
		case constants.EquipmentStatusActive:
			c.Active++
		case constants.EquipmentStatusMaintenance:
			c.Maintenance++
		case constants.EquipmentStatusInactive:
			c.Inactive++
		}
	}
	return c
}
