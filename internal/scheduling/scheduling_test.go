package scheduling

import (
	"testing"
	"time"

	"equipment-qms/internal/entities"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withNext(name string, next time.Time) entities.Equipment {
	return entities.Equipment{ID: name, Name: name, Type: "Monitor", Status: constants.EquipmentStatusActive, NextInspection: null.TimeFrom(next)}
}

func TestDaysUntil(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 18, 30, 0, 0, loc)

	assert.Equal(t, 0, DaysUntil(time.Date(2024, 6, 1, 0, 0, 0, 0, loc), now, loc))
	assert.Equal(t, 1, DaysUntil(time.Date(2024, 6, 2, 0, 1, 0, 0, loc), now, loc))
	assert.Equal(t, -1, DaysUntil(time.Date(2024, 5, 31, 23, 59, 0, 0, loc), now, loc))
	assert.Equal(t, 30, DaysUntil(time.Date(2024, 7, 1, 12, 0, 0, 0, loc), now, loc))
}

func TestDaysUntil_DSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("нет базы часовых поясов")
	}
	// 31 марта 2024 в Берлине длится 23 часа
	now := time.Date(2024, 3, 30, 12, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysUntil(time.Date(2024, 4, 1, 0, 0, 0, 0, loc), now, loc))
	assert.Equal(t, 1, DaysUntil(time.Date(2024, 3, 31, 23, 0, 0, 0, loc), now, loc))
}

func TestUpcomingAndOverdueBoundaries(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, loc)
	list := []entities.Equipment{
		withNext("d30", now.AddDate(0, 0, 30)),
		withNext("d31", now.AddDate(0, 0, 31)),
		withNext("d0", now),
		withNext("dm1", now.AddDate(0, 0, -1)),
		withNext("dm40", now.AddDate(0, 0, -40)),
		{ID: "none", Name: "none"},
	}

	upcoming := Upcoming(list, now, loc, 30)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "d0", upcoming[0].Equipment.ID)
	assert.Equal(t, 0, upcoming[0].DaysUntil)
	assert.Equal(t, "d30", upcoming[1].Equipment.ID)

	overdue := Overdue(list, now, loc)
	require.Len(t, overdue, 2)
	assert.Equal(t, "dm40", overdue[0].Equipment.ID)
	assert.Equal(t, "dm1", overdue[1].Equipment.ID)
}

func TestRecentlyInspected(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 31, 8, 0, 0, 0, loc)
	list := []entities.Equipment{
		{ID: "a", LastInspection: null.TimeFrom(now.AddDate(0, 0, -30))},
		{ID: "b", LastInspection: null.TimeFrom(now.AddDate(0, 0, -31))},
		{ID: "c"},
	}

	recent := RecentlyInspected(list, now, loc, 30)
	require.Len(t, recent, 1)
	assert.Equal(t, "a", recent[0].ID)
}

func TestGroupingAndTopN(t *testing.T) {
	list := []entities.Equipment{
		{Location: "ICU", Type: "Monitor"},
		{Location: "ICU", Type: "Pump"},
		{Location: "", Type: "Pump"},
		{Location: "OR", Type: "  "},
	}

	byLocation := ByLocation(list)
	assert.Equal(t, map[string]int{"ICU": 2, "OR": 1, constants.UnknownGroup: 1}, byLocation)
	assert.Equal(t, map[string]int{"Monitor": 1, "Pump": 2, constants.UnknownGroup: 1}, ByType(list))

	top := TopN(byLocation, 2)
	assert.Equal(t, []types.DashboardCountByGroup{
		{GroupName: "ICU", Count: 2},
		{GroupName: "OR", Count: 1},
	}, top)
}

func TestCalendarMonthAndDueOn(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	list := []entities.Equipment{
		// 2024-02-29 22:00 UTC - уже 1 марта по местному времени
		withNext("late", time.Date(2024, 2, 29, 22, 0, 0, 0, time.UTC)),
		withNext("feb", time.Date(2024, 2, 10, 6, 0, 0, 0, time.UTC)),
		withNext("feb2", time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)),
	}

	assert.Equal(t, map[int]int{10: 2}, CalendarMonth(list, 2024, time.February, loc))
	assert.Equal(t, map[int]int{1: 1}, CalendarMonth(list, 2024, time.March, loc))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 4, FirstWeekday(2024, time.February))

	due := DueOn(list, time.Date(2024, 3, 1, 12, 0, 0, 0, loc), loc)
	require.Len(t, due, 1)
	assert.Equal(t, "late", due[0].ID)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(5, 0))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(4, 4))

	assert.Equal(t, types.DashboardPercentages{}, Percentages(types.DashboardCounts{}))
}

func TestAlertLevel(t *testing.T) {
	assert.Equal(t, constants.AlertLevelUrgent, AlertLevel(0))
	assert.Equal(t, constants.AlertLevelUrgent, AlertLevel(7))
	assert.Equal(t, constants.AlertLevelWarning, AlertLevel(8))
	assert.Equal(t, constants.AlertLevelWarning, AlertLevel(14))
	assert.Equal(t, constants.AlertLevelInfo, AlertLevel(15))
}

func TestStatusCounts(t *testing.T) {
	list := []entities.Equipment{
		{Status: constants.EquipmentStatusActive},
		{Status: constants.EquipmentStatusMaintenance},
		{Status: constants.EquipmentStatusMaintenance},
	}
	assert.Equal(t, types.DashboardCounts{Total: 3, Active: 1, Maintenance: 2}, StatusCounts(list))
}
