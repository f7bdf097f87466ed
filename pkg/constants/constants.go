package constants

const (
	// Сводка по статусам хранится под ключом с версией, запись в хранилище увеличивает версию.
	DashboardVersionCacheKey = "qms:dashboard:version"
	DashboardCountsKeyPrefix = "qms:dashboard:counts:"

	// Форматы дат, которые принимает API.
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Пороги уровня оповещения мониторинга (в днях до следующей проверки).
const (
	AlertUrgentDays  = 7
	AlertWarningDays = 14
)

const (
	AlertLevelUrgent  = "urgent"
	AlertLevelWarning = "warning"
	AlertLevelInfo    = "info"
)
