package types

// DashboardCounts - сводка по статусам (GET /api/dashboard).
type DashboardCounts struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Maintenance int64 `json:"maintenance"`
	Inactive    int64 `json:"inactive"`
}

// DashboardPercentages - доли статусов в процентах, 0 при пустом парке.
type DashboardPercentages struct {
	Active      int `json:"active"`
	Maintenance int `json:"maintenance"`
	Inactive    int `json:"inactive"`
}

type DashboardCountByGroup struct {
	GroupName string `json:"groupName"`
	Count     int    `json:"count"`
}
