package routes

import (
	"equipment-qms/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runDashboardRouter(api *echo.Group, ctrl *controllers.DashboardController) {
	api.GET("/dashboard", ctrl.GetDashboard)
}

func runAnalyticsRouter(api *echo.Group, ctrl *controllers.AnalyticsController) {
	api.GET("/analytics", ctrl.GetAnalytics)
	api.GET("/schedule", ctrl.GetCalendarMonth)
	api.GET("/schedule/day", ctrl.GetDaySchedule)
}

func runMonitoringRouter(api *echo.Group, ctrl *controllers.MonitoringController) {
	api.GET("/monitoring", ctrl.GetSnapshot)
}
