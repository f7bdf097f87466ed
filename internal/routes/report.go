package routes

import (
	"equipment-qms/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runReportRouter(api *echo.Group, reportController *controllers.ReportController) {
	api.GET("/reports/equipment", reportController.GetEquipmentReport)
}
