package controllers

import (
	"net/http"

	"equipment-qms/internal/services"
	"equipment-qms/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type DashboardController struct {
	dashboardService services.DashboardServiceInterface
	logger           *zap.Logger
}

func NewDashboardController(ds services.DashboardServiceInterface, logger *zap.Logger) *DashboardController {
	return &DashboardController{dashboardService: ds, logger: logger}
}

// GetDashboard - {total, active, maintenance, inactive}.
func (ctrl *DashboardController) GetDashboard(c echo.Context) error {
	counts, err := ctrl.dashboardService.GetCounts(c.Request().Context())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, counts, http.StatusOK)
}
