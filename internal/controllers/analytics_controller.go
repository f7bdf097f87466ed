package controllers

import (
	"net/http"
	"strconv"

	"equipment-qms/internal/services"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AnalyticsController struct {
	analyticsService services.AnalyticsServiceInterface
	now              services.Clock
	logger           *zap.Logger
}

func NewAnalyticsController(s services.AnalyticsServiceInterface, clock services.Clock, logger *zap.Logger) *AnalyticsController {
	if clock == nil {
		clock = services.SystemClock
	}
	return &AnalyticsController{analyticsService: s, now: clock, logger: logger}
}

func (ctrl *AnalyticsController) GetAnalytics(c echo.Context) error {
	res, err := ctrl.analyticsService.GetAnalytics(c.Request().Context())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, http.StatusOK)
}

// GetCalendarMonth - ?year=&month=, по умолчанию текущий месяц.
func (ctrl *AnalyticsController) GetCalendarMonth(c echo.Context) error {
	now := ctrl.now()
	year, err := intQuery(c, "year", now.Year())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	month, err := intQuery(c, "month", int(now.Month()))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	res, err := ctrl.analyticsService.GetCalendarMonth(c.Request().Context(), year, month)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, http.StatusOK)
}

func (ctrl *AnalyticsController) GetDaySchedule(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return utils.ErrorResponse(c, apperrors.NewValidationError("date", "параметр обязателен (YYYY-MM-DD)"), ctrl.logger)
	}

	res, err := ctrl.analyticsService.GetDaySchedule(c.Request().Context(), date)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, http.StatusOK)
}

func intQuery(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name, "ожидается целое число, получено %q", raw)
	}
	return v, nil
}
