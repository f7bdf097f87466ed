package controllers

import (
	"context"
	"net/http"

	"equipment-qms/internal/dto"
	"equipment-qms/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type snapshotSource interface {
	Current(ctx context.Context) (*dto.MonitoringSnapshotDTO, error)
}

type MonitoringController struct {
	monitor snapshotSource
	logger  *zap.Logger
}

func NewMonitoringController(monitor snapshotSource, logger *zap.Logger) *MonitoringController {
	return &MonitoringController{monitor: monitor, logger: logger}
}

func (ctrl *MonitoringController) GetSnapshot(c echo.Context) error {
	snap, err := ctrl.monitor.Current(c.Request().Context())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, snap, http.StatusOK)
}
