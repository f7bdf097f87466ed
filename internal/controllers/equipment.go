package controllers

import (
	"net/http"
	"strings"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/services"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(
	service services.EquipmentServiceInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		equipmentService: service,
		logger:           logger,
	}
}

func (c *EquipmentController) GetEquipments(ctx echo.Context) error {
	res, err := c.equipmentService.GetEquipments(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, http.StatusOK)
}

func (c *EquipmentController) FindEquipment(ctx echo.Context) error {
	res, err := c.equipmentService.FindEquipment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, http.StatusOK)
}

func (c *EquipmentController) CreateEquipment(ctx echo.Context) error {
	var payload dto.CreateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, "CreateEquipment", err)
	}
	if err := ctx.Validate(&payload); err != nil {
		c.logger.Warn("CreateEquipment: ошибка валидации данных", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.CreateEquipment(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, http.StatusCreated)
}

func (c *EquipmentController) UpdateEquipment(ctx echo.Context) error {
	var payload dto.UpdateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, "UpdateEquipment", err)
	}
	if err := ctx.Validate(&payload); err != nil {
		c.logger.Warn("UpdateEquipment: ошибка валидации данных", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.UpdateEquipment(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, http.StatusOK)
}

func (c *EquipmentController) ChangeStatus(ctx echo.Context) error {
	var payload dto.ChangeStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, "ChangeStatus", err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.ChangeStatus(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, http.StatusOK)
}

func (c *EquipmentController) CompleteMaintenance(ctx echo.Context) error {
	var payload dto.CompleteMaintenanceDTO
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, "CompleteMaintenance", err)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.CompleteMaintenance(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, http.StatusOK)
}

// GetMaintenanceHistory - журнал обслуживания, ?order=desc - сначала свежие.
func (c *EquipmentController) GetMaintenanceHistory(ctx echo.Context) error {
	order := strings.ToLower(ctx.QueryParam("order"))
	if order != "" && order != "asc" && order != "desc" {
		return utils.ErrorResponse(ctx, apperrors.NewValidationError("order", "допустимо asc или desc"), c.logger)
	}

	res, err := c.equipmentService.GetMaintenanceHistory(ctx.Request().Context(), ctx.Param("id"), order == "desc")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, http.StatusOK)
}

func (c *EquipmentController) DeleteEquipment(ctx echo.Context) error {
	if err := c.equipmentService.DeleteEquipment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, utils.MessageResponse{Message: "Оборудование успешно удалено"}, http.StatusOK)
}

func (c *EquipmentController) badRequest(ctx echo.Context, op string, err error) error {
	c.logger.Warn(op+": ошибка привязки данных", zap.Error(err))
	return utils.ErrorResponse(
		ctx,
		apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
		c.logger,
	)
}
