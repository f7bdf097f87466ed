package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/services"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/utils"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	equipmentSheet = "Equipment"
	summarySheet   = "Summary"
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	loc           *time.Location
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, loc *time.Location, logger *zap.Logger) *ReportController {
	if loc == nil {
		loc = time.Local
	}
	return &ReportController{reportService: reportService, loc: loc, logger: logger}
}

// GetEquipmentReport - ?format=json (по умолчанию) или ?format=xlsx.
func (c *ReportController) GetEquipmentReport(ctx echo.Context) error {
	format := strings.ToLower(ctx.QueryParam("format"))
	if format != "" && format != "json" && format != "xlsx" {
		return utils.ErrorResponse(ctx, apperrors.NewValidationError("format", "допустимо json или xlsx"), c.logger)
	}
	c.logger.Debug("Запрос на отчет по оборудованию", zap.String("format", format))

	report, err := c.reportService.GetEquipmentReport(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if format == "xlsx" {
		return c.respondWithXLSX(ctx, report)
	}
	return utils.SuccessResponse(ctx, report, http.StatusOK)
}

var reportHeaders = []string{
	"Name", "Type", "Status", "Location", "Last inspection", "Next inspection",
	"Days until", "Schedule", "Maintenance entries",
}

func (c *ReportController) rowToSlice(row dto.ReportRowDTO) []interface{} {
	days := ""
	if row.DaysUntil != nil {
		days = fmt.Sprint(*row.DaysUntil)
	}
	return []interface{}{
		row.Name, row.Type, row.Status, row.Location,
		c.formatDate(row.LastInspection), c.formatDate(row.NextInspection),
		days, row.ScheduleState, row.MaintenanceLog,
	}
}

func (c *ReportController) formatDate(t null.Time) string {
	if !t.Valid {
		return ""
	}
	return utils.FormatDate(t.Time, c.loc)
}

func (c *ReportController) buildWorkbook(report *dto.EquipmentReportDTO) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", equipmentSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(equipmentSheet, "A1", &reportHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(equipmentSheet, "A1", "I1", style)

	for i, item := range report.Equipment {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := c.rowToSlice(item)
		if err := f.SetSheetRow(equipmentSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(equipmentSheet, "A", "A", 30)
	_ = f.SetColWidth(equipmentSheet, "B", "D", 20)
	_ = f.SetColWidth(equipmentSheet, "E", "F", 16)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summary := [][]interface{}{
		{"Metric", "Count", "Percent"},
		{"Total", report.Summary.Total, 100},
		{"Active", report.Summary.Active, report.Percentages.Active},
		{"Maintenance", report.Summary.Maintenance, report.Percentages.Maintenance},
		{"Inactive", report.Summary.Inactive, report.Percentages.Inactive},
		{"Generated", report.Generated.In(c.loc).Format(time.RFC3339), ""},
	}
	if report.Summary.Total == 0 {
		summary[1][2] = 0
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(summarySheet, cell, &r); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(summarySheet, "A1", "C1", style)
	return f, nil
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, report *dto.EquipmentReportDTO) error {
	f, err := c.buildWorkbook(report)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusInternalServerError, "Не удалось сформировать файл отчета", err, nil), c.logger)
	}
	defer f.Close()

	fileName := fmt.Sprintf("equipment_report_%s.xlsx", report.Generated.In(c.loc).Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, xlsxMIME)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
