package seeders

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/services"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// LineError - ошибка конкретной строки файла (нумерация с 1, как в редакторе).
type LineError struct {
	Line int
	Name string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("строка %d [%s]: %v", e.Line, e.Name, e.Err)
}

type ImportResult struct {
	Created int
	Skipped int
	Failed  int
	Errors  []LineError
}

// Importer загружает оборудование из CSV/XLSX через EquipmentService,
// поэтому проверки те же, что и у HTTP API.
// Колонки: name, type, status, location, lastInspection, nextInspection. Первая строка - заголовок.
type Importer struct {
	service services.EquipmentServiceInterface
	logger  *zap.Logger
}

func NewImporter(service services.EquipmentServiceInterface, logger *zap.Logger) *Importer {
	return &Importer{service: service, logger: logger}
}

// ImportFile выбирает формат по расширению файла.
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return im.ImportCSV(ctx, f)
	case ".xlsx":
		return im.ImportXLSX(ctx, f)
	default:
		return nil, fmt.Errorf("неподдерживаемый формат файла %q, ожидается .csv или .xlsx", filepath.Ext(path))
	}
}

func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return im.importRows(ctx, rows)
}

// ImportXLSX читает первый лист книги.
func (im *Importer) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия книги: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &ImportResult{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %q: %w", sheets[0], err)
	}
	return im.importRows(ctx, rows)
}

func (im *Importer) importRows(ctx context.Context, rows [][]string) (*ImportResult, error) {
	res := &ImportResult{}
	if len(rows) == 0 {
		return res, nil
	}

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := i + 2
		if isBlankRow(row) {
			continue
		}

		name := cell(row, 0)
		if name == "" {
			res.Skipped++
			continue
		}

		payload := dto.CreateEquipmentDTO{
			Name:           name,
			Type:           cell(row, 1),
			Status:         cell(row, 2),
			Location:       cell(row, 3),
			LastInspection: dateCell(row, 4),
			NextInspection: dateCell(row, 5),
		}
		if _, err := im.service.CreateEquipment(ctx, payload); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, LineError{Line: line, Name: name, Err: err})
			im.logger.Warn("Строка не импортирована", zap.Int("line", line), zap.String("name", name), zap.Error(err))
			continue
		}
		res.Created++
	}

	im.logger.Info("Импорт завершен",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func dateCell(row []string, idx int) dto.OptionalDate {
	v := cell(row, idx)
	if v == "" {
		return dto.OptionalDate{}
	}
	return dto.DateValue(v)
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
