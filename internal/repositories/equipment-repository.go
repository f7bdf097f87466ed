package repositories

import (
	"context"
	"database/sql"
	"errors"

	"equipment-qms/internal/entities"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/database"
	apperrors "equipment-qms/pkg/errors"
	"equipment-qms/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"go.uber.org/zap"
)

const (
	equipmentTable   = "equipment"
	maintenanceTable = "maintenance_entries"
)

var equipmentColumns = []string{
	"id", "name", "type", "status", "location",
	"last_inspection", "next_inspection", "created_at", "updated_at",
}

var maintenanceColumns = []string{"equipment_id", "performed_at", "documentation", "technician", "notes"}

// MutateFunc меняет прочитанную под блокировкой запись и говорит, что делать с журналом.
// apperrors.ErrNoChanges из MutateFunc означает "писать нечего": запись вернется как была.
type MutateFunc func(e *entities.Equipment) (entities.HistoryMode, error)

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context) ([]entities.Equipment, error)
	FindEquipment(ctx context.Context, id string) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, equipment *entities.Equipment) error
	UpdateEquipment(ctx context.Context, id string, mutate MutateFunc) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (types.DashboardCounts, error)
}

type EquipmentRepository struct {
	storage *database.DB
	tx      TxManagerInterface
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *database.DB, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{
		storage: storage,
		tx:      NewTxManager(storage),
		logger:  logger,
	}
}

func (r *EquipmentRepository) GetEquipments(ctx context.Context) ([]entities.Equipment, error) {
	query, args, err := r.storage.Builder().
		Select(equipmentColumns...).
		From(equipmentTable).
		OrderBy("pk ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("список оборудования", err)
	}
	defer rows.Close()

	list := make([]entities.Equipment, 0)
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("чтение оборудования", err)
		}
		index[e.ID] = len(list)
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("список оборудования", err)
	}
	rows.Close()

	histories, err := r.loadHistories(ctx, r.storage, "")
	if err != nil {
		return nil, err
	}
	for equipmentID, entries := range histories {
		if i, ok := index[equipmentID]; ok {
			list[i].MaintenanceHistory = entries
		}
	}
	return list, nil
}

func (r *EquipmentRepository) FindEquipment(ctx context.Context, id string) (*entities.Equipment, error) {
	return r.findEquipment(ctx, r.storage, id, false)
}

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, equipment *entities.Equipment) error {
	return r.tx.RunInTransaction(ctx, func(tx *sql.Tx) error {
		query, args, err := r.storage.Builder().
			Insert(equipmentTable).
			Columns(equipmentColumns...).
			Values(
				equipment.ID,
				equipment.Name,
				equipment.Type,
				equipment.Status.String(),
				equipment.Location,
				nullTimeArg(equipment.LastInspection),
				nullTimeArg(equipment.NextInspection),
				equipment.CreatedAt.UTC(),
				equipment.UpdatedAt.UTC(),
			).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewPersistenceError("создание оборудования", err)
		}
		return r.insertEntries(ctx, tx, equipment.ID, 0, equipment.MaintenanceHistory)
	})
}

// UpdateEquipment читает запись (в Postgres под FOR UPDATE), отдает ее в mutate и целиком
// сохраняет результат в той же транзакции. Параллельные изменения одной записи не теряются.
func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, id string, mutate MutateFunc) (*entities.Equipment, error) {
	var result *entities.Equipment

	err := r.tx.RunInTransaction(ctx, func(tx *sql.Tx) error {
		current, err := r.findEquipment(ctx, tx, id, r.storage.SupportsRowLocks())
		if err != nil {
			return err
		}
		storedHistoryLen := len(current.MaintenanceHistory)

		next := current.Clone()
		mode, err := mutate(next)
		if errors.Is(err, apperrors.ErrNoChanges) {
			result = current
			return nil
		}
		if err != nil {
			return err
		}

		query, args, err := r.storage.Builder().
			Update(equipmentTable).
			SetMap(map[string]interface{}{
				"name":            next.Name,
				"type":            next.Type,
				"status":          next.Status.String(),
				"location":        next.Location,
				"last_inspection": nullTimeArg(next.LastInspection),
				"next_inspection": nullTimeArg(next.NextInspection),
				"updated_at":      next.UpdatedAt.UTC(),
			}).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewPersistenceError("обновление оборудования", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return apperrors.ErrNotFound
		}

		switch mode {
		case entities.HistoryAppend:
			if len(next.MaintenanceHistory) > storedHistoryLen {
				lastSeq, err := r.lastSeq(ctx, tx, id)
				if err != nil {
					return err
				}
				if err := r.insertEntries(ctx, tx, id, lastSeq, next.MaintenanceHistory[storedHistoryLen:]); err != nil {
					return err
				}
			}
		case entities.HistoryReplace:
			if err := r.deleteEntries(ctx, tx, id); err != nil {
				return err
			}
			if err := r.insertEntries(ctx, tx, id, 0, next.MaintenanceHistory); err != nil {
				return err
			}
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id string) error {
	return r.tx.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.deleteEntries(ctx, tx, id); err != nil {
			return err
		}

		query, args, err := r.storage.Builder().
			Delete(equipmentTable).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewPersistenceError("удаление оборудования", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

func (r *EquipmentRepository) CountByStatus(ctx context.Context) (types.DashboardCounts, error) {
	query, args, err := r.storage.Builder().
		Select(
			"COUNT(*)",
			"COUNT(CASE WHEN status = '"+constants.EquipmentStatusActive.String()+"' THEN 1 END)",
			"COUNT(CASE WHEN status = '"+constants.EquipmentStatusMaintenance.String()+"' THEN 1 END)",
			"COUNT(CASE WHEN status = '"+constants.EquipmentStatusInactive.String()+"' THEN 1 END)",
		).
		From(equipmentTable).
		ToSql()
	if err != nil {
		return types.DashboardCounts{}, err
	}

	var counts types.DashboardCounts
	err = r.storage.QueryRowContext(ctx, query, args...).
		Scan(&counts.Total, &counts.Active, &counts.Maintenance, &counts.Inactive)
	if err != nil {
		return types.DashboardCounts{}, apperrors.NewPersistenceError("подсчет по статусам", err)
	}
	return counts, nil
}

func (r *EquipmentRepository) findEquipment(ctx context.Context, q querier, id string, lock bool) (*entities.Equipment, error) {
	builder := r.storage.Builder().
		Select(equipmentColumns...).
		From(equipmentTable).
		Where(sq.Eq{"id": id})
	if lock {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	e, err := scanEquipment(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewPersistenceError("поиск оборудования", err)
	}

	histories, err := r.loadHistories(ctx, q, id)
	if err != nil {
		return nil, err
	}
	e.MaintenanceHistory = histories[id]
	if e.MaintenanceHistory == nil {
		e.MaintenanceHistory = []entities.MaintenanceEntry{}
	}
	return e, nil
}

// loadHistories читает журналы в порядке seq. Пустой equipmentID - журналы всех записей.
func (r *EquipmentRepository) loadHistories(ctx context.Context, q querier, equipmentID string) (map[string][]entities.MaintenanceEntry, error) {
	builder := r.storage.Builder().
		Select(maintenanceColumns...).
		From(maintenanceTable).
		OrderBy("equipment_id", "seq ASC")
	if equipmentID != "" {
		builder = builder.Where(sq.Eq{"equipment_id": equipmentID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("журнал обслуживания", err)
	}
	defer rows.Close()

	result := make(map[string][]entities.MaintenanceEntry)
	for rows.Next() {
		var (
			owner string
			entry entities.MaintenanceEntry
		)
		if err := rows.Scan(&owner, &entry.Date, &entry.Documentation, &entry.Technician, &entry.Notes); err != nil {
			return nil, apperrors.NewPersistenceError("чтение журнала обслуживания", err)
		}
		entry.Date = entry.Date.UTC()
		result[owner] = append(result[owner], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("журнал обслуживания", err)
	}
	return result, nil
}

func (r *EquipmentRepository) insertEntries(ctx context.Context, tx *sql.Tx, equipmentID string, afterSeq int64, entries []entities.MaintenanceEntry) error {
	if len(entries) == 0 {
		return nil
	}

	builder := r.storage.Builder().
		Insert(maintenanceTable).
		Columns("equipment_id", "seq", "performed_at", "documentation", "technician", "notes")
	for i, entry := range entries {
		builder = builder.Values(
			equipmentID,
			afterSeq+int64(i)+1,
			entry.Date.UTC(),
			entry.Documentation,
			entry.Technician,
			entry.Notes,
		)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewPersistenceError("запись журнала обслуживания", err)
	}
	return nil
}

func (r *EquipmentRepository) deleteEntries(ctx context.Context, tx *sql.Tx, equipmentID string) error {
	query, args, err := r.storage.Builder().
		Delete(maintenanceTable).
		Where(sq.Eq{"equipment_id": equipmentID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewPersistenceError("очистка журнала обслуживания", err)
	}
	return nil
}

func (r *EquipmentRepository) lastSeq(ctx context.Context, tx *sql.Tx, equipmentID string) (int64, error) {
	query, args, err := r.storage.Builder().
		Select("COALESCE(MAX(seq), 0)").
		From(maintenanceTable).
		Where(sq.Eq{"equipment_id": equipmentID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&seq); err != nil {
		return 0, apperrors.NewPersistenceError("журнал обслуживания", err)
	}
	return seq, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*entities.Equipment, error) {
	var (
		e      entities.Equipment
		status string
	)
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Type,
		&status,
		&e.Location,
		&e.LastInspection,
		&e.NextInspection,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = constants.EquipmentStatus(status)
	e.LastInspection = utcNullTime(e.LastInspection)
	e.NextInspection = utcNullTime(e.NextInspection)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	e.MaintenanceHistory = []entities.MaintenanceEntry{}
	return &e, nil
}

func nullTimeArg(t null.Time) interface{} {
	if !t.Valid {
		return nil
	}
	return t.Time.UTC()
}

func utcNullTime(t null.Time) null.Time {
	if !t.Valid {
		return t
	}
	return null.TimeFrom(t.Time.UTC())
}
