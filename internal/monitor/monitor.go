// Package monitor периодически пересчитывает снимок мониторинга: ближайшие проверки
// с уровнем срочности и сводку по статусам.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"equipment-qms/internal/dto"
	"equipment-qms/internal/entities"
	"equipment-qms/internal/scheduling"
	"equipment-qms/internal/services"
	"equipment-qms/pkg/constants"
	"equipment-qms/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type equipmentLister interface {
	GetEquipments(ctx context.Context) ([]entities.Equipment, error)
}

type Options struct {
	Schedule       string
	Location       *time.Location
	UpcomingWindow int
	Clock          services.Clock
}

// InspectionMonitor - отменяемая периодическая задача. Каждый запуск отменяет предыдущий,
// если тот еще не закончился, а результат отмененного запуска никогда не публикуется.
type InspectionMonitor struct {
	repo    equipmentLister
	opts    Options
	cron    *cron.Cron
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancelPrev context.CancelFunc
	baseCtx    context.Context
	stopBase   context.CancelFunc

	snapshot atomic.Pointer[dto.MonitoringSnapshotDTO]
}

func New(repo equipmentLister, opts Options, m *metrics.Metrics, logger *zap.Logger) *InspectionMonitor {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Schedule == "" {
		opts.Schedule = "@every 30s"
	}
	if opts.Clock == nil {
		opts.Clock = services.SystemClock
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &InspectionMonitor{
		repo:     repo,
		opts:     opts,
		cron:     cron.New(cron.WithLocation(opts.Location)),
		metrics:  m,
		logger:   logger,
		baseCtx:  baseCtx,
		stopBase: stop,
	}
}

// Start регистрирует задачу в cron и сразу делает первый пересчет в фоне.
func (m *InspectionMonitor) Start() error {
	if _, err := m.cron.AddFunc(m.opts.Schedule, m.tick); err != nil {
		return fmt.Errorf("некорректное расписание мониторинга %q: %w", m.opts.Schedule, err)
	}
	m.cron.Start()
	go m.tick()
	m.logger.Info("Мониторинг проверок запущен", zap.String("schedule", m.opts.Schedule))
	return nil
}

// Stop останавливает планировщик, отменяет текущий пересчет и ждет завершения запущенных задач.
func (m *InspectionMonitor) Stop(ctx context.Context) {
	m.stopBase()
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	m.logger.Info("Мониторинг проверок остановлен")
}

// Snapshot - последний опубликованный снимок, nil до первого пересчета.
func (m *InspectionMonitor) Snapshot() *dto.MonitoringSnapshotDTO {
	return m.snapshot.Load()
}

// Current отдает последний снимок, а если его еще нет - пересчитывает синхронно.
func (m *InspectionMonitor) Current(ctx context.Context) (*dto.MonitoringSnapshotDTO, error) {
	if s := m.Snapshot(); s != nil {
		return s, nil
	}
	return m.Refresh(ctx)
}

// Refresh пересчитывает снимок в рамках ctx и отменяет идущий плановый пересчет.
// Плановые пересчеты Refresh не отменяют: если за время работы опубликован более новый
// снимок, вызывающий все равно получает свой результат, но он не публикуется.
func (m *InspectionMonitor) Refresh(ctx context.Context) (*dto.MonitoringSnapshotDTO, error) {
	runCtx, gen, cancel := m.begin(ctx, false)
	defer cancel()
	return m.refresh(runCtx, gen, false)
}

func (m *InspectionMonitor) tick() {
	ctx, gen, cancel := m.begin(m.baseCtx, true)
	defer cancel()
	if _, err := m.refresh(ctx, gen, true); err != nil && ctx.Err() == nil && !errors.Is(err, errSuperseded) {
		m.logger.Error("Ошибка пересчета мониторинга", zap.Error(err))
	}
}

// begin отменяет предыдущий плановый пересчет и открывает новое поколение.
// cancelable - следующий begin вправе отменить этот запуск.
func (m *InspectionMonitor) begin(parent context.Context, cancelable bool) (context.Context, uint64, context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelPrev != nil {
		m.cancelPrev()
		m.cancelPrev = nil
	}
	ctx, cancel := context.WithCancel(parent)
	m.generation++
	if cancelable {
		m.cancelPrev = cancel
	}
	return ctx, m.generation, cancel
}

var errSuperseded = errors.New("пересчет мониторинга вытеснен более новым")

func (m *InspectionMonitor) refresh(ctx context.Context, gen uint64, scheduled bool) (*dto.MonitoringSnapshotDTO, error) {
	list, err := m.repo.GetEquipments(ctx)
	if ctx.Err() != nil {
		m.count("cancelled")
		return nil, ctx.Err()
	}
	if err != nil {
		m.count("error")
		return nil, err
	}

	now := m.opts.Clock()
	upcoming := scheduling.Upcoming(list, now, m.opts.Location, m.opts.UpcomingWindow)
	snap := &dto.MonitoringSnapshotDTO{
		GeneratedAt: now,
		Counts:      scheduling.StatusCounts(list),
		Alerts:      services.ScheduledDTOs(upcoming, true),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		m.count("cancelled")
		return nil, ctx.Err()
	}
	if gen != m.generation {
		m.count("superseded")
		if scheduled {
			return nil, errSuperseded
		}
		return snap, nil
	}
	m.snapshot.Store(snap)
	m.count("ok")
	m.observe(snap)
	return snap, nil
}

func (m *InspectionMonitor) count(result string) {
	if m.metrics != nil {
		m.metrics.MonitorRefreshes.WithLabelValues(result).Inc()
	}
}

func (m *InspectionMonitor) observe(snap *dto.MonitoringSnapshotDTO) {
	if m.metrics == nil {
		return
	}
	levels := map[string]int{
		constants.AlertLevelUrgent:  0,
		constants.AlertLevelWarning: 0,
		constants.AlertLevelInfo:    0,
	}
	for _, a := range snap.Alerts {
		levels[a.AlertLevel]++
	}
	for level, n := range levels {
		m.metrics.MonitorAlerts.WithLabelValues(level).Set(float64(n))
	}
	m.metrics.EquipmentByStatus.WithLabelValues(constants.EquipmentStatusActive.String()).Set(float64(snap.Counts.Active))
	m.metrics.EquipmentByStatus.WithLabelValues(constants.EquipmentStatusMaintenance.String()).Set(float64(snap.Counts.Maintenance))
	m.metrics.EquipmentByStatus.WithLabelValues(constants.EquipmentStatusInactive.String()).Set(float64(snap.Counts.Inactive))
}
