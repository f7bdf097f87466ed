package listeners

import (
	"context"
	"fmt"

	"equipment-qms/internal/events"
	"equipment-qms/pkg/eventbus"
	"equipment-qms/pkg/metrics"

	"go.uber.org/zap"
)

// AuditListener пишет журнал аудита изменений оборудования и считает их в метриках.
// Путь запроса от него не зависит.
type AuditListener struct {
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewAuditListener(m *metrics.Metrics, logger *zap.Logger) *AuditListener {
	return &AuditListener{metrics: m, logger: logger}
}

func (l *AuditListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.EquipmentChangedEventName, l.handleEquipmentChanged)
	l.logger.Info("AuditListener подписан на событие", zap.String("event", events.EquipmentChangedEventName))
}

func (l *AuditListener) handleEquipmentChanged(_ context.Context, e eventbus.Event) error {
	event, ok := e.(events.EquipmentChangedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", e)
	}

	fields := []zap.Field{
		zap.String("action", event.Action),
		zap.String("equipment_id", event.EquipmentID),
		zap.Time("at", event.At),
	}
	if event.EquipmentName != "" {
		fields = append(fields, zap.String("name", event.EquipmentName))
	}
	if event.OldStatus != "" && event.OldStatus != event.Status {
		fields = append(fields, zap.String("from", event.OldStatus), zap.String("to", event.Status))
	}
	l.logger.Info("АУДИТ: изменение оборудования", fields...)

	if l.metrics != nil {
		l.metrics.EquipmentChanges.WithLabelValues(event.Action).Inc()
	}
	return nil
}
