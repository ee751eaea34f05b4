package mqhandler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/realtime"
	"github.com/piccolojnr/planning-platform/pkg/logger"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
)

// TableChangedHandler forwards change events from the broker to the realtime
// hub, where SSE connections pick them up.
type TableChangedHandler struct {
	hub    *realtime.Hub
	queue  string
	logger *zap.Logger
}

func NewTableChangedHandler(hub *realtime.Hub, queue string, logger *zap.Logger) *TableChangedHandler {
	return &TableChangedHandler{hub: hub, queue: queue, logger: logger}
}

func (h *TableChangedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	start := time.Now()
	log := logger.WithTrace(ctx, h.logger)

	var p contracts.TableChangedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal TableChangedPayload", zap.Error(err))
		return err
	}

	log.Debug("Handling table change event",
		zap.String("table", p.Table),
		zap.String("action", p.Action),
		zap.Int64("project_id", p.ProjectID),
	)

	if err := h.hub.Publish(ctx, p); err != nil {
		log.Error("Failed to forward change event",
			zap.String("table", p.Table),
			zap.Error(err),
		)
		return err
	}

	metrics.RecordMQConsumeLatency(contracts.RoutingKey(p.Table), h.queue, time.Since(start))
	return nil
}
