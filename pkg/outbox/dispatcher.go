package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/pkg/mq"
)

// Dispatcher drains pending outbox events and publishes them to the MQ.
type Dispatcher struct {
	repo       *Repository
	publisher  *mq.Publisher
	logger     *zap.Logger
	maxRetries int
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(
	repo *Repository,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		maxRetries: 5,
		interval:   1 * time.Second,
		batchSize:  100,
	}
}

// WithMaxRetries sets the maximum publish attempts per event.
func (d *Dispatcher) WithMaxRetries(maxRetries int) *Dispatcher {
	d.maxRetries = maxRetries
	return d
}

// WithInterval sets the scan interval.
func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	d.interval = interval
	return d
}

// WithBatchSize sets the per-scan batch size.
func (d *Dispatcher) WithBatchSize(batchSize int) *Dispatcher {
	d.batchSize = batchSize
	return d
}

// Start runs the dispatcher loop until the context is cancelled. Call in a
// goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting outbox dispatcher",
		zap.Int("max_retries", d.maxRetries),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	deadCheck := time.NewTicker(1 * time.Minute)
	defer deadCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.processPendingEvents(ctx)
		case <-deadCheck.C:
			d.reportDeadEvents(ctx)
		}
	}
}

// reportDeadEvents surfaces retry-exhausted events that are waiting for
// manual cleanup.
func (d *Dispatcher) reportDeadEvents(ctx context.Context) {
	dead, err := d.repo.GetDeadEvents(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to check dead events", zap.Error(err))
		return
	}
	if len(dead) > 0 {
		d.logger.Warn("Dead outbox events awaiting cleanup", zap.Int("count", len(dead)))
	}
}

// deadLetter forwards an exhausted event to the dead letter exchange so it
// stays inspectable outside the outbox table.
func (d *Dispatcher) deadLetter(event *Event, publishErr error) {
	if err := d.publisher.PublishToDLQ(event.RoutingKey, event.Payload, publishErr.Error()); err != nil {
		d.logger.Error("Failed to dead-letter event",
			zap.Int64("event_id", event.ID),
			zap.String("routing_key", event.RoutingKey),
			zap.Error(err),
		)
		return
	}
	d.logger.Warn("Event dead-lettered",
		zap.Int64("event_id", event.ID),
		zap.String("routing_key", event.RoutingKey),
		zap.Int("retries", event.RetryCount+1),
	)
}

func (d *Dispatcher) processPendingEvents(ctx context.Context) {
	events, err := d.repo.GetPendingEvents(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to get pending events", zap.Error(err))
		return
	}

	if len(events) == 0 {
		return
	}

	d.logger.Debug("Processing pending events",
		zap.Int("count", len(events)),
	)

	for _, event := range events {
		if err := d.publisher.PublishWithContext(ctx, event.RoutingKey, event.Payload); err != nil {
			d.logger.Error("Failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.Error(err),
			)

			if err := d.repo.MarkAsFailed(ctx, event.ID, d.maxRetries); err != nil {
				d.logger.Error("Failed to mark event as failed",
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
				continue
			}

			if event.RetryCount+1 >= d.maxRetries {
				d.deadLetter(event, err)
			}
			continue
		}

		if err := d.repo.MarkAsSent(ctx, event.ID); err != nil {
			d.logger.Error("Failed to mark event as sent",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
		} else {
			d.logger.Debug("Event published successfully",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
			)
		}
	}
}
