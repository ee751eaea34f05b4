package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
)

// Hub fans change events out to interested API connections via Redis
// pub/sub. The notifier publishes, SSE handlers subscribe.
type Hub struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{rdb: rdb, logger: logger}
}

func channelFor(table string) string {
	return "realtime:" + table
}

// Publish pushes a change event onto the table's channel.
func (h *Hub) Publish(ctx context.Context, payload contracts.TableChangedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if err := h.rdb.Publish(ctx, channelFor(payload.Table), body).Err(); err != nil {
		return fmt.Errorf("failed to publish realtime event: %w", err)
	}
	return nil
}

// Subscription is a scoped realtime subscription; Close releases the
// underlying pub/sub resources.
type Subscription struct {
	pubsub *redis.PubSub
	events chan contracts.TableChangedPayload
}

// Events returns the change event stream.
func (s *Subscription) Events() <-chan contracts.TableChangedPayload {
	return s.events
}

// Close unsubscribes and stops the pump goroutine.
func (s *Subscription) Close() {
	_ = s.pubsub.Close()
}

// Subscribe opens a subscription on one or more tables. The returned stream
// closes when the subscription is closed or the context ends.
func (h *Hub) Subscribe(ctx context.Context, tables ...string) *Subscription {
	channels := make([]string, 0, len(tables))
	for _, t := range tables {
		channels = append(channels, channelFor(t))
	}

	pubsub := h.rdb.Subscribe(ctx, channels...)
	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan contracts.TableChangedPayload, 16),
	}

	go func() {
		defer close(sub.events)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var payload contracts.TableChangedPayload
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					h.logger.Warn("Dropping malformed realtime event",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}

				select {
				case sub.events <- payload:
				default:
					// slow consumer: drop rather than block the pump; the
					// next event triggers the same whole-container refetch
				}
			}
		}
	}()

	return sub
}
