package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/open-data-gateway/internal/config"
	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AccessLog publishes access events to a Kafka topic without blocking the
// request that produced them.
type AccessLog struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAccessLog creates an async Kafka producer for the configured access log topic.
func NewAccessLog(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *AccessLog {
	a := &AccessLog{
		metrics: metrics,
		logger:  logger.With("component", "access_log"),
	}
	a.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.AccessLogBrokers...),
		Topic:        cfg.AccessLogTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
		Async:        true,
		Completion:   a.complete,
	}
	return a
}

// Record enqueues event. Failures are logged and counted, never returned.
func (a *AccessLog) Record(ctx context.Context, event domain.AccessEvent) {
	msg, err := serializeToMessage(event)
	if err != nil {
		a.drop(1, err)
		return
	}
	if err := a.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		a.drop(1, err)
	}
}

// Close flushes pending events and closes the producer.
func (a *AccessLog) Close() error {
	return a.writer.Close()
}

// complete is the async writer's delivery callback.
func (a *AccessLog) complete(msgs []kafkago.Message, err error) {
	if err != nil {
		a.drop(len(msgs), err)
	}
}

func (a *AccessLog) drop(n int, err error) {
	a.metrics.AccessLogDropped.Add(float64(n))
	a.logger.Warn("access log publish failed", "events", n, "error", err)
}

// serializeToMessage marshals an AccessEvent into a Kafka message keyed by route.
func serializeToMessage(event domain.AccessEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize access event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Route),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
