package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
)

type Publisher interface {
	Publish(ctx context.Context, ev domain.OutboxEvent) error
	Close() error
}

// KafkaPublisher writes outbox events to one topic keyed by aggregate id,
// so events of one checkout stay ordered. A breaker stops hammering a
// broker that is down; the relay simply retries on its next tick.
type KafkaPublisher struct {
	writer *kafka.Writer
	cb     *gobreaker.CircuitBreaker[struct{}]
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaPublisher{writer: w, cb: newBreaker("kafka:" + topic)}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			applog.L().Warn("breaker.state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev domain.OutboxEvent) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(ev.AggregateID),
			Value: ev.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(ev.EventType)},
				{Key: "event_id", Value: []byte(ev.ID)},
			},
		})
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// LogPublisher is used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev domain.OutboxEvent) error {
	applog.L().Info("event.published",
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.EventType),
		zap.String("aggregate_id", ev.AggregateID),
		zap.Int("bytes", len(ev.Payload)))
	return nil
}

func (LogPublisher) Close() error { return nil }
