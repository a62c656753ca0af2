package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type DefaultKafkaPublisher struct {
	writer     messageWriter
	orderTopic string
	now        func() time.Time
}

func NewDefaultKafkaPublisher(cfg config.KafkaService) (*DefaultKafkaPublisher, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure kafka transport: %w", err)
	}
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers()...),
			Balancer:               &kafka.LeastBytes{},
			Transport:              transport,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		orderTopic: cfg.OrderEventsTopic,
		now:        time.Now,
	}, nil
}

func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  k.now(),
			Topic: topic,
		})
	}
	return k.writer.WriteMessages(ctx, km...)
}

// PublishOrderEvent keys by order id so every event for one order lands
// on the same partition.
func (k *DefaultKafkaPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	v, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return k.Publish(ctx, k.orderTopic, domain.Message{Key: []byte(event.OrderID), Value: v})
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
