package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type DefaultKafkaSubscriber struct {
	cfg    config.KafkaService
	dialer *kafka.Dialer
	logger *zap.Logger
}

func NewDefaultKafkaSubscriber(cfg config.KafkaService, logger *zap.Logger) (*DefaultKafkaSubscriber, error) {
	dialer, err := newDialer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure kafka dialer: %w", err)
	}
	return &DefaultKafkaSubscriber{cfg: cfg, dialer: dialer, logger: logger}, nil
}

// Subscribe streams messages until ctx is cancelled or the reader fails;
// the channel is closed either way.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.cfg.Brokers(),
		Topic:   topic,
		GroupID: groupID,
		Dialer:  k.dialer,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					k.logger.Error("kafka read failed", zap.String("topic", topic), zap.Error(err))
				}
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
