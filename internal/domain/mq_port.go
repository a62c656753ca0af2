package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}

type OrderEvent struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id,omitempty"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// WebhookKind selects which verification a gateway webhook feeds.
type WebhookKind string

const (
	WebhookOrderPayment WebhookKind = "order"
	WebhookWalletTopUp  WebhookKind = "topup"
)

type PaymentWebhook struct {
	Kind      WebhookKind `json:"kind"`
	Reference string      `json:"reference"`
	UserID    string      `json:"user_id,omitempty"`
}
