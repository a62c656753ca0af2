package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
)

// ErrPermanentFailure marks a delivery error that must not be retried.
var ErrPermanentFailure = errors.New("permanent delivery failure")

type Deliverer interface {
	Deliver(ctx context.Context, job domain.NotificationJob) error
}

// SenderDeliverer routes jobs to a NotificationSender by kind.
type SenderDeliverer struct {
	sender domain.NotificationSender
}

func NewSenderDeliverer(sender domain.NotificationSender) *SenderDeliverer {
	return &SenderDeliverer{sender: sender}
}

func (d *SenderDeliverer) Deliver(ctx context.Context, job domain.NotificationJob) error {
	switch job.Kind {
	case domain.NotificationOrderConfirmation:
		return d.sender.SendOrderConfirmation(ctx, job.Payload)
	case domain.NotificationOwnerAlert:
		return d.sender.SendOwnerAlert(ctx, job.Payload)
	default:
		return fmt.Errorf("%w: unknown job kind %q", ErrPermanentFailure, job.Kind)
	}
}

// DelivererFunc adapts a plain function to Deliverer.
type DelivererFunc func(ctx context.Context, job domain.NotificationJob) error

func (f DelivererFunc) Deliver(ctx context.Context, job domain.NotificationJob) error {
	return f(ctx, job)
}
