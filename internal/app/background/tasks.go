package background

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"go.uber.org/zap"
)

// Verifier is the slice of the billing usecase the background tasks drive.
type Verifier interface {
	VerifyExternalPayment(ctx context.Context, reference string) (*billingdto.VerifyOutput, error)
	VerifyWalletTopUp(ctx context.Context, userID, reference string) (*billingdto.TopUpVerifyOutput, error)
	ReconcilePendingPayments(ctx context.Context, input *billingdto.ReconcileInput) (*billingdto.ReconcileOutput, error)
}

type BackgroundTasks struct {
	Billing    Verifier
	Subscriber domain.SubscriberPort
	Reconciler config.Reconciler
	Kafka      config.KafkaService
	Logger     *zap.Logger
}

func NewBackgroundTasks(billing Verifier, subscriber domain.SubscriberPort, cfg *config.BillingConfig, logger *zap.Logger) *BackgroundTasks {
	return &BackgroundTasks{
		Billing:    billing,
		Subscriber: subscriber,
		Reconciler: cfg.Reconciler,
		Kafka:      cfg.KafkaService,
		Logger:     logger.Named("background"),
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	if bt.Reconciler.Enabled && bt.Reconciler.Interval > 0 {
		go bt.startPendingReconcile(ctx)
	}
	if bt.Subscriber != nil {
		go bt.startWebhookConsumer(ctx)
	}
}

func (bt *BackgroundTasks) startPendingReconcile(ctx context.Context) {
	ticker := time.NewTicker(bt.Reconciler.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.reconcileOnce(ctx)
		}
	}
}

func (bt *BackgroundTasks) reconcileOnce(ctx context.Context) {
	out, err := bt.Billing.ReconcilePendingPayments(ctx, &billingdto.ReconcileInput{
		OlderThan: bt.Reconciler.OlderThan,
		Limit:     bt.Reconciler.BatchSize,
	})
	if err != nil {
		bt.Logger.Error("reconcile pending payments", zap.Error(err))
		return
	}
	if out.Checked > 0 {
		bt.Logger.Info("reconciled pending payments",
			zap.Int("checked", out.Checked),
			zap.Int("settled", out.Settled),
			zap.Int("still_pending", out.StillPending),
			zap.Int("failed", out.Failed),
			zap.Int("errors", out.Errors),
		)
	}
}

func (bt *BackgroundTasks) startWebhookConsumer(ctx context.Context) {
	msgs, err := bt.Subscriber.Subscribe(ctx, bt.Kafka.WebhookTopic, bt.Kafka.GroupID)
	if err != nil {
		bt.Logger.Error("subscribe to payment webhooks", zap.String("topic", bt.Kafka.WebhookTopic), zap.Error(err))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			bt.handleWebhook(ctx, msg)
		}
	}
}

// handleWebhook never fails the stream: bad payloads and verification
// errors are logged and the reconciler picks the payment up later.
func (bt *BackgroundTasks) handleWebhook(ctx context.Context, msg domain.Message) {
	var hook domain.PaymentWebhook
	if err := json.Unmarshal(msg.Value, &hook); err != nil {
		bt.Logger.Warn("malformed payment webhook", zap.ByteString("key", msg.Key), zap.Error(err))
		return
	}
	log := bt.Logger.With(zap.String("reference", hook.Reference), zap.String("kind", string(hook.Kind)))

	switch hook.Kind {
	case domain.WebhookWalletTopUp:
		res, err := bt.Billing.VerifyWalletTopUp(ctx, hook.UserID, hook.Reference)
		if err != nil {
			log.Warn("webhook top-up verification failed", zap.Error(err))
			return
		}
		log.Info("webhook top-up verified", zap.String("status", string(res.Status)))
	case domain.WebhookOrderPayment, "":
		res, err := bt.Billing.VerifyExternalPayment(ctx, hook.Reference)
		if err != nil {
			log.Warn("webhook payment verification failed", zap.Error(err))
			return
		}
		log.Info("webhook payment verified",
			zap.String("status", string(res.Status)),
			zap.Bool("already_processed", res.AlreadyProcessed),
		)
	default:
		log.Warn("unknown webhook kind")
	}
}
