package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/metrics"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

type BillingUsecase interface {
	InitiateCheckout(ctx context.Context, input *billingdto.CheckoutInput) (*billingdto.CheckoutOutput, error)
	VerifyExternalPayment(ctx context.Context, reference string) (*billingdto.VerifyOutput, error)

	InitiateWalletTopUp(ctx context.Context, input *billingdto.TopUpInput) (*billingdto.TopUpOutput, error)
	VerifyWalletTopUp(ctx context.Context, userID, reference string) (*billingdto.TopUpVerifyOutput, error)
	TransferBetweenWallets(ctx context.Context, input *billingdto.TransferInput) (*billingdto.TransferOutput, error)
	RefundCardPayment(ctx context.Context, input *billingdto.RefundInput) (*billingdto.RefundOutput, error)

	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, input *billingdto.ListOrdersInput) (*billingdto.ListOrdersOutput, error)
	GetTransaction(ctx context.Context, txID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, input *billingdto.ListTransactionsInput) (*billingdto.ListTransactionsOutput, error)
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	UpdateOrderTracker(ctx context.Context, orderID string, update domain.TrackerUpdate) (*domain.Order, error)
	ListCheckoutFailures(ctx context.Context, input *billingdto.ListCheckoutFailuresInput) (*billingdto.ListCheckoutFailuresOutput, error)

	ReconcilePendingPayments(ctx context.Context, input *billingdto.ReconcileInput) (*billingdto.ReconcileOutput, error)
}

// Enqueuer accepts notification jobs. *notification.Queue satisfies it.
type Enqueuer interface {
	Enqueue(kind domain.NotificationKind, payload domain.OrderSnapshot) string
}

const (
	walletReference         = "wallet"
	defaultVerifyLockTTL    = 30 * time.Second
	eventPublishTimeout     = 5 * time.Second
	orderReferenceLength    = 15
	transferReferencePrefix = "TRF-"
)

type DefaultBillingUsecase struct {
	Ledger          domain.LedgerRepository
	IntentGateway   domain.IntentGateway
	RedirectGateway domain.RedirectGateway
	Notifications   Enqueuer
	Events          domain.OrderEventPublisher
	Locker          domain.VerificationLocker
	FailureLog      domain.UncreatedOrderRepository
	Metrics         *metrics.BillingMetrics
	Logger          *zap.Logger

	flows         map[domain.PaymentMethod]paymentFlow
	now           func() time.Time
	newReference  func() string
	verifyLockTTL time.Duration
}

type Option func(*DefaultBillingUsecase)

func WithEventPublisher(p domain.OrderEventPublisher) Option {
	return func(uc *DefaultBillingUsecase) { uc.Events = p }
}

func WithVerificationLocker(l domain.VerificationLocker, ttl time.Duration) Option {
	return func(uc *DefaultBillingUsecase) {
		uc.Locker = l
		if ttl > 0 {
			uc.verifyLockTTL = ttl
		}
	}
}

func WithFailureLog(r domain.UncreatedOrderRepository) Option {
	return func(uc *DefaultBillingUsecase) { uc.FailureLog = r }
}

func WithMetrics(m *metrics.BillingMetrics) Option {
	return func(uc *DefaultBillingUsecase) { uc.Metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(uc *DefaultBillingUsecase) { uc.now = now }
}

func WithReferenceGenerator(gen func() string) Option {
	return func(uc *DefaultBillingUsecase) { uc.newReference = gen }
}

func NewDefaultBillingUsecase(
	ledger domain.LedgerRepository,
	intentGateway domain.IntentGateway,
	redirectGateway domain.RedirectGateway,
	notifications Enqueuer,
	logger *zap.Logger,
	opts ...Option,
) (*DefaultBillingUsecase, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &DefaultBillingUsecase{
		Ledger:          ledger,
		IntentGateway:   intentGateway,
		RedirectGateway: redirectGateway,
		Notifications:   notifications,
		Logger:          logger.Named("billing"),
		now:             time.Now,
		verifyLockTTL:   defaultVerifyLockTTL,
	}
	for _, opt := range opts {
		opt(uc)
	}

	if uc.newReference == nil {
		gen, err := nanoid.Standard(orderReferenceLength)
		if err != nil {
			return nil, fmt.Errorf("init reference generator: %w", err)
		}
		uc.newReference = gen
	}

	uc.flows = map[domain.PaymentMethod]paymentFlow{
		domain.MethodCardIntent:      &cardIntentFlow{uc: uc},
		domain.MethodRedirectGateway: &redirectFlow{uc: uc},
		domain.MethodWallet:          &walletFlow{uc: uc},
		domain.MethodOffline:         &offlineFlow{uc: uc},
	}
	return uc, nil
}
