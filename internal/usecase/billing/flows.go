package billing

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"go.uber.org/zap"
)

// paymentFlow is one payment method's checkout and verification path.
// Reserve does whatever must happen before the ledger write (gateway intent,
// early order row); Capture finishes the checkout.
type paymentFlow interface {
	Validate(plan *checkoutPlan) error
	Reserve(ctx context.Context, plan *checkoutPlan) (*reservation, error)
	Capture(ctx context.Context, plan *checkoutPlan, res *reservation) (*billingdto.CheckoutOutput, error)
	Verify(ctx context.Context, reference string) (*domain.Verification, error)
}

type reservation struct {
	intent *domain.Intent
	order  *domain.Order
}

func requireEmail(plan *checkoutPlan) error {
	if plan.buyer.Email == "" {
		return domain.Validationf("buyer email is required for %s payments", plan.method)
	}
	return nil
}

func notVerifiable(method domain.PaymentMethod) error {
	return domain.Validationf("%s payments are settled at checkout and cannot be verified", method)
}

// card-intent: the intent is created first; the order exists only once the
// gateway has accepted it.
type cardIntentFlow struct {
	uc *DefaultBillingUsecase
}

func (f *cardIntentFlow) Validate(plan *checkoutPlan) error {
	return requireEmail(plan)
}

func (f *cardIntentFlow) Reserve(ctx context.Context, plan *checkoutPlan) (*reservation, error) {
	metadata := map[string]string{
		"email":     plan.buyer.Email,
		"reference": plan.reference,
	}
	if plan.buyer.UserID != "" {
		metadata["user_id"] = plan.buyer.UserID
	}

	intent, err := f.uc.IntentGateway.CreateIntent(ctx, plan.amount, plan.buyer.Email, metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: create intent: %w", domain.ErrGatewayRejected, err)
	}
	if intent.Status == domain.GatewayFailed || intent.ID == "" {
		return nil, domain.GatewayRejectedf("intent %q returned status %s", intent.ID, intent.RawStatus)
	}
	return &reservation{intent: intent}, nil
}

func (f *cardIntentFlow) Capture(ctx context.Context, plan *checkoutPlan, res *reservation) (*billingdto.CheckoutOutput, error) {
	order := f.uc.newOrder(plan, domain.OrderStatusPending)
	order.PaymentIntentID = res.intent.ID
	tx := f.uc.newTransaction(order, domain.MethodCardIntent, domain.TxStatusPending, res.intent.ID)

	err := f.uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		if err := ltx.CreateOrder(order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := ltx.CreateTransaction(tx); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		f.uc.Logger.Error("intent created but order was not persisted",
			zap.String("payment_intent_id", res.intent.ID),
			zap.String("reference", plan.reference),
			zap.Error(err),
		)
		return nil, err
	}

	return &billingdto.CheckoutOutput{
		Order:           order,
		Transaction:     tx,
		PaymentIntentID: res.intent.ID,
		ClientSecret:    res.intent.ClientSecret,
		Reference:       order.Reference,
	}, nil
}

func (f *cardIntentFlow) Verify(ctx context.Context, reference string) (*domain.Verification, error) {
	details, err := f.uc.IntentGateway.RetrieveIntent(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &domain.Verification{
		Reference: details.ID,
		Status:    details.Status,
		RawStatus: details.RawStatus,
		Amount:    details.Amount,
	}, nil
}

// redirect-gateway: the order is written before the buyer is sent to the
// provider, so an abandoned authorization still leaves a record.
type redirectFlow struct {
	uc *DefaultBillingUsecase
}

func (f *redirectFlow) Validate(plan *checkoutPlan) error {
	return requireEmail(plan)
}

func (f *redirectFlow) Reserve(ctx context.Context, plan *checkoutPlan) (*reservation, error) {
	order := f.uc.newOrder(plan, domain.OrderStatusPending)
	err := f.uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		return ltx.CreateOrder(order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &reservation{order: order}, nil
}

func (f *redirectFlow) Capture(ctx context.Context, plan *checkoutPlan, res *reservation) (*billingdto.CheckoutOutput, error) {
	order := res.order

	auth, err := f.uc.RedirectGateway.CreateAuthorization(ctx, domain.ToMinorUnits(plan.amount), plan.buyer.Email)
	if err == nil && (auth.Status == domain.GatewayFailed || auth.Reference == "") {
		err = fmt.Errorf("authorization returned status %s", auth.Status)
	}
	if err != nil {
		f.abandon(ctx, order)
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayRejected, err)
	}

	tx := f.uc.newTransaction(order, domain.MethodRedirectGateway, domain.TxStatusPending, auth.Reference)
	err = f.uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		return ltx.CreateTransaction(tx)
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	return &billingdto.CheckoutOutput{
		Order:            order,
		Transaction:      tx,
		AuthorizationURL: auth.AuthorizationURL,
		Reference:        auth.Reference,
	}, nil
}

func (f *redirectFlow) abandon(ctx context.Context, order *domain.Order) {
	err := f.uc.Ledger.WithinTx(context.WithoutCancel(ctx), func(ltx domain.LedgerTx) error {
		return ltx.UpdateOrderPayment(order.ID, domain.OrderStatusAbandoned, order.Reference)
	})
	if err != nil {
		f.uc.Logger.Error("failed to mark order abandoned",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return
	}
	order.Status = domain.OrderStatusAbandoned
}

func (f *redirectFlow) Verify(ctx context.Context, reference string) (*domain.Verification, error) {
	return f.uc.RedirectGateway.Verify(ctx, reference)
}

// wallet: settled at checkout inside one locked unit of work.
type walletFlow struct {
	uc *DefaultBillingUsecase
}

func (f *walletFlow) Validate(plan *checkoutPlan) error {
	if plan.buyer.UserID == "" {
		return domain.Validationf("wallet payments require a signed-in user")
	}
	return nil
}

func (f *walletFlow) Reserve(ctx context.Context, plan *checkoutPlan) (*reservation, error) {
	return &reservation{}, nil
}

func (f *walletFlow) Capture(ctx context.Context, plan *checkoutPlan, res *reservation) (*billingdto.CheckoutOutput, error) {
	order := f.uc.newOrder(plan, domain.OrderStatusPaid)
	tx := f.uc.newTransaction(order, domain.MethodWallet, domain.TxStatusSuccess, walletReference)
	tx.AlertType = domain.AlertDebit

	var shortfalls map[string]int
	err := f.uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		wallet, err := ltx.LockWalletByUserID(plan.buyer.UserID)
		if err != nil {
			return err
		}
		if !wallet.CanDebit(plan.amount) {
			return fmt.Errorf("%w: balance %s, required %s",
				domain.ErrInsufficientBalance, wallet.Balance.StringFixed(2), plan.amount.StringFixed(2))
		}

		if shortfalls, err = reserveStock(ltx, order.Products, true); err != nil {
			return err
		}

		if err := ltx.UpdateWalletBalance(wallet.ID, wallet.Balance.Sub(plan.amount)); err != nil {
			return fmt.Errorf("debit wallet: %w", err)
		}
		if err := ltx.CreateOrder(order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := ltx.CreateTransaction(tx); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		f.uc.recordWalletMetrics("debit", errorLabel(err), plan.amount)
		return nil, err
	}
	f.uc.recordWalletMetrics("debit", "success", plan.amount)
	f.uc.recordShortfalls(order, shortfalls)

	f.uc.notifyPaid(ctx, order, tx)
	return &billingdto.CheckoutOutput{Order: order, Transaction: tx, Reference: order.Reference}, nil
}

func (f *walletFlow) Verify(ctx context.Context, reference string) (*domain.Verification, error) {
	return nil, notVerifiable(domain.MethodWallet)
}

// offline: the store ships on trust; the transfer is reconciled by hand.
type offlineFlow struct {
	uc *DefaultBillingUsecase
}

func (f *offlineFlow) Validate(plan *checkoutPlan) error {
	return nil
}

func (f *offlineFlow) Reserve(ctx context.Context, plan *checkoutPlan) (*reservation, error) {
	return &reservation{}, nil
}

func (f *offlineFlow) Capture(ctx context.Context, plan *checkoutPlan, res *reservation) (*billingdto.CheckoutOutput, error) {
	order := f.uc.newOrder(plan, domain.OrderStatusAwaitingTransfer)
	tx := f.uc.newTransaction(order, domain.MethodOffline, domain.TxStatusOfflinePending, order.Reference)

	var shortfalls map[string]int
	err := f.uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		if err := ltx.CreateOrder(order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := ltx.CreateTransaction(tx); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		var err error
		shortfalls, err = reserveStock(ltx, order.Products, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	f.uc.recordShortfalls(order, shortfalls)

	f.uc.notifyPaid(ctx, order, tx)
	return &billingdto.CheckoutOutput{Order: order, Transaction: tx, Reference: order.Reference}, nil
}

func (f *offlineFlow) Verify(ctx context.Context, reference string) (*domain.Verification, error) {
	return nil, notVerifiable(domain.MethodOffline)
}
