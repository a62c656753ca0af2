package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"go.uber.org/zap"
)

func (uc *DefaultBillingUsecase) VerifyExternalPayment(ctx context.Context, reference string) (*billingdto.VerifyOutput, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.Validationf("reference is required")
	}

	tx, order, err := uc.resolvePayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	log := uc.Logger.With(
		zap.String("reference", tx.Reference),
		zap.String("order_id", order.ID),
		zap.String("payment_method", string(tx.PaymentMethod)),
	)

	flow, ok := uc.flows[tx.PaymentMethod]
	if !ok || !tx.PaymentMethod.IsGateway() {
		return nil, notVerifiable(tx.PaymentMethod)
	}
	if tx.Status != domain.TxStatusPending {
		uc.recordVerificationMetrics(tx.PaymentMethod, "already-processed")
		return verifyOutput(order, tx, true), nil
	}

	unlock, acquired := uc.lockVerification(ctx, tx.Reference)
	if !acquired {
		log.Info("verification already in progress elsewhere")
		return verifyOutput(order, tx, false), nil
	}
	defer unlock()

	result, err := flow.Verify(ctx, tx.Reference)
	if err != nil {
		uc.recordVerificationMetrics(tx.PaymentMethod, "gateway-error")
		return nil, fmt.Errorf("%w: verify %s: %w", domain.ErrGatewayRejected, tx.Reference, err)
	}
	if result.Status != domain.GatewaySucceeded {
		uc.recordVerificationMetrics(tx.PaymentMethod, "not-succeeded")
		log.Info("payment not settled yet", zap.String("gateway_status", result.RawStatus))
		out := verifyOutput(order, tx, false)
		out.GatewayStatus = result.Status
		return out, nil
	}
	if !result.Amount.IsZero() && !result.Amount.Equal(order.Amount) {
		log.Warn("gateway amount differs from order amount",
			zap.String("gateway_amount", result.Amount.String()),
			zap.String("order_amount", order.Amount.String()),
		)
	}

	// Redirect payments adopt the gateway reference on the order.
	orderRef := order.Reference
	if tx.PaymentMethod == domain.MethodRedirectGateway && result.Reference != "" {
		orderRef = result.Reference
	}

	alreadyProcessed := false
	var shortfalls map[string]int
	err = uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		locked, err := ltx.LockTransaction(tx.ID)
		if err != nil {
			return err
		}
		if !locked.Status.CanTransition(domain.TxStatusSuccess) {
			alreadyProcessed = true
			tx.Status = locked.Status
			if current, err := ltx.GetOrderByID(order.ID); err == nil {
				order.Status = current.Status
			}
			return nil
		}
		if err := ltx.UpdateTransactionStatus(tx.ID, domain.TxStatusSuccess); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := ltx.UpdateOrderPayment(order.ID, domain.OrderStatusPaid, orderRef); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		shortfalls, err = reserveStock(ltx, order.Products, false)
		return err
	})
	if err != nil {
		uc.recordVerificationMetrics(tx.PaymentMethod, "error")
		return nil, err
	}
	if alreadyProcessed {
		uc.recordVerificationMetrics(tx.PaymentMethod, "already-processed")
		return verifyOutput(order, tx, true), nil
	}

	tx.Status = domain.TxStatusSuccess
	order.Status = domain.OrderStatusPaid
	order.Reference = orderRef
	uc.recordShortfalls(order, shortfalls)
	uc.recordVerificationMetrics(tx.PaymentMethod, "settled")
	log.Info("payment verified")

	uc.notifyPaid(ctx, order, tx)
	return verifyOutput(order, tx, false), nil
}

// resolvePayment finds the transaction by its reference, falling back to
// the order's payment intent id.
func (uc *DefaultBillingUsecase) resolvePayment(ctx context.Context, reference string) (*domain.Transaction, *domain.Order, error) {
	tx, err := uc.Ledger.FindTransactionByReference(ctx, reference)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		order, oerr := uc.Ledger.FindOrderByPaymentIntentID(ctx, reference)
		if oerr != nil {
			if errors.Is(oerr, domain.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: reference %s", domain.ErrOrderNotFound, reference)
			}
			return nil, nil, oerr
		}
		tx, err = uc.Ledger.FindTransactionByOrderID(ctx, order.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: no payment for order %s", domain.ErrOrderNotFound, order.ID)
			}
			return nil, nil, err
		}
		return tx, order, nil
	default:
		return nil, nil, err
	}

	if tx.OrderID == nil {
		return nil, nil, domain.Validationf("reference %s belongs to a wallet top-up", reference)
	}
	order, err := uc.Ledger.GetOrderByID(ctx, *tx.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: reference %s", domain.ErrOrderNotFound, reference)
		}
		return nil, nil, err
	}
	return tx, order, nil
}

// lockVerification takes the optional cross-process lock. A locker error
// degrades to running unlocked; the row lock in the ledger still holds.
func (uc *DefaultBillingUsecase) lockVerification(ctx context.Context, reference string) (func(), bool) {
	noop := func() {}
	if uc.Locker == nil {
		return noop, true
	}
	unlock, ok, err := uc.Locker.TryLock(ctx, "billing:verify:"+reference, uc.verifyLockTTL)
	if err != nil {
		uc.Logger.Warn("verification lock unavailable", zap.String("reference", reference), zap.Error(err))
		return noop, true
	}
	if !ok {
		return noop, false
	}
	return unlock, true
}

func verifyOutput(order *domain.Order, tx *domain.Transaction, alreadyProcessed bool) *billingdto.VerifyOutput {
	return &billingdto.VerifyOutput{
		OrderID:          order.ID,
		Reference:        tx.Reference,
		Status:           tx.Status,
		OrderStatus:      order.Status,
		AlreadyProcessed: alreadyProcessed,
	}
}
