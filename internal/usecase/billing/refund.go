package billing

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundCardPayment refunds a settled card payment in full or in part and
// records a reverse transaction. Stock is not restored.
//
// The payment row stays locked from the refundable check until the reverse
// transaction is written, so concurrent refunds of one order run one at a
// time.
func (uc *DefaultBillingUsecase) RefundCardPayment(ctx context.Context, input *billingdto.RefundInput) (*billingdto.RefundOutput, error) {
	order, err := uc.Ledger.GetOrderByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	payment, err := uc.Ledger.FindTransactionByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if payment.PaymentMethod != domain.MethodCardIntent || order.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: order %s was not paid by card", domain.ErrRefundNotAllowed, order.ID)
	}

	var (
		refund  *domain.Refund
		reverse *domain.Transaction
	)
	err = uc.Ledger.WithinTx(context.WithoutCancel(ctx), func(ltx domain.LedgerTx) error {
		locked, err := ltx.LockTransaction(payment.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.TxStatusSuccess {
			return fmt.Errorf("%w: order %s is not paid", domain.ErrRefundNotAllowed, order.ID)
		}
		refunded, err := ltx.RefundedAmount(order.ID)
		if err != nil {
			return err
		}
		remaining := locked.Amount.Sub(refunded)

		amount := remaining
		if input.Amount != nil {
			amount = *input.Amount
		}
		if !amount.IsPositive() {
			return domain.Validationf("refund amount must be positive")
		}
		if amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: requested %s, refundable %s",
				domain.ErrRefundNotAllowed, amount.StringFixed(2), remaining.StringFixed(2))
		}

		// A full refund is requested without an amount so the gateway refunds
		// exactly what it captured.
		var gatewayAmount *decimal.Decimal
		if !amount.Equal(locked.Amount) {
			gatewayAmount = &amount
		}
		refund, err = uc.IntentGateway.Refund(ctx, order.PaymentIntentID, gatewayAmount)
		if err != nil {
			uc.recordRefundMetrics("gateway-error")
			return fmt.Errorf("%w: refund %s: %w", domain.ErrGatewayRejected, order.PaymentIntentID, err)
		}
		if refund.Amount.IsZero() {
			refund.Amount = amount
		}

		now := uc.now()
		orderID := order.ID
		reverse = &domain.Transaction{
			ID:            uuid.NewString(),
			OrderID:       &orderID,
			PaymentMethod: domain.MethodCardIntent,
			Amount:        refund.Amount,
			Status:        domain.TxStatusSuccess,
			Reference:     refund.ID,
			UserID:        locked.UserID,
			AlertType:     domain.AlertReverse,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := ltx.CreateTransaction(reverse); err != nil {
			return fmt.Errorf("record refund: %w", err)
		}
		return nil
	})
	if err != nil {
		if refund != nil {
			uc.recordRefundMetrics("error")
			uc.Logger.Error("refund issued but not recorded",
				zap.String("order_id", order.ID),
				zap.String("refund_id", refund.ID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	uc.recordRefundMetrics("success")
	uc.Logger.Info("card payment refunded",
		zap.String("order_id", order.ID),
		zap.String("refund_id", refund.ID),
		zap.String("amount", refund.Amount.StringFixed(2)),
	)
	return &billingdto.RefundOutput{Refund: refund, Transaction: reverse}, nil
}
