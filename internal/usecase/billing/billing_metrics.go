package billing

import (
	"errors"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errorLabel maps an error to a low-cardinality metric label.
func errorLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrOutOfStock):
		return "out-of-stock"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient-balance"
	case errors.Is(err, domain.ErrGatewayRejected):
		return "gateway-rejected"
	case errors.Is(err, domain.ErrInvalidTransfer):
		return "invalid-transfer"
	case errors.Is(err, domain.ErrNotFound):
		return "not-found"
	default:
		return "internal"
	}
}

func (uc *DefaultBillingUsecase) recordCheckoutMetrics(method domain.PaymentMethod, result string, amount decimal.Decimal, durationSeconds float64) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordCheckout(string(method), result, amount.InexactFloat64(), durationSeconds)
	if result == "internal" {
		uc.Metrics.RecordError("checkout", result)
	}
}

func (uc *DefaultBillingUsecase) recordOrderPaidMetrics(order *domain.Order, tx *domain.Transaction) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordOrderPaid(string(tx.PaymentMethod), string(order.Status), order.Amount.InexactFloat64())
}

func (uc *DefaultBillingUsecase) recordVerificationMetrics(method domain.PaymentMethod, outcome string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordVerification(string(method), outcome)
}

func (uc *DefaultBillingUsecase) recordWalletMetrics(operation, result string, amount decimal.Decimal) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordWalletOperation(operation, result, amount.InexactFloat64())
}

func (uc *DefaultBillingUsecase) recordRefundMetrics(result string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordRefund(result)
}

func (uc *DefaultBillingUsecase) recordReconcileMetrics(outcome string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordReconciliation(outcome)
}

// recordShortfalls reports units sold past available stock. Only gateway
// verification can produce them: the sale already happened at the provider.
func (uc *DefaultBillingUsecase) recordShortfalls(order *domain.Order, shortfalls map[string]int) {
	for productID, units := range shortfalls {
		uc.Logger.Warn("stock exhausted before payment settled",
			zap.String("order_id", order.ID),
			zap.String("product_id", productID),
			zap.Int("shortfall", units),
		)
		if uc.Metrics != nil {
			uc.Metrics.RecordStockShortfall(productID, units)
		}
	}
}
