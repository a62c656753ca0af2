package billing

import (
	"context"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
)

func (uc *DefaultBillingUsecase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, domain.Validationf("order id is required")
	}
	return uc.Ledger.GetOrderByID(ctx, orderID)
}

func (uc *DefaultBillingUsecase) ListOrders(ctx context.Context, input *billingdto.ListOrdersInput) (*billingdto.ListOrdersOutput, error) {
	page := input.Pagination.Normalize()
	orders, total, err := uc.Ledger.ListOrders(ctx, input.Filter, page)
	if err != nil {
		return nil, err
	}
	return &billingdto.ListOrdersOutput{Orders: orders, Total: total, Pagination: page}, nil
}

func (uc *DefaultBillingUsecase) GetTransaction(ctx context.Context, txID string) (*domain.Transaction, error) {
	if txID == "" {
		return nil, domain.Validationf("transaction id is required")
	}
	return uc.Ledger.GetTransactionByID(ctx, txID)
}

func (uc *DefaultBillingUsecase) ListTransactions(ctx context.Context, input *billingdto.ListTransactionsInput) (*billingdto.ListTransactionsOutput, error) {
	page := input.Pagination.Normalize()
	txs, total, err := uc.Ledger.ListTransactions(ctx, input.Filter, page)
	if err != nil {
		return nil, err
	}
	return &billingdto.ListTransactionsOutput{Transactions: txs, Total: total, Pagination: page}, nil
}

func (uc *DefaultBillingUsecase) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if userID == "" {
		return nil, domain.Validationf("user id is required")
	}
	return uc.Ledger.GetWalletByUserID(ctx, userID)
}

func (uc *DefaultBillingUsecase) UpdateOrderTracker(ctx context.Context, orderID string, update domain.TrackerUpdate) (*domain.Order, error) {
	if orderID == "" {
		return nil, domain.Validationf("order id is required")
	}
	if update.IsDelivered == nil && update.DeliveryNote == nil {
		return nil, domain.Validationf("nothing to update")
	}
	return uc.Ledger.UpdateOrderTracker(ctx, orderID, update)
}

// ListCheckoutFailures pages through checkout attempts that never became
// orders. Without a failure log configured the list is always empty.
func (uc *DefaultBillingUsecase) ListCheckoutFailures(ctx context.Context, input *billingdto.ListCheckoutFailuresInput) (*billingdto.ListCheckoutFailuresOutput, error) {
	page := input.Pagination.Normalize()
	if uc.FailureLog == nil {
		return &billingdto.ListCheckoutFailuresOutput{Pagination: page}, nil
	}
	failures, total, err := uc.FailureLog.GetLogsWithFilters(ctx, &input.Filter, page)
	if err != nil {
		return nil, err
	}
	return &billingdto.ListCheckoutFailuresOutput{Failures: failures, Total: total, Pagination: page}, nil
}
