package billing

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"go.uber.org/zap"
)

const defaultReconcileBatch = 50

// ReconcilePendingPayments re-verifies gateway transactions that stayed
// pending longer than OlderThan, covering buyers who never came back from
// the payment page. Payments the gateway reports as failed are closed.
func (uc *DefaultBillingUsecase) ReconcilePendingPayments(ctx context.Context, input *billingdto.ReconcileInput) (*billingdto.ReconcileOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultReconcileBatch
	}
	cutoff := uc.now().Add(-input.OlderThan)

	txs, _, err := uc.Ledger.ListTransactions(ctx, domain.TransactionFilter{
		Status:        domain.TxStatusPending,
		CreatedBefore: cutoff,
	}, domain.Pagination{Page: 1, Limit: limit}.Normalize())
	if err != nil {
		return nil, err
	}

	out := &billingdto.ReconcileOutput{}
	for _, tx := range txs {
		if ctx.Err() != nil {
			break
		}
		if !tx.PaymentMethod.IsGateway() {
			continue
		}
		out.Checked++

		var (
			status        domain.TransactionStatus
			gatewayStatus domain.GatewayStatus
		)
		if tx.OrderID == nil {
			res, err := uc.VerifyWalletTopUp(ctx, tx.UserID, tx.Reference)
			if err != nil {
				uc.reconcileError(out, tx, err)
				continue
			}
			status, gatewayStatus = res.Status, res.GatewayStatus
		} else {
			res, err := uc.VerifyExternalPayment(ctx, tx.Reference)
			if err != nil {
				uc.reconcileError(out, tx, err)
				continue
			}
			status, gatewayStatus = res.Status, res.GatewayStatus
		}

		switch {
		case status == domain.TxStatusSuccess:
			out.Settled++
			uc.recordReconcileMetrics("settled")
		case status == domain.TxStatusPending && gatewayStatus == domain.GatewayFailed:
			closed, err := uc.closeFailedPayment(ctx, tx)
			if err != nil {
				uc.reconcileError(out, tx, err)
				continue
			}
			if closed {
				out.Failed++
				uc.recordReconcileMetrics("failed")
			}
		default:
			out.StillPending++
			uc.recordReconcileMetrics("pending")
		}
	}

	if out.Checked > 0 {
		uc.Logger.Info("reconciliation finished",
			zap.Int("checked", out.Checked),
			zap.Int("settled", out.Settled),
			zap.Int("still_pending", out.StillPending),
			zap.Int("failed", out.Failed),
			zap.Int("errors", out.Errors),
			zap.Duration("older_than", input.OlderThan),
		)
	}
	return out, nil
}

// closeFailedPayment moves a payment the gateway declined from pending to
// failed and abandons its order. Top-ups have no order. It reports false
// when the transaction had already left pending.
func (uc *DefaultBillingUsecase) closeFailedPayment(ctx context.Context, tx *domain.Transaction) (bool, error) {
	closed := false
	err := uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		locked, err := ltx.LockTransaction(tx.ID)
		if err != nil {
			return err
		}
		if !locked.Status.CanTransition(domain.TxStatusFailed) {
			return nil
		}
		if err := ltx.UpdateTransactionStatus(tx.ID, domain.TxStatusFailed); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if locked.OrderID != nil {
			order, err := ltx.GetOrderByID(*locked.OrderID)
			if err != nil {
				return err
			}
			if order.Status == domain.OrderStatusPending {
				if err := ltx.UpdateOrderPayment(order.ID, domain.OrderStatusAbandoned, order.Reference); err != nil {
					return fmt.Errorf("update order: %w", err)
				}
			}
		}
		closed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if closed {
		uc.Logger.Info("declined payment closed",
			zap.String("transaction_id", tx.ID),
			zap.String("reference", tx.Reference),
		)
	}
	return closed, nil
}

func (uc *DefaultBillingUsecase) reconcileError(out *billingdto.ReconcileOutput, tx *domain.Transaction, err error) {
	out.Errors++
	uc.recordReconcileMetrics("error")
	uc.Logger.Warn("reconciliation of pending payment failed",
		zap.String("transaction_id", tx.ID),
		zap.String("reference", tx.Reference),
		zap.Time("created_at", tx.CreatedAt),
		zap.Error(err),
	)
}
