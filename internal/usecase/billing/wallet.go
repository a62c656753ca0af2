package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InitiateWalletTopUp starts a redirect payment that credits the user's
// wallet once verified. The pending credit transaction has no order.
func (uc *DefaultBillingUsecase) InitiateWalletTopUp(ctx context.Context, input *billingdto.TopUpInput) (*billingdto.TopUpOutput, error) {
	if input.UserID == "" {
		return nil, domain.Validationf("user id is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, domain.Validationf("email is required")
	}
	if !input.Amount.IsPositive() {
		return nil, domain.Validationf("top-up amount must be positive")
	}

	if _, err := uc.Ledger.GetWalletByUserID(ctx, input.UserID); err != nil {
		return nil, err
	}

	auth, err := uc.RedirectGateway.CreateAuthorization(ctx, domain.ToMinorUnits(input.Amount), email)
	if err != nil {
		uc.recordWalletMetrics("topup", "gateway-error", input.Amount)
		return nil, fmt.Errorf("%w: create authorization: %w", domain.ErrGatewayRejected, err)
	}
	if auth.Status == domain.GatewayFailed || auth.Reference == "" {
		uc.recordWalletMetrics("topup", "gateway-error", input.Amount)
		return nil, domain.GatewayRejectedf("authorization returned status %s", auth.Status)
	}

	now := uc.now()
	tx := &domain.Transaction{
		ID:            uuid.NewString(),
		PaymentMethod: domain.MethodRedirectGateway,
		Amount:        input.Amount,
		Status:        domain.TxStatusPending,
		Reference:     auth.Reference,
		UserID:        input.UserID,
		AlertType:     domain.AlertCredit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		return ltx.CreateTransaction(tx)
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	uc.Logger.Info("wallet top-up initiated",
		zap.String("user_id", input.UserID),
		zap.String("reference", auth.Reference),
		zap.String("amount", input.Amount.StringFixed(2)),
	)
	return &billingdto.TopUpOutput{
		AuthorizationURL: auth.AuthorizationURL,
		Reference:        auth.Reference,
		Transaction:      tx,
	}, nil
}

// VerifyWalletTopUp credits the wallet at most once per reference.
func (uc *DefaultBillingUsecase) VerifyWalletTopUp(ctx context.Context, userID, reference string) (*billingdto.TopUpVerifyOutput, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.Validationf("reference is required")
	}

	tx, err := uc.Ledger.FindTransactionByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	// Someone else's reference is reported as missing.
	if tx.OrderID != nil || tx.AlertType != domain.AlertCredit || tx.UserID != userID {
		return nil, fmt.Errorf("%w: reference %s", domain.ErrTransactionNotFound, reference)
	}

	out := &billingdto.TopUpVerifyOutput{Reference: reference, Status: tx.Status}
	if tx.Status != domain.TxStatusPending {
		out.AlreadyProcessed = true
		return uc.withBalance(ctx, userID, out)
	}

	unlock, acquired := uc.lockVerification(ctx, reference)
	if !acquired {
		return uc.withBalance(ctx, userID, out)
	}
	defer unlock()

	result, err := uc.RedirectGateway.Verify(ctx, reference)
	if err != nil {
		uc.recordWalletMetrics("topup", "gateway-error", tx.Amount)
		return nil, fmt.Errorf("%w: verify %s: %w", domain.ErrGatewayRejected, reference, err)
	}
	if result.Status != domain.GatewaySucceeded {
		uc.Logger.Info("top-up not settled yet",
			zap.String("reference", reference),
			zap.String("gateway_status", result.RawStatus),
		)
		out.GatewayStatus = result.Status
		return uc.withBalance(ctx, userID, out)
	}

	err = uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		locked, err := ltx.LockTransaction(tx.ID)
		if err != nil {
			return err
		}
		if !locked.Status.CanTransition(domain.TxStatusSuccess) {
			out.AlreadyProcessed = true
			out.Status = locked.Status
			return nil
		}
		wallet, err := ltx.LockWalletByUserID(userID)
		if err != nil {
			return err
		}
		balance := wallet.Balance.Add(locked.Amount)
		if err := ltx.UpdateWalletBalance(wallet.ID, balance); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		if err := ltx.UpdateTransactionStatus(tx.ID, domain.TxStatusSuccess); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		out.Status = domain.TxStatusSuccess
		out.Balance = balance
		return nil
	})
	if err != nil {
		uc.recordWalletMetrics("topup", errorLabel(err), tx.Amount)
		return nil, err
	}
	if out.AlreadyProcessed {
		return uc.withBalance(ctx, userID, out)
	}

	uc.recordWalletMetrics("topup", "success", tx.Amount)
	uc.Logger.Info("wallet topped up",
		zap.String("user_id", userID),
		zap.String("reference", reference),
		zap.String("amount", tx.Amount.StringFixed(2)),
	)
	return out, nil
}

func (uc *DefaultBillingUsecase) withBalance(ctx context.Context, userID string, out *billingdto.TopUpVerifyOutput) (*billingdto.TopUpVerifyOutput, error) {
	wallet, err := uc.Ledger.GetWalletByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.Balance = wallet.Balance
	return out, nil
}

// TransferBetweenWallets moves funds between two users. Both wallets are
// locked in user id order so opposite transfers cannot deadlock.
func (uc *DefaultBillingUsecase) TransferBetweenWallets(ctx context.Context, input *billingdto.TransferInput) (*billingdto.TransferOutput, error) {
	if input.SenderID == "" || input.ReceiverID == "" {
		return nil, fmt.Errorf("%w: sender and receiver are required", domain.ErrInvalidTransfer)
	}
	if input.SenderID == input.ReceiverID {
		return nil, fmt.Errorf("%w: cannot transfer to yourself", domain.ErrInvalidTransfer)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidTransfer)
	}

	reference := transferReferencePrefix + uc.newReference()
	now := uc.now()
	debit := &domain.Transaction{
		ID:            uuid.NewString(),
		PaymentMethod: domain.MethodWallet,
		Amount:        input.Amount,
		Status:        domain.TxStatusSuccess,
		Reference:     reference,
		UserID:        input.SenderID,
		AlertType:     domain.AlertDebit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	credit := *debit
	credit.ID = uuid.NewString()
	credit.UserID = input.ReceiverID
	credit.AlertType = domain.AlertCredit

	out := &billingdto.TransferOutput{Reference: reference, Debit: debit, Credit: &credit}

	err := uc.Ledger.WithinTx(ctx, func(ltx domain.LedgerTx) error {
		userIDs := []string{input.SenderID, input.ReceiverID}
		sort.Strings(userIDs)
		wallets := make(map[string]*domain.Wallet, 2)
		for _, id := range userIDs {
			w, err := ltx.LockWalletByUserID(id)
			if err != nil {
				return err
			}
			wallets[id] = w
		}

		sender, receiver := wallets[input.SenderID], wallets[input.ReceiverID]
		if !sender.CanDebit(input.Amount) {
			return fmt.Errorf("%w: balance %s, required %s",
				domain.ErrInsufficientBalance, sender.Balance.StringFixed(2), input.Amount.StringFixed(2))
		}

		out.SenderBalance = sender.Balance.Sub(input.Amount)
		if err := ltx.UpdateWalletBalance(sender.ID, out.SenderBalance); err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}
		if err := ltx.UpdateWalletBalance(receiver.ID, receiver.Balance.Add(input.Amount)); err != nil {
			return fmt.Errorf("credit receiver: %w", err)
		}
		if err := ltx.CreateTransaction(debit); err != nil {
			return fmt.Errorf("create debit transaction: %w", err)
		}
		if err := ltx.CreateTransaction(&credit); err != nil {
			return fmt.Errorf("create credit transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.recordWalletMetrics("transfer", errorLabel(err), input.Amount)
		if !errors.Is(err, domain.ErrInsufficientBalance) && !errors.Is(err, domain.ErrNotFound) {
			uc.Logger.Error("wallet transfer failed", zap.String("reference", reference), zap.Error(err))
		}
		return nil, err
	}

	uc.recordWalletMetrics("transfer", "success", input.Amount)
	uc.Logger.Info("wallet transfer completed",
		zap.String("reference", reference),
		zap.String("sender_id", input.SenderID),
		zap.String("receiver_id", input.ReceiverID),
		zap.String("amount", input.Amount.StringFixed(2)),
	)
	return out, nil
}
