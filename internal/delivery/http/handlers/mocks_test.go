package handlers

import (
	"context"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/notification"
	"github.com/LavaJover/shvark-billing-service/internal/usecase/billing"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
)

// stubUsecase implements only what a test sets; anything else panics
// through the nil embedded interface.
type stubUsecase struct {
	billing.BillingUsecase

	checkout     func(*billingdto.CheckoutInput) (*billingdto.CheckoutOutput, error)
	verify       func(string) (*billingdto.VerifyOutput, error)
	transfer     func(*billingdto.TransferInput) (*billingdto.TransferOutput, error)
	getWallet    func(string) (*domain.Wallet, error)
	listOrders   func(*billingdto.ListOrdersInput) (*billingdto.ListOrdersOutput, error)
	updateTrack  func(string, domain.TrackerUpdate) (*domain.Order, error)
	refund       func(*billingdto.RefundInput) (*billingdto.RefundOutput, error)
	getOrderFunc func(string) (*domain.Order, error)
	failures     func(*billingdto.ListCheckoutFailuresInput) (*billingdto.ListCheckoutFailuresOutput, error)
}

func (s *stubUsecase) InitiateCheckout(ctx context.Context, in *billingdto.CheckoutInput) (*billingdto.CheckoutOutput, error) {
	return s.checkout(in)
}

func (s *stubUsecase) VerifyExternalPayment(ctx context.Context, ref string) (*billingdto.VerifyOutput, error) {
	return s.verify(ref)
}

func (s *stubUsecase) TransferBetweenWallets(ctx context.Context, in *billingdto.TransferInput) (*billingdto.TransferOutput, error) {
	return s.transfer(in)
}

func (s *stubUsecase) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.getWallet(userID)
}

func (s *stubUsecase) ListOrders(ctx context.Context, in *billingdto.ListOrdersInput) (*billingdto.ListOrdersOutput, error) {
	return s.listOrders(in)
}

func (s *stubUsecase) UpdateOrderTracker(ctx context.Context, id string, u domain.TrackerUpdate) (*domain.Order, error) {
	return s.updateTrack(id, u)
}

func (s *stubUsecase) RefundCardPayment(ctx context.Context, in *billingdto.RefundInput) (*billingdto.RefundOutput, error) {
	return s.refund(in)
}

func (s *stubUsecase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrderFunc(id)
}

func (s *stubUsecase) ListCheckoutFailures(ctx context.Context, in *billingdto.ListCheckoutFailuresInput) (*billingdto.ListCheckoutFailuresOutput, error) {
	return s.failures(in)
}

type stubQueue struct {
	status  notification.Status
	cleared int
}

func (q *stubQueue) Status() notification.Status { return q.status }

func (q *stubQueue) Clear() int {
	q.cleared++
	return q.status.Depth
}
