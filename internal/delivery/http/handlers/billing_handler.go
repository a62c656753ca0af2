package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-billing-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-billing-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/notification"
	"github.com/LavaJover/shvark-billing-service/internal/usecase/billing"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QueueAdmin is the operator view of the notification queue.
type QueueAdmin interface {
	Status() notification.Status
	Clear() int
}

type BillingHandler struct {
	uc     billing.BillingUsecase
	queue  QueueAdmin
	logger *zap.Logger
}

func NewBillingHandler(uc billing.BillingUsecase, queue QueueAdmin, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{uc: uc, queue: queue, logger: logger.Named("http")}
}

func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req request.CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	input := &billingdto.CheckoutInput{
		PaymentMethod: req.PaymentMethod,
		LineItems:     make([]domain.LineItem, 0, len(req.Products)),
		Buyer: domain.Buyer{
			UserID:     userID(r),
			FirstName:  req.Buyer.FirstName,
			LastName:   req.Buyer.LastName,
			Email:      req.Buyer.Email,
			Phone:      req.Buyer.Phone,
			TownOrCity: req.Buyer.TownOrCity,
			PostCode:   req.Buyer.PostCode,
			State:      req.Buyer.State,
			Country:    req.Buyer.Country,
		},
		DeliveryAddress: req.DeliveryAddress,
		ClientAmount:    req.Amount,
	}
	for _, item := range req.Products {
		input.LineItems = append(input.LineItems, domain.LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	out, err := h.uc.InitiateCheckout(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, response.FromCheckout(out))
}

// VerifyPayment accepts the redirect gateway's ?reference= callback and
// the card flow's ?payment_intent_id= return.
func (h *BillingHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reference := q.Get("reference")
	if reference == "" {
		reference = q.Get("payment_intent_id")
	}

	out, err := h.uc.VerifyExternalPayment(r.Context(), reference)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromVerify(out))
}

func (h *BillingHandler) TopUpWallet(w http.ResponseWriter, r *http.Request) {
	uid, err := requireUserID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req request.TopUpRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.uc.InitiateWalletTopUp(r.Context(), &billingdto.TopUpInput{
		UserID: uid,
		Email:  req.Email,
		Amount: req.Amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, response.TopUpResponse{
		AuthorizationURL: out.AuthorizationURL,
		Reference:        out.Reference,
	})
}

func (h *BillingHandler) VerifyTopUp(w http.ResponseWriter, r *http.Request) {
	uid, err := requireUserID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.uc.VerifyWalletTopUp(r.Context(), uid, r.URL.Query().Get("reference"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.TopUpVerifyResponse{
		Reference:        out.Reference,
		Status:           string(out.Status),
		Balance:          out.Balance,
		AlreadyProcessed: out.AlreadyProcessed,
	})
}

func (h *BillingHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	uid, err := requireUserID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req request.TransferRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.uc.TransferBetweenWallets(r.Context(), &billingdto.TransferInput{
		SenderID:   uid,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.TransferResponse{
		Reference:     out.Reference,
		SenderBalance: out.SenderBalance,
		Debit:         response.FromTransaction(out.Debit),
		Credit:        response.FromTransaction(out.Credit),
	})
}

func (h *BillingHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	uid, err := requireUserID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	wallet, err := h.uc.GetWallet(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromWallet(wallet))
}

func (h *BillingHandler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	var req request.RefundRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	out, err := h.uc.RefundCardPayment(r.Context(), &billingdto.RefundInput{
		OrderID: chi.URLParam(r, "id"),
		Amount:  req.Amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.RefundResponse{
		RefundID:    out.Refund.ID,
		Amount:      out.Refund.Amount,
		Status:      out.Refund.Status,
		Transaction: response.FromTransaction(out.Transaction),
	})
}

func (h *BillingHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.uc.ListOrders(r.Context(), &billingdto.ListOrdersInput{Filter: filter, Pagination: page})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromOrders(out))
}

func (h *BillingHandler) ListCheckoutFailures(w http.ResponseWriter, r *http.Request) {
	filter, err := checkoutFailureFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.uc.ListCheckoutFailures(r.Context(), &billingdto.ListCheckoutFailuresInput{Filter: filter, Pagination: page})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromCheckoutFailures(out))
}

func (h *BillingHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.uc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromOrder(order))
}

func (h *BillingHandler) UpdateTracker(w http.ResponseWriter, r *http.Request) {
	var req request.TrackerRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.uc.UpdateOrderTracker(r.Context(), chi.URLParam(r, "id"), domain.TrackerUpdate{
		IsDelivered:  req.IsDelivered,
		DeliveryNote: req.DeliveryNote,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromOrder(order))
}

func (h *BillingHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.uc.ListTransactions(r.Context(), &billingdto.ListTransactionsInput{Filter: filter, Pagination: page})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromTransactions(out))
}

func (h *BillingHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.uc.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response.FromTransaction(tx))
}

func (h *BillingHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Status())
}

func (h *BillingHandler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	n := h.queue.Clear()
	h.logger.Warn("notification queue cleared", zap.Int("dropped", n))
	writeJSON(w, http.StatusOK, map[string]int{"dropped": n})
}
