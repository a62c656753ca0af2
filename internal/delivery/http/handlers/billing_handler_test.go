package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/notification"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, uc *stubUsecase, queue *stubQueue) *httptest.Server {
	t.Helper()
	if queue == nil {
		queue = &stubQueue{}
	}
	h := NewBillingHandler(uc, queue, zap.NewNop())
	srv := httptest.NewServer(NewRouter(h, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# metrics")
	})))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, userID, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:        "order-1",
		Buyer:     domain.Buyer{UserID: "user-1", FirstName: "Ada", Email: "ada@example.com"},
		Amount:    decimal.RequireFromString("20.00"),
		Reference: "REF001",
		Status:    domain.OrderStatusPaid,
		Products: []domain.OrderProduct{{
			ProductID: "p-1", ProductName: "Beans", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"),
		}},
		CreatedAt: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestCheckout_MapsRequestToInput(t *testing.T) {
	var got *billingdto.CheckoutInput
	uc := &stubUsecase{checkout: func(in *billingdto.CheckoutInput) (*billingdto.CheckoutOutput, error) {
		got = in
		return &billingdto.CheckoutOutput{Order: paidOrder()}, nil
	}}
	srv := newTestServer(t, uc, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/billing/checkout", "user-1", `{
		"payment_method": "wallet",
		"products": [{"product_id": "p-1", "quantity": 2}],
		"buyer": {"first_name": "Ada", "email": "ada@example.com"},
		"delivery_address": "1 Analytical Way",
		"amount": "1.00"
	}`)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, got)
	assert.Equal(t, "wallet", got.PaymentMethod)
	assert.Equal(t, "user-1", got.Buyer.UserID)
	assert.Equal(t, []domain.LineItem{{ProductID: "p-1", Quantity: 2}}, got.LineItems)
	require.NotNil(t, got.ClientAmount)
	assert.True(t, got.ClientAmount.Equal(decimal.RequireFromString("1.00")))

	order := body["order"].(map[string]any)
	assert.Equal(t, "paid", order["status"])
	assert.Equal(t, "20", order["amount"])
}

func TestCheckout_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Validationf("no line items"), http.StatusBadRequest},
		{&domain.ProductError{ProductID: "p-1", Err: domain.ErrOutOfStock}, http.StatusConflict},
		{&domain.ProductError{ProductID: "p-1", Err: domain.ErrProductNotFound}, http.StatusNotFound},
		{domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{domain.GatewayRejectedf("card declined"), http.StatusBadGateway},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			uc := &stubUsecase{checkout: func(*billingdto.CheckoutInput) (*billingdto.CheckoutOutput, error) {
				return nil, tc.err
			}}
			srv := newTestServer(t, uc, nil)

			resp, body := do(t, http.MethodPost, srv.URL+"/v1/billing/checkout", "", `{"payment_method":"offline"}`)
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
			if tc.want == http.StatusInternalServerError {
				assert.Equal(t, "internal error", body["error"])
			}
		})
	}
}

func TestCheckout_RejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, &stubUsecase{}, nil)

	resp, _ := do(t, http.MethodPost, srv.URL+"/v1/billing/checkout", "", `{"payment_method":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/billing/checkout", "", `{"unknown_field":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyPayment_AcceptsEitherQueryKey(t *testing.T) {
	var refs []string
	uc := &stubUsecase{verify: func(ref string) (*billingdto.VerifyOutput, error) {
		refs = append(refs, ref)
		return &billingdto.VerifyOutput{OrderID: "order-1", Reference: ref, Status: domain.TxStatusSuccess, OrderStatus: domain.OrderStatusPaid}, nil
	}}
	srv := newTestServer(t, uc, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/billing/verify?reference=ps_1", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/billing/verify?payment_intent_id=pi_1", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"ps_1", "pi_1"}, refs)
}

func TestTransfer_UsesCallerAsSender(t *testing.T) {
	var got *billingdto.TransferInput
	uc := &stubUsecase{transfer: func(in *billingdto.TransferInput) (*billingdto.TransferOutput, error) {
		got = in
		if in.SenderID == in.ReceiverID {
			return nil, domain.ErrInvalidTransfer
		}
		return &billingdto.TransferOutput{
			Reference:     "TRF-1",
			SenderBalance: decimal.RequireFromString("5"),
			Debit:         &domain.Transaction{ID: "d", AlertType: domain.AlertDebit},
			Credit:        &domain.Transaction{ID: "c", AlertType: domain.AlertCredit},
		}, nil
	}}
	srv := newTestServer(t, uc, nil)

	resp, _ := do(t, http.MethodPost, srv.URL+"/v1/billing/wallet/transfer", "", `{"receiver_id":"user-2","amount":"5"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "caller identity is required")

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/billing/wallet/transfer", "user-1", `{"receiver_id":"user-2","amount":"5"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1", got.SenderID)
	assert.Equal(t, "TRF-1", body["reference"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/billing/wallet/transfer", "user-1", `{"receiver_id":"user-1","amount":"5"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetWallet(t *testing.T) {
	uc := &stubUsecase{getWallet: func(uid string) (*domain.Wallet, error) {
		if uid != "user-1" {
			return nil, domain.ErrWalletNotFound
		}
		return &domain.Wallet{UserID: uid, Balance: decimal.RequireFromString("25.00")}, nil
	}}
	srv := newTestServer(t, uc, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/billing/wallet", "user-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "25", body["balance"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/billing/wallet", "user-9", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListOrders_ParsesFilterAndPage(t *testing.T) {
	var got *billingdto.ListOrdersInput
	uc := &stubUsecase{listOrders: func(in *billingdto.ListOrdersInput) (*billingdto.ListOrdersOutput, error) {
		got = in
		return &billingdto.ListOrdersOutput{Orders: []*domain.Order{paidOrder()}, Total: 41, Pagination: domain.Pagination{Page: 2, Limit: 20}}, nil
	}}
	srv := newTestServer(t, uc, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/billing/orders?status=paid&is_delivered=false&page=2&created_from=2024-05-01T00:00:00Z", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.OrderStatusPaid, got.Filter.Status)
	require.NotNil(t, got.Filter.IsDelivered)
	assert.False(t, *got.Filter.IsDelivered)
	assert.Equal(t, 2, got.Pagination.Page)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), got.Filter.CreatedFrom)

	info := body["page_info"].(map[string]any)
	assert.EqualValues(t, 41, info["total"])
	assert.Len(t, body["orders"], 1)

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/billing/orders?page=two", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateTrackerAndRefund(t *testing.T) {
	uc := &stubUsecase{
		updateTrack: func(id string, u domain.TrackerUpdate) (*domain.Order, error) {
			o := paidOrder()
			o.ID = id
			o.IsDelivered = *u.IsDelivered
			return o, nil
		},
		refund: func(in *billingdto.RefundInput) (*billingdto.RefundOutput, error) {
			if in.Amount != nil {
				return nil, domain.ErrRefundNotAllowed
			}
			return &billingdto.RefundOutput{
				Refund:      &domain.Refund{ID: "re_1", Amount: decimal.RequireFromString("20"), Status: "succeeded"},
				Transaction: &domain.Transaction{ID: "t", AlertType: domain.AlertReverse},
			}, nil
		},
	}
	srv := newTestServer(t, uc, nil)

	resp, body := do(t, http.MethodPatch, srv.URL+"/v1/billing/orders/order-7/tracker", "", `{"is_delivered":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "order-7", body["id"])
	assert.Equal(t, true, body["is_delivered"])

	resp, body = do(t, http.MethodPost, srv.URL+"/v1/billing/orders/order-7/refund", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "re_1", body["refund_id"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/billing/orders/order-7/refund", "", `{"amount":"500"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestQueueEndpoints(t *testing.T) {
	queue := &stubQueue{status: notification.Status{
		Depth: 1,
		Jobs:  []notification.JobStatus{{ID: "job-1", Kind: domain.NotificationOwnerAlert, Attempts: 2}},
	}}
	srv := newTestServer(t, &stubUsecase{}, queue)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/notifications/queue", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["depth"])
	jobs := body["jobs"].([]any)
	assert.Equal(t, "order-owner-alert", jobs[0].(map[string]any)["kind"])

	resp, body = do(t, http.MethodDelete, srv.URL+"/v1/notifications/queue", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["dropped"])
	assert.Equal(t, 1, queue.cleared)
}

func TestMetricsAndHealth(t *testing.T) {
	srv := newTestServer(t, &stubUsecase{}, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListCheckoutFailures(t *testing.T) {
	var got *billingdto.ListCheckoutFailuresInput
	uc := &stubUsecase{failures: func(in *billingdto.ListCheckoutFailuresInput) (*billingdto.ListCheckoutFailuresOutput, error) {
		got = in
		return &billingdto.ListCheckoutFailuresOutput{
			Failures: []*domain.UncreatedOrder{{
				ID: "f-1", Email: "ada@example.com", PaymentMethod: domain.MethodWallet,
				Amount: decimal.RequireFromString("20.00"), ProductIDs: []string{"p-1"}, ErrorMessage: "insufficient balance",
			}},
			Total:      1,
			Pagination: domain.Pagination{Page: 1, Limit: 20},
		}, nil
	}}
	srv := newTestServer(t, uc, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/billing/checkout-failures?payment_method=wallet&email=ada@example.com", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, got.Filter.PaymentMethod)
	assert.Equal(t, domain.MethodWallet, *got.Filter.PaymentMethod)
	require.NotNil(t, got.Filter.Email)
	assert.Nil(t, got.Filter.UserID)
	assert.Nil(t, got.Filter.TimeOpeningStart)

	failures := body["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "insufficient balance", failures[0].(map[string]any)["error"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/billing/checkout-failures?payment_method=crypto", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
