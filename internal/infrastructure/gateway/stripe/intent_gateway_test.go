package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripego "github.com/stripe/stripe-go/v76"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *IntentGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(srv.URL),
		HTTPClient:        srv.Client(),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
		MaxNetworkRetries: stripego.Int64(0),
	})
	return NewIntentGatewayWithBackends(
		config.Stripe{SecretKey: "sk_test_123", Currency: "GBP"},
		&stripego.Backends{API: backend, Connect: backend, Uploads: backend},
	)
}

func TestCreateIntent_SendsMinorUnitsAndMetadata(t *testing.T) {
	var form map[string]string
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"amount":   r.PostForm.Get("amount"),
			"currency": r.PostForm.Get("currency"),
			"email":    r.PostForm.Get("receipt_email"),
			"order":    r.PostForm.Get("metadata[order_reference]"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret","status":"requires_payment_method","amount":2750}`))
	})

	intent, err := gw.CreateIntent(context.Background(), decimal.RequireFromString("27.50"), "ada@example.com",
		map[string]string{"order_reference": "REF001"})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	assert.Equal(t, domain.GatewayPending, intent.Status)
	assert.Equal(t, "2750", form["amount"])
	assert.Equal(t, "gbp", form["currency"])
	assert.Equal(t, "ada@example.com", form["email"])
	assert.Equal(t, "REF001", form["order"])
}

func TestRetrieveIntent_MapsStatus(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"succeeded","amount":2750,"amount_received":2750,"metadata":{"order_reference":"REF001"}}`))
	})

	details, err := gw.RetrieveIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.GatewaySucceeded, details.Status)
	assert.True(t, details.Amount.Equal(decimal.RequireFromString("27.50")))
	assert.Equal(t, "REF001", details.Metadata["order_reference"])
}

func TestRefund(t *testing.T) {
	var amount string
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, r.ParseForm())
		amount = r.PostForm.Get("amount")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"re_1","object":"refund","amount":500,"status":"succeeded"}`))
	})

	five := decimal.RequireFromString("5.00")
	refund, err := gw.Refund(context.Background(), "pi_123", &five)
	require.NoError(t, err)
	assert.Equal(t, "500", amount)
	assert.Equal(t, "re_1", refund.ID)
	assert.True(t, refund.Amount.Equal(five))
}

func TestGatewayErrorIsWrapped(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	})

	_, err := gw.CreateIntent(context.Background(), decimal.RequireFromString("1.00"), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe: create payment intent")
}

func TestMapIntentStatus(t *testing.T) {
	assert.Equal(t, domain.GatewaySucceeded, mapIntentStatus(stripego.PaymentIntentStatusSucceeded))
	assert.Equal(t, domain.GatewayFailed, mapIntentStatus(stripego.PaymentIntentStatusCanceled))
	assert.Equal(t, domain.GatewayPending, mapIntentStatus(stripego.PaymentIntentStatusProcessing))
}
