package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *RedirectGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRedirectGateway(config.Paystack{
		SecretKey:   "sk_test_abc",
		BaseURL:     srv.URL + "/",
		CallbackURL: "https://shop.example.com/payment/callback",
		Timeout:     time.Second,
	})
}

func TestCreateAuthorization(t *testing.T) {
	var got initializeRequest
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ps_ref_1"}}`))
	})

	auth, err := gw.CreateAuthorization(context.Background(), 150000, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", auth.AuthorizationURL)
	assert.Equal(t, "ps_ref_1", auth.Reference)
	assert.Equal(t, domain.GatewayPending, auth.Status)

	assert.Equal(t, int64(150000), got.Amount)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "https://shop.example.com/payment/callback", got.CallbackURL)
}

func TestCreateAuthorization_ProviderError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Invalid Email Address Passed"}`))
	})

	_, err := gw.CreateAuthorization(context.Background(), 100, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Email Address Passed")
}

func TestVerify(t *testing.T) {
	for raw, want := range map[string]domain.GatewayStatus{
		"success":   domain.GatewaySucceeded,
		"abandoned": domain.GatewayFailed,
		"ongoing":   domain.GatewayPending,
	} {
		t.Run(raw, func(t *testing.T) {
			gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/ps_ref_1", r.URL.Path)
				w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"` + raw + `","reference":"ps_ref_1","amount":150000}}`))
			})

			v, err := gw.Verify(context.Background(), "ps_ref_1")
			require.NoError(t, err)
			assert.Equal(t, want, v.Status)
			assert.Equal(t, raw, v.RawStatus)
			assert.Equal(t, "ps_ref_1", v.Reference)
			assert.True(t, v.Amount.Equal(decimal.RequireFromString("1500")))
		})
	}
}

func TestVerify_UnexpectedStatus(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := gw.Verify(context.Background(), "ps_ref_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}
