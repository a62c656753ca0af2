package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
)

// RedirectGateway talks to Paystack's transaction API. The buyer is sent to
// the authorization URL and the payment is settled later by Verify.
type RedirectGateway struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Client      *http.Client
}

func NewRedirectGateway(cfg config.Paystack) *RedirectGateway {
	return &RedirectGateway{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		SecretKey:   cfg.SecretKey,
		CallbackURL: cfg.CallbackURL,
		Client:      &http.Client{Timeout: cfg.Timeout},
	}
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

func (g *RedirectGateway) CreateAuthorization(ctx context.Context, amountMinor int64, email string) (*domain.Authorization, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      amountMinor,
		CallbackURL: g.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	var resp envelope[initializeData]
	if err := g.do(ctx, http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
		return nil, fmt.Errorf("paystack: initialize transaction: %w", err)
	}
	if resp.Data.AuthorizationURL == "" || resp.Data.Reference == "" {
		return nil, errors.New("paystack: initialize transaction: empty authorization")
	}
	return &domain.Authorization{
		AuthorizationURL: resp.Data.AuthorizationURL,
		Reference:        resp.Data.Reference,
		Status:           domain.GatewayPending,
	}, nil
}

func (g *RedirectGateway) Verify(ctx context.Context, reference string) (*domain.Verification, error) {
	var resp envelope[verifyData]
	if err := g.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &resp); err != nil {
		return nil, fmt.Errorf("paystack: verify %s: %w", reference, err)
	}
	ref := resp.Data.Reference
	if ref == "" {
		ref = reference
	}
	return &domain.Verification{
		Reference: ref,
		Status:    mapTransactionStatus(resp.Data.Status),
		RawStatus: resp.Data.Status,
		Amount:    domain.FromMinorUnits(resp.Data.Amount),
	}, nil
}

func (g *RedirectGateway) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	response, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return json.Unmarshal(responseBodyBytes, out)
	}
	var errorResponse envelope[json.RawMessage]
	if err := json.Unmarshal(responseBodyBytes, &errorResponse); err != nil || errorResponse.Message == "" {
		return fmt.Errorf("unexpected status %d", response.StatusCode)
	}
	return fmt.Errorf("status %d: %s", response.StatusCode, errorResponse.Message)
}

func mapTransactionStatus(s string) domain.GatewayStatus {
	switch s {
	case "success":
		return domain.GatewaySucceeded
	case "failed", "abandoned", "reversed":
		return domain.GatewayFailed
	}
	return domain.GatewayPending
}
