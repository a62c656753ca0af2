package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// IntentGateway is the card-intent provider backed by Stripe
// PaymentIntents.
type IntentGateway struct {
	api      *client.API
	currency string
}

func NewIntentGateway(cfg config.Stripe) *IntentGateway {
	return NewIntentGatewayWithBackends(cfg, nil)
}

// NewIntentGatewayWithBackends lets callers point the client at a
// different API host. nil backends use Stripe's defaults.
func NewIntentGatewayWithBackends(cfg config.Stripe, backends *stripego.Backends) *IntentGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &IntentGateway{api: api, currency: strings.ToLower(cfg.Currency)}
}

func (g *IntentGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, email string, metadata map[string]string) (*domain.Intent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(domain.ToMinorUnits(amount)),
		Currency: stripego.String(g.currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	if email != "" {
		params.ReceiptEmail = stripego.String(email)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &domain.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapIntentStatus(pi.Status),
		RawStatus:    string(pi.Status),
	}, nil
}

func (g *IntentGateway) RetrieveIntent(ctx context.Context, intentID string) (*domain.IntentDetails, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve payment intent %s: %w", intentID, err)
	}

	minor := pi.AmountReceived
	if minor == 0 {
		minor = pi.Amount
	}
	return &domain.IntentDetails{
		ID:        pi.ID,
		Status:    mapIntentStatus(pi.Status),
		RawStatus: string(pi.Status),
		Amount:    domain.FromMinorUnits(minor),
		Metadata:  pi.Metadata,
	}, nil
}

func (g *IntentGateway) Refund(ctx context.Context, intentID string, amount *decimal.Decimal) (*domain.Refund, error) {
	params := &stripego.RefundParams{
		PaymentIntent: stripego.String(intentID),
	}
	if amount != nil {
		params.Amount = stripego.Int64(domain.ToMinorUnits(*amount))
	}
	params.Context = ctx

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: refund %s: %w", intentID, err)
	}
	return &domain.Refund{
		ID:     r.ID,
		Amount: domain.FromMinorUnits(r.Amount),
		Status: string(r.Status),
	}, nil
}

func mapIntentStatus(s stripego.PaymentIntentStatus) domain.GatewayStatus {
	switch s {
	case stripego.PaymentIntentStatusSucceeded:
		return domain.GatewaySucceeded
	case stripego.PaymentIntentStatusCanceled:
		return domain.GatewayFailed
	}
	return domain.GatewayPending
}
