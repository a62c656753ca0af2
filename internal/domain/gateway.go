package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// GatewayStatus is a provider status normalized to the three outcomes the
// orchestrator acts on.
type GatewayStatus string

const (
	GatewayPending   GatewayStatus = "pending"
	GatewaySucceeded GatewayStatus = "succeeded"
	GatewayFailed    GatewayStatus = "failed"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       GatewayStatus
	RawStatus    string
}

type IntentDetails struct {
	ID        string
	Status    GatewayStatus
	RawStatus string
	Amount    decimal.Decimal
	Metadata  map[string]string
}

type Refund struct {
	ID     string
	Amount decimal.Decimal
	Status string
}

type Authorization struct {
	AuthorizationURL string
	Reference        string
	Status           GatewayStatus
}

type Verification struct {
	Reference string
	Status    GatewayStatus
	RawStatus string
	Amount    decimal.Decimal
}

type IntentGateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, email string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*IntentDetails, error)
	// Refund returns funds for a captured intent. A nil amount refunds in full.
	Refund(ctx context.Context, intentID string, amount *decimal.Decimal) (*Refund, error)
}

type RedirectGateway interface {
	CreateAuthorization(ctx context.Context, amountMinor int64, email string) (*Authorization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// ToMinorUnits converts a major-unit amount (pounds, naira) to the integer
// minor units gateways expect.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
