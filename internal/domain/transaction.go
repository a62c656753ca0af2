package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCardIntent      PaymentMethod = "card-intent"
	MethodRedirectGateway PaymentMethod = "redirect-gateway"
	MethodWallet          PaymentMethod = "wallet"
	MethodOffline         PaymentMethod = "offline"
)

// ParsePaymentMethod accepts the canonical names plus the provider names
// older clients still send ("stripe", "paystack").
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(MethodCardIntent), "stripe", "card":
		return MethodCardIntent, true
	case string(MethodRedirectGateway), "paystack", "redirect":
		return MethodRedirectGateway, true
	case string(MethodWallet):
		return MethodWallet, true
	case string(MethodOffline), "bank-transfer":
		return MethodOffline, true
	}
	return "", false
}

func (m PaymentMethod) IsGateway() bool {
	return m == MethodCardIntent || m == MethodRedirectGateway
}

type TransactionStatus string

const (
	TxStatusPending        TransactionStatus = "pending"
	TxStatusSuccess        TransactionStatus = "success"
	TxStatusFailed         TransactionStatus = "failed"
	TxStatusOfflinePending TransactionStatus = "offline-pending"
)

// CanTransition enforces forward-only status movement.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	return s == TxStatusPending && (to == TxStatusSuccess || to == TxStatusFailed)
}

type AlertType string

const (
	AlertCredit  AlertType = "credit"
	AlertDebit   AlertType = "debit"
	AlertReverse AlertType = "reverse"
)

type Transaction struct {
	ID            string
	OrderID       *string
	PaymentMethod PaymentMethod
	Amount        decimal.Decimal
	Status        TransactionStatus
	Reference     string
	UserID        string
	AlertType     AlertType
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TransactionFilter struct {
	OrderID       string
	Status        TransactionStatus
	Reference     string
	PaymentMethod PaymentMethod
	AlertType     AlertType
	UserID        string
	CreatedBefore time.Time
}
