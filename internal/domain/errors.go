package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrOutOfStock          = errors.New("out of stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrGatewayRejected     = errors.New("payment gateway rejected the request")
	ErrInvalidTransfer     = errors.New("invalid transfer")

	ErrProductNotFound     = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound       = fmt.Errorf("order %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrWalletNotFound      = fmt.Errorf("wallet %w", ErrNotFound)

	ErrRefundNotAllowed = fmt.Errorf("%w: refund not allowed", ErrValidation)
)

// ProductError ties a catalog failure to the product that caused it.
type ProductError struct {
	ProductID string
	Requested int
	Available int
	Err       error
}

func (e *ProductError) Error() string {
	if errors.Is(e.Err, ErrOutOfStock) {
		return fmt.Sprintf("product %s: %v (requested %d, available %d)", e.ProductID, e.Err, e.Requested, e.Available)
	}
	return fmt.Sprintf("product %s: %v", e.ProductID, e.Err)
}

func (e *ProductError) Unwrap() error { return e.Err }

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func GatewayRejectedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGatewayRejected, fmt.Sprintf(format, args...))
}
