package request

import "github.com/shopspring/decimal"

type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Buyer struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	TownOrCity string `json:"town_or_city"`
	PostCode   string `json:"post_code"`
	State      string `json:"state"`
	Country    string `json:"country"`
}

type CheckoutRequest struct {
	PaymentMethod   string     `json:"payment_method"`
	Products        []LineItem `json:"products"`
	Buyer           Buyer      `json:"buyer"`
	DeliveryAddress string     `json:"delivery_address"`
	// Amount is the storefront total; the server recomputes it.
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type TopUpRequest struct {
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	ReceiverID string          `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type TrackerRequest struct {
	IsDelivered  *bool   `json:"is_delivered,omitempty"`
	DeliveryNote *string `json:"delivery_note,omitempty"`
}
