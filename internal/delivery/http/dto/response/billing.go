package response

import (
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderProduct struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id,omitempty"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone,omitempty"`
	DeliveryAddress string          `json:"delivery_address"`
	Amount          decimal.Decimal `json:"amount"`
	Reference       string          `json:"reference"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	Status          string          `json:"status"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveryNote    string          `json:"delivery_note,omitempty"`
	Products        []OrderProduct  `json:"products"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Transaction struct {
	ID            string          `json:"id"`
	OrderID       *string         `json:"order_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference"`
	UserID        string          `json:"user_id,omitempty"`
	AlertType     string          `json:"alert_type,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Wallet struct {
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CheckoutResponse struct {
	Order            Order        `json:"order"`
	Transaction      *Transaction `json:"transaction,omitempty"`
	PaymentIntentID  string       `json:"payment_intent_id,omitempty"`
	ClientSecret     string       `json:"client_secret,omitempty"`
	AuthorizationURL string       `json:"authorization_url,omitempty"`
	Reference        string       `json:"reference,omitempty"`
}

type VerifyResponse struct {
	OrderID          string `json:"order_id"`
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	OrderStatus      string `json:"order_status"`
	AlreadyProcessed bool   `json:"already_processed"`
}

type TopUpResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

type TopUpVerifyResponse struct {
	Reference        string          `json:"reference"`
	Status           string          `json:"status"`
	Balance          decimal.Decimal `json:"balance"`
	AlreadyProcessed bool            `json:"already_processed"`
}

type TransferResponse struct {
	Reference     string          `json:"reference"`
	SenderBalance decimal.Decimal `json:"sender_balance"`
	Debit         Transaction     `json:"debit"`
	Credit        Transaction     `json:"credit"`
}

type RefundResponse struct {
	RefundID    string          `json:"refund_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Transaction Transaction     `json:"transaction"`
}

type PageInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type ListOrdersResponse struct {
	Orders   []Order  `json:"orders"`
	PageInfo PageInfo `json:"page_info"`
}

type CheckoutFailure struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id,omitempty"`
	Email         string          `json:"email,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	ProductIDs    []string        `json:"product_ids"`
	Error         string          `json:"error"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ListCheckoutFailuresResponse struct {
	Failures []CheckoutFailure `json:"failures"`
	PageInfo PageInfo          `json:"page_info"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	PageInfo     PageInfo      `json:"page_info"`
}

func FromOrder(o *domain.Order) Order {
	resp := Order{
		ID:              o.ID,
		UserID:          o.Buyer.UserID,
		FirstName:       o.Buyer.FirstName,
		LastName:        o.Buyer.LastName,
		Email:           o.Buyer.Email,
		Phone:           o.Buyer.Phone,
		DeliveryAddress: o.DeliveryAddress,
		Amount:          o.Amount,
		Reference:       o.Reference,
		PaymentIntentID: o.PaymentIntentID,
		Status:          string(o.Status),
		IsDelivered:     o.IsDelivered,
		DeliveryNote:    o.DeliveryNote,
		Products:        make([]OrderProduct, 0, len(o.Products)),
		CreatedAt:       o.CreatedAt,
	}
	for _, p := range o.Products {
		resp.Products = append(resp.Products, OrderProduct{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
			Subtotal:    p.Subtotal(),
		})
	}
	return resp
}

func FromTransaction(t *domain.Transaction) Transaction {
	return Transaction{
		ID:            t.ID,
		OrderID:       t.OrderID,
		PaymentMethod: string(t.PaymentMethod),
		Amount:        t.Amount,
		Status:        string(t.Status),
		Reference:     t.Reference,
		UserID:        t.UserID,
		AlertType:     string(t.AlertType),
		CreatedAt:     t.CreatedAt,
	}
}

func FromWallet(w *domain.Wallet) Wallet {
	return Wallet{UserID: w.UserID, Balance: w.Balance, UpdatedAt: w.UpdatedAt}
}

func FromCheckout(out *billingdto.CheckoutOutput) CheckoutResponse {
	resp := CheckoutResponse{
		Order:            FromOrder(out.Order),
		PaymentIntentID:  out.PaymentIntentID,
		ClientSecret:     out.ClientSecret,
		AuthorizationURL: out.AuthorizationURL,
		Reference:        out.Reference,
	}
	if out.Transaction != nil {
		tx := FromTransaction(out.Transaction)
		resp.Transaction = &tx
	}
	return resp
}

func FromVerify(out *billingdto.VerifyOutput) VerifyResponse {
	return VerifyResponse{
		OrderID:          out.OrderID,
		Reference:        out.Reference,
		Status:           string(out.Status),
		OrderStatus:      string(out.OrderStatus),
		AlreadyProcessed: out.AlreadyProcessed,
	}
}

func FromOrders(out *billingdto.ListOrdersOutput) ListOrdersResponse {
	resp := ListOrdersResponse{
		Orders:   make([]Order, 0, len(out.Orders)),
		PageInfo: PageInfo{Page: out.Pagination.Page, Limit: out.Pagination.Limit, Total: out.Total},
	}
	for _, o := range out.Orders {
		resp.Orders = append(resp.Orders, FromOrder(o))
	}
	return resp
}

func FromTransactions(out *billingdto.ListTransactionsOutput) ListTransactionsResponse {
	resp := ListTransactionsResponse{
		Transactions: make([]Transaction, 0, len(out.Transactions)),
		PageInfo:     PageInfo{Page: out.Pagination.Page, Limit: out.Pagination.Limit, Total: out.Total},
	}
	for _, t := range out.Transactions {
		resp.Transactions = append(resp.Transactions, FromTransaction(t))
	}
	return resp
}

func FromCheckoutFailures(out *billingdto.ListCheckoutFailuresOutput) ListCheckoutFailuresResponse {
	resp := ListCheckoutFailuresResponse{
		Failures: make([]CheckoutFailure, 0, len(out.Failures)),
		PageInfo: PageInfo{Page: out.Pagination.Page, Limit: out.Pagination.Limit, Total: out.Total},
	}
	for _, f := range out.Failures {
		resp.Failures = append(resp.Failures, CheckoutFailure{
			ID:            f.ID,
			UserID:        f.UserID,
			Email:         f.Email,
			PaymentMethod: string(f.PaymentMethod),
			Amount:        f.Amount,
			ProductIDs:    f.ProductIDs,
			Error:         f.ErrorMessage,
			CreatedAt:     f.CreatedAt,
		})
	}
	return resp
}
