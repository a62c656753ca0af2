package notifier

import (
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
)

type emailLine struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

// emailData is what the templates see. Money is pre-formatted so the
// templates stay free of decimal handling.
type emailData struct {
	StoreName       string
	OrderID         string
	Reference       string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	DeliveryAddress string
	PaymentMethod   string
	PaymentStatus   string
	Total           string
	PlacedAt        time.Time
	Lines           []emailLine
}

func newEmailData(storeName string, order domain.OrderSnapshot) emailData {
	data := emailData{
		StoreName:       storeName,
		OrderID:         order.OrderID,
		Reference:       order.Reference,
		CustomerName:    order.Buyer.FullName(),
		CustomerEmail:   order.Buyer.Email,
		CustomerPhone:   order.Buyer.Phone,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.TransactionStatus),
		Total:           order.Amount.StringFixed(2),
		PlacedAt:        order.CreatedAt,
		Lines:           make([]emailLine, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		data.Lines = append(data.Lines, emailLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.UnitPrice.StringFixed(2),
			Subtotal: item.Subtotal.StringFixed(2),
		})
	}
	return data
}
