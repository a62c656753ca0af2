package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer renders order notifications and sends them over SMTP. Sending is
// synchronous; retries belong to the notification queue.
type Mailer struct {
	dialer     dialer
	from       string
	ownerEmail string
	storeName  string
}

func NewMailer(cfg config.Mailer) *Mailer {
	return &Mailer{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:       cfg.From,
		ownerEmail: cfg.OwnerEmail,
		storeName:  cfg.StoreName,
	}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, order domain.OrderSnapshot) error {
	if order.Buyer.Email == "" {
		return errors.New("order has no buyer email")
	}
	subject := fmt.Sprintf("%s: order %s confirmed", m.storeName, order.Reference)
	return m.send(ctx, order.Buyer.Email, subject, confirmationTemplate, order)
}

func (m *Mailer) SendOwnerAlert(ctx context.Context, order domain.OrderSnapshot) error {
	if m.ownerEmail == "" {
		return errors.New("owner email is not configured")
	}
	subject := fmt.Sprintf("New order %s (%s)", order.Reference, order.Amount.StringFixed(2))
	return m.send(ctx, m.ownerEmail, subject, ownerAlertTemplate, order)
}

func (m *Mailer) send(ctx context.Context, to, subject string, tmpl *template.Template, order domain.OrderSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, newEmailData(m.storeName, order)); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", tmpl.Name(), to, err)
	}
	return nil
}
