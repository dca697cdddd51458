package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/order"
)

// Subject and Body render the shopper-facing confirmation text.
func Subject(c order.Confirmation) string {
	return fmt.Sprintf("Velora order %s confirmed", c.OrderID)
}

func Body(c order.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", c.Name)
	fmt.Fprintf(&b, "Thanks for shopping with Velora. Your order %s has been placed.\n\n", c.OrderID)
	fmt.Fprintf(&b, "Items: %d\n", c.ItemCount)
	fmt.Fprintf(&b, "Total: Rs. %.2f\n", c.TotalPrice)
	fmt.Fprintf(&b, "Payment: %s\n", c.PaymentMethod)
	b.WriteString("\nYou can track it any time with your order id and this email address.\n")
	return b.String()
}

func shortText(c order.Confirmation) string {
	return fmt.Sprintf("Velora: order %s placed, %d item(s), total Rs. %.2f (%s).",
		c.OrderID, c.ItemCount, c.TotalPrice, c.PaymentMethod)
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender emails the confirmation to the shipping address email.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr:     net.JoinHostPort(host, port),
		host:     host,
		from:     from,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Name() string { return "email" }

func (s *SMTPSender) Send(ctx context.Context, c order.Confirmation) error {
	if c.Email == "" {
		return fmt.Errorf("email: confirmation for order %s has no recipient", c.OrderID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMail(s.from, c.Email, Subject(c), Body(c))
	if err := s.sendMail(s.addr, s.auth, s.from, []string{c.Email}, msg); err != nil {
		return fmt.Errorf("email: failed to send to %s: %w", c.Email, err)
	}
	return nil
}

func buildMail(from, to, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes()
}

// SMSWebhookSender posts the confirmation text to an SMS gateway webhook.
type SMSWebhookSender struct {
	url    string
	client *http.Client
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func NewSMSWebhookSender(url string, timeout time.Duration) *SMSWebhookSender {
	return &SMSWebhookSender{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *SMSWebhookSender) Name() string { return "sms" }

func (s *SMSWebhookSender) Send(ctx context.Context, c order.Confirmation) error {
	if c.Phone == "" {
		return fmt.Errorf("sms: confirmation for order %s has no phone", c.OrderID)
	}

	payload, err := json.Marshal(smsRequest{To: c.Phone, Message: shortText(c)})
	if err != nil {
		return fmt.Errorf("sms: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sms: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms: gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSender writes confirmations to the log. Useful when no gateway is configured.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(_ context.Context, c order.Confirmation) error {
	log.Info().
		Stringer("order_id", c.OrderID).
		Str("email", c.Email).
		Str("phone", c.Phone).
		Str("text", shortText(c)).
		Msg("Order confirmation")
	return nil
}
