package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/velora/internal/order"
)

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}

type recordingSender struct {
	name string
	err  error
	got  []order.Confirmation
}

func (r *recordingSender) Name() string { return r.name }

func (r *recordingSender) Send(_ context.Context, c order.Confirmation) error {
	r.got = append(r.got, c)
	return r.err
}

func sampleConfirmation() order.Confirmation {
	return order.Confirmation{
		OrderID:       uuid.Must(uuid.NewV4()),
		Name:          "Asha",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		ItemCount:     3,
		TotalPrice:    2300,
		PaymentMethod: order.PaymentUPI,
		CreatedAt:     time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestWorker_ProcessMessage(t *testing.T) {
	c := sampleConfirmation()
	body, err := json.Marshal(c)
	require.NoError(t, err)

	email := &recordingSender{name: "email", err: errors.New("smtp down")}
	sms := &recordingSender{name: "sms"}
	w := newWorker(1, "order_confirmations", []Sender{email, sms})

	ack := &fakeAcknowledger{}
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body})

	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 0, ack.nacked)
	require.Len(t, email.got, 1)
	require.Len(t, sms.got, 1)
	assert.Equal(t, c.OrderID, sms.got[0].OrderID)
	assert.True(t, c.CreatedAt.Equal(sms.got[0].CreatedAt))
}

func TestWorker_ProcessMessage_Malformed(t *testing.T) {
	sender := &recordingSender{name: "email"}
	w := newWorker(1, "order_confirmations", []Sender{sender})

	ack := &fakeAcknowledger{}
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte("{not json")})

	assert.Equal(t, 0, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
	assert.Empty(t, sender.got)
}

func TestSMTPSender_Send(t *testing.T) {
	c := sampleConfirmation()
	s := NewSMTPSender("mail.example.com", "587", "", "", "orders@velora.local")

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), c))
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, []string{"asha@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Velora order "+c.OrderID.String()+" confirmed\r\n")
	assert.Contains(t, gotMsg, "Total: Rs. 2300.00\r\n")
}

func TestSMTPSender_NoRecipient(t *testing.T) {
	c := sampleConfirmation()
	c.Email = ""
	s := NewSMTPSender("mail.example.com", "587", "", "", "orders@velora.local")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("sendMail must not be called")
		return nil
	}

	require.Error(t, s.Send(context.Background(), c))
}

func TestSMSWebhookSender_Send(t *testing.T) {
	c := sampleConfirmation()
	var got smsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, NewSMSWebhookSender(srv.URL, time.Second).Send(context.Background(), c))
	assert.Equal(t, "9876543210", got.To)
	assert.True(t, strings.HasPrefix(got.Message, "Velora: order "+c.OrderID.String()))
}

func TestSMSWebhookSender_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewSMSWebhookSender(srv.URL, time.Second).Send(context.Background(), sampleConfirmation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.OrderPlaced(context.Background(), sampleConfirmation()))
	assert.NoError(t, LogSender{}.Send(context.Background(), sampleConfirmation()))
}
