package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/order"
)

// Sender delivers a confirmation over one channel (email, SMS, ...).
type Sender interface {
	Name() string
	Send(ctx context.Context, c order.Confirmation) error
}

// Worker consumes confirmations one at a time and hands each to every sender.
type Worker struct {
	workerID  int
	channel   *amqp.Channel
	queueName string
	senders   []Sender
	logger    zerolog.Logger
}

func NewWorker(workerID int, conn *amqp.Connection, queueName string, senders []Sender) (*Worker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for worker %d: %w", workerID, err)
	}

	if err := DeclareQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set QoS for worker %d: %w", workerID, err)
	}

	w := newWorker(workerID, queueName, senders)
	w.channel = ch
	return w, nil
}

func newWorker(workerID int, queueName string, senders []Sender) *Worker {
	return &Worker{
		workerID:  workerID,
		queueName: queueName,
		senders:   senders,
		logger:    log.With().Int("worker_id", workerID).Logger(),
	}
}

// Start consumes until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.channel.Close()

	msgs, err := w.channel.ConsumeWithContext(ctx,
		w.queueName,
		fmt.Sprintf("notification-worker-%d", w.workerID),
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to register consumer")
		return
	}

	w.logger.Info().Str("queue", w.queueName).Msg("Worker started")
	for msg := range msgs {
		w.processMessage(ctx, msg)
	}
	w.logger.Info().Msg("Worker stopped")
}

func (w *Worker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var c order.Confirmation
	if err := json.Unmarshal(msg.Body, &c); err != nil {
		w.logger.Warn().Err(err).Msg("Dropping malformed confirmation")
		if err := msg.Nack(false, false); err != nil {
			w.logger.Error().Err(err).Msg("Failed to reject message")
		}
		return
	}

	for _, s := range w.senders {
		if err := s.Send(ctx, c); err != nil {
			w.logger.Warn().Err(err).Str("sender", s.Name()).Stringer("order_id", c.OrderID).Msg("Failed to send confirmation")
			continue
		}
		w.logger.Debug().Str("sender", s.Name()).Stringer("order_id", c.OrderID).Msg("Confirmation sent")
	}

	if err := msg.Ack(false); err != nil {
		w.logger.Error().Err(err).Stringer("order_id", c.OrderID).Msg("Failed to acknowledge message")
	}
}

// Stop closes the worker channel, which ends Start.
func (w *Worker) Stop() {
	if w.channel != nil {
		w.channel.Close()
	}
}
