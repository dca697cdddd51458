package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/order"
)

var ErrPoolClosed = errors.New("notify: channel pool is closed")

// ChannelPool hands out AMQP channels on one shared connection. Every channel
// has the confirmation queue declared on it.
type ChannelPool struct {
	conn      *amqp.Connection
	channels  chan *amqp.Channel
	mu        sync.Mutex
	closed    bool
	queueName string
}

func NewChannelPool(rabbitmqURL, queueName string, size int) (*ChannelPool, error) {
	if size < 1 {
		size = 1
	}

	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	pool := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		queueName: queueName,
	}

	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	log.Info().Int("size", size).Str("queue", queueName).Msg("Created RabbitMQ channel pool")
	return pool, nil
}

// Conn exposes the underlying connection so consumers can open their own channels.
func (p *ChannelPool) Conn() *amqp.Connection {
	return p.conn
}

func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	if err := DeclareQueue(ch, p.queueName); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}

// GetChannel waits for a free channel until ctx is done. Closed channels are replaced.
func (p *ChannelPool) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch.IsClosed() {
			return p.createChannel()
		}
		return ch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("notify: waiting for channel: %w", ctx.Err())
	}
}

func (p *ChannelPool) ReturnChannel(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch.Close()
		return
	}

	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	log.Info().Msg("Closed RabbitMQ channel pool")
}

// DeclareQueue declares the durable confirmation queue. It is idempotent.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// Publisher sends order confirmations to the queue as persistent JSON messages.
type Publisher struct {
	pool      *ChannelPool
	queueName string
}

func NewPublisher(pool *ChannelPool, queueName string) *Publisher {
	return &Publisher{pool: pool, queueName: queueName}
}

func (p *Publisher) OrderPlaced(ctx context.Context, c order.Confirmation) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}

	ch, err := p.pool.GetChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.ReturnChannel(ch)

	err = ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    c.OrderID.String(),
			Timestamp:    c.CreatedAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish confirmation: %w", err)
	}

	log.Debug().Stringer("order_id", c.OrderID).Str("queue", p.queueName).Msg("Published order confirmation")
	return nil
}

// LogNotifier stands in for the broker when none is configured.
type LogNotifier struct{}

func (LogNotifier) OrderPlaced(_ context.Context, c order.Confirmation) error {
	log.Info().
		Stringer("order_id", c.OrderID).
		Str("email", c.Email).
		Int("item_count", c.ItemCount).
		Float64("total_price", c.TotalPrice).
		Msg("Order confirmation (no broker configured)")
	return nil
}
