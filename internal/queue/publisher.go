package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DialTimeout bounds the TCP connect and AMQP handshake of a publisher.
	DialTimeout = 2 * time.Second
	// RedialAfter is how long a publisher fails fast after a dial failure.
	RedialAfter = 5 * time.Second
)

// ErrBrokerUnavailable is returned while a publisher waits out RedialAfter.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// Publisher sends expense events to a durable queue on the default exchange.
// The connection is opened on first use and re-opened after a failure.
// Publishes are serialized, so at most one caller per RedialAfter waits on
// an unreachable broker, and for no longer than DialTimeout.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	redialAfter time.Duration
	now         func() time.Time

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	failedAt time.Time
}

// NewPublisher returns a publisher for queue on the broker at url.  Nothing
// is dialed until the first Publish.
func NewPublisher(url, queue string) *Publisher {
	return &Publisher{
		url:         url,
		queue:       queue,
		dialTimeout: DialTimeout,
		redialAfter: RedialAfter,
		now:         time.Now,
	}
}

// Publish marshals ev and publishes it as a persistent message.  Errors are
// returned so the caller can log them; they never affect the stored data.
func (p *Publisher) Publish(ctx context.Context, ev ExpenseEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// channel returns an open channel, dialing when needed.  p.mu must be held.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if !p.failedAt.IsZero() && p.now().Sub(p.failedAt) < p.redialAfter {
		return nil, ErrBrokerUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		p.failedAt = p.now()
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	p.failedAt = time.Time{}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// declare ensures the queue exists.  Durable so messages survive broker
// restarts.
func declare(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
