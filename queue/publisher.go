package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ComplaintEvent) error { return nil }

// MultiPublisher fans an event out to several publishers. Every publisher is
// tried; the returned error joins the individual failures.
type MultiPublisher []Publisher

// Publish sends ev to every publisher.
func (m MultiPublisher) Publish(ctx context.Context, ev ComplaintEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AMQPPublisher sends events to a durable RabbitMQ queue as persistent JSON
// messages. The connection is opened lazily and re-dialled after a failure.
type AMQPPublisher struct {
	url   string
	queue string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	failedAt time.Time
	now      func() time.Time
}

const (
	dialTimeout = 5 * time.Second
	redialPause = 10 * time.Second
)

// errBrokerDown is returned without dialling while the last dial failure is recent.
var errBrokerDown = errors.New("rabbitmq unavailable, waiting before redial")

// NewAMQPPublisher does not dial; the first Publish does.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, now: time.Now}
}

// Publish writes ev to the queue, re-dialling when the connection dropped.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ComplaintEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close shuts the connection down.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

// channel returns an open channel, dialling when needed. Caller holds mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if !p.failedAt.IsZero() && p.now().Sub(p.failedAt) < redialPause {
		return nil, errBrokerDown
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		p.failedAt = p.now()
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	p.failedAt = time.Time{}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	slog.Info("rabbitmq publisher connected", "queue", p.queue)
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
