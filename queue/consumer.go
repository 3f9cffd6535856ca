package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one decoded event. An error rejects the message without requeue.
type Handler func(ctx context.Context, ev ComplaintEvent) error

const maxBackoff = 30 * time.Second

// StartNotificationConsumer consumes the events queue until ctx is done,
// re-dialling with exponential backoff whenever the broker goes away.
func StartNotificationConsumer(ctx context.Context, url, queue string, handle Handler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("notification consumer: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consume(ctx, conn, queue, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("notification consumer: reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consume(ctx context.Context, conn *amqp.Connection, queue string, handle Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(50, 0, false); err != nil {
		slog.Warn("notification consumer: set qos", "error", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := Dispatch(ctx, d.Body, handle); err != nil {
				slog.Error("notification consumer: handle message", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Dispatch decodes body and hands it to handle.
func Dispatch(ctx context.Context, body []byte, handle Handler) error {
	var ev ComplaintEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return handle(ctx, ev)
}

// LogNotification is the default handler: it records who should be told
// about the change.
func LogNotification(_ context.Context, ev ComplaintEvent) error {
	attrs := []any{"event", ev.Type, "complaint_id", ev.ComplaintID, "status", ev.Status}
	switch ev.Type {
	case EventAssigned:
		slog.Info("notification", append(attrs, "recipient", ev.AssignedTo, "reason", "assigned to you")...)
	case EventStatusChanged, EventResolved:
		if ev.ActorID != ev.ReportedBy {
			slog.Info("notification", append(attrs, "recipient", ev.ReportedBy, "reason", "your complaint changed")...)
		}
	case EventNoteAdded:
		for _, to := range []string{ev.ReportedBy, ev.AssignedTo} {
			if to != "" && to != ev.ActorID {
				slog.Info("notification", append(attrs, "recipient", to, "reason", "new note")...)
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
