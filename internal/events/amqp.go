package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func logf(format string, args ...any) { log.Printf("[events] "+format, args...) }

// AMQP publishes events to a topic exchange keyed by event type.
type AMQP struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
}

// DialAMQP connects and declares the topology: a durable topic exchange, a
// durable queue bound with "#" and a dead-letter queue for rejected messages.
func DialAMQP(url, exchange, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a := &AMQP{conn: conn, ch: ch, exchange: exchange, queue: queue}
	if err := a.setup(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *AMQP) setup() error {
	dlx := a.queue + ".dlx"
	if err := a.ch.ExchangeDeclare(dlx, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := a.ch.QueueDeclare(a.queue+".dead", true, false, false, false, nil); err != nil {
		return err
	}
	if err := a.ch.QueueBind(a.queue+".dead", "", dlx, false, nil); err != nil {
		return err
	}

	if err := a.ch.ExchangeDeclare(a.exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := a.ch.QueueDeclare(a.queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": dlx,
	}); err != nil {
		return err
	}
	return a.ch.QueueBind(a.queue, "#", a.exchange, false, nil)
}

func (a *AMQP) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch.PublishWithContext(ctx, a.exchange, string(e.Type), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		ContentType:  "application/json",
		MessageId:    e.ID,
		Type:         string(e.Type),
		Body:         body,
	})
}

// Consume delivers queued events to h until ctx is cancelled. Malformed
// messages are dead-lettered; handler failures are requeued once.
func (a *AMQP) Consume(ctx context.Context, h Handler) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	if err := ch.Qos(16, 0, false); err != nil {
		return err
	}
	msgs, err := ch.Consume(a.queue, "marketplace-notifications", false, false, false, false, nil)
	if err != nil {
		return err
	}
	logf("consuming %s", a.queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			handleDelivery(ctx, msg, h)
		}
	}
}

// acknowledger is the subset of amqp.Delivery used by handleDelivery.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, msg amqp.Delivery, h Handler) {
	process(ctx, msg.Body, msg.Redelivered, msg, h)
}

func process(ctx context.Context, body []byte, redelivered bool, ack acknowledger, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			logf("recovered from panic in handler: %v", r)
			_ = ack.Nack(false, false)
		}
	}()

	var e Event
	if err := json.Unmarshal(body, &e); err != nil || e.Type == "" {
		logf("invalid message: %s", body)
		_ = ack.Nack(false, false)
		return
	}
	if err := h(ctx, e); err != nil {
		logf("handle %s %s: %v", e.Type, e.ID, err)
		_ = ack.Nack(false, !redelivered)
		return
	}
	_ = ack.Ack(false)
}

func (a *AMQP) Close() error {
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
