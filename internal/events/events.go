// Package events carries domain events between the API and the notification
// consumer.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	PaymentUpdated     Type = "payment.updated"
)

// Event is the JSON envelope published for every domain event.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

func New(t Type, data any) (Event, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: time.Now().UTC(), Data: b}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error { return json.Unmarshal(e.Data, v) }

type OrderCreatedData struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	VendorID   string `json:"vendor_id"`
	TotalCents int64  `json:"total_cents"`
}

type OrderStatusData struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	VendorID   string `json:"vendor_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type PaymentData struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	CustomerID  string `json:"customer_id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
}

// Handler processes one event. A returned error is logged by the caller.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit builds and publishes an event, logging rather than failing: events
// are always published after the state change has committed.
func Emit(ctx context.Context, p Publisher, t Type, data any) {
	if p == nil {
		return
	}
	e, err := New(t, data)
	if err == nil {
		err = p.Publish(ctx, e)
	}
	if err != nil {
		logf("publish %s failed: %v", t, err)
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Local hands events straight to an in-process handler. It is used when no
// broker is configured so notifications still work on a single node.
type Local struct{ h Handler }

func NewLocal(h Handler) *Local { return &Local{h: h} }

func (l *Local) Publish(ctx context.Context, e Event) error {
	if err := l.h(context.WithoutCancel(ctx), e); err != nil {
		logf("handle %s %s: %v", e.Type, e.ID, err)
	}
	return nil
}

func (l *Local) Close() error { return nil }
