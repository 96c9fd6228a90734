package payment

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/events"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/money"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
)

type Service struct {
	repo          Repository
	orders        *order.Service
	processor     Processor
	events        events.Publisher
	webhookSecret string
	currency      string
}

// NewService builds the payment service. processor may be nil, in which case
// card orders keep their PENDING payment until recorded by hand.
func NewService(repo Repository, orders *order.Service, processor Processor, pub events.Publisher, webhookSecret, currency string) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, orders: orders, processor: processor, events: pub, webhookSecret: webhookSecret, currency: currency}
}

func display(ps []Payment) []Payment {
	for i := range ps {
		ps[i].AmountDisplay = money.Format(ps[i].AmountCents)
	}
	return ps
}

// StartIntent opens a processor intent for the order's pending payment.
func (s *Service) StartIntent(ctx context.Context, paymentID string, o *order.Order) (*order.PaymentIntent, error) {
	if s.processor == nil {
		return nil, nil
	}
	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	in, err := s.processor.CreateIntent(ctx, p.AmountCents, p.Currency, map[string]string{
		"payment_id": p.ID,
		"order_id":   o.ID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetIntent(ctx, p.ID, in.ID, in.ClientSecret); err != nil {
		return nil, err
	}
	return &order.PaymentIntent{PaymentID: p.ID, Provider: p.Provider, ClientSecret: in.ClientSecret}, nil
}

// ListForOrder is visible to whoever may see the order.
func (s *Service) ListForOrder(ctx context.Context, p auth.Principal, orderID string) ([]Payment, error) {
	if _, err := s.orders.Get(ctx, p, orderID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return display(out), nil
}

// Record stores a payment collected outside the card flow, such as cash on
// delivery. Only the shop that owns the order or an admin may record one;
// card payments are confirmed by the processor webhook instead.
func (s *Service) Record(ctx context.Context, p auth.Principal, orderID string, in RecordPaymentRequest) (*Payment, error) {
	o, err := s.orders.Get(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	if !s.orders.Manages(ctx, p, o) {
		return nil, apperr.Forbidden("only the shop or an admin can record a payment")
	}
	if in.Provider == order.ProviderFor(order.PaymentMethodCard) {
		return nil, apperr.Unprocessable("card payments are confirmed by the processor")
	}
	if in.AmountCents == nil || *in.AmountCents < 0 {
		return nil, apperr.BadRequest("amount_cents must be a non-negative integer")
	}
	if *in.AmountCents > o.TotalCents {
		return nil, apperr.Unprocessable("amount exceeds the order total of %s", money.Format(o.TotalCents))
	}
	if !in.Status.Valid() {
		return nil, apperr.BadRequest("invalid status %q", in.Status)
	}
	pay := &Payment{
		ID:          uuid.NewString(),
		OrderID:     o.ID,
		Provider:    in.Provider,
		ExternalRef: in.ExternalRef,
		AmountCents: *in.AmountCents,
		Currency:    s.currency,
		Status:      in.Status,
	}
	if err := s.repo.Create(ctx, pay); err != nil {
		return nil, apperr.Internal(err)
	}
	s.emit(ctx, pay, o.CustomerID)
	pay.AmountDisplay = money.Format(pay.AmountCents)
	return pay, nil
}

func (s *Service) setStatus(ctx context.Context, pay *Payment, status Status) error {
	if pay.Status == status {
		return nil
	}
	if err := s.repo.SetStatus(ctx, pay.ID, status); err != nil {
		return err
	}
	pay.Status = status
	customerID := ""
	if o, err := s.orders.Find(ctx, pay.OrderID); err == nil {
		customerID = o.CustomerID
	}
	s.emit(ctx, pay, customerID)
	return nil
}

// SetStatus is admin-gated. It never touches the order status.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Payment, error) {
	if !status.Valid() {
		return nil, apperr.BadRequest("invalid status %q", status)
	}
	pay, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, apperr.Internal(err)
	}
	if err := s.setStatus(ctx, pay, status); err != nil {
		return nil, apperr.Internal(err)
	}
	pay.AmountDisplay = money.Format(pay.AmountCents)
	return pay, nil
}

// HandleWebhook verifies and applies a processor event. Event types we do not
// track, and intents we never created, are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		return apperr.NotFound("webhooks are not configured")
	}
	ev, err := constructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return apperr.BadRequest("%v", err)
	}
	status, ok := statusFor[ev.Type]
	if !ok {
		return nil
	}

	pay, err := s.repo.GetByExternalRef(ctx, ev.IntentID)
	if errors.Is(err, ErrNotFound) && ev.PaymentID != "" {
		pay, err = s.repo.GetByID(ctx, ev.PaymentID)
	}
	if errors.Is(err, ErrNotFound) {
		log.Printf("[payment] webhook %s for unknown intent %q", ev.Type, ev.IntentID)
		return nil
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.setStatus(ctx, pay, status); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, p *Payment, customerID string) {
	events.Emit(ctx, s.events, events.PaymentUpdated, events.PaymentData{
		PaymentID:   p.ID,
		OrderID:     p.OrderID,
		CustomerID:  customerID,
		Status:      string(p.Status),
		AmountCents: p.AmountCents,
	})
}
