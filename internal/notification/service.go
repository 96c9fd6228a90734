package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/events"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/realtime"
)

const pushEvent = "notification"

// Recipients resolves the users behind roles and shops.
type Recipients interface {
	IDsByRole(ctx context.Context, role auth.Role) ([]string, error)
	VendorOwner(ctx context.Context, vendorID string) (string, error)
}

type Service struct {
	repo       Repository
	push       realtime.Pusher
	recipients Recipients
}

func NewService(repo Repository, push realtime.Pusher, recipients Recipients) *Service {
	return &Service{repo: repo, push: push, recipients: recipients}
}

// Create stores a notification and pushes it if the user is online.
func (s *Service) Create(ctx context.Context, userID, typ, title, body string, data any) (*Notification, error) {
	n := &Notification{ID: uuid.NewString(), UserID: userID, Type: typ, Title: title, Body: body}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		n.Data = b
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, apperr.Internal(err)
	}
	if s.push != nil {
		s.push.Push(userID, pushEvent, n)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, q Query) ([]Notification, int, error) {
	q.UserID = p.UserID
	out, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return out, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, p auth.Principal) (int, error) {
	n, err := s.repo.UnreadCount(ctx, p.UserID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, p auth.Principal, id string) error {
	if err := s.repo.MarkRead(ctx, p.UserID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("notification not found")
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, p auth.Principal) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, p.UserID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

// Broadcast notifies every user holding role, or every user when role is
// empty. It returns the number of notifications written.
func (s *Service) Broadcast(ctx context.Context, in BroadcastRequest) (int, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return 0, apperr.BadRequest("title is required")
	}
	roles := []auth.Role{auth.RoleAdmin, auth.RoleVendor, auth.RoleCustomer}
	if in.Role != "" {
		r := auth.Role(in.Role)
		if !r.Valid() {
			return 0, apperr.BadRequest("invalid role %q", in.Role)
		}
		roles = []auth.Role{r}
	}
	sent := 0
	for _, r := range roles {
		ids, err := s.recipients.IDsByRole(ctx, r)
		if err != nil {
			return sent, apperr.Internal(err)
		}
		for _, id := range ids {
			if _, err := s.Create(ctx, id, "broadcast", title, in.Body, nil); err != nil {
				return sent, err
			}
			sent++
		}
	}
	return sent, nil
}

// HandleEvent turns domain events into notifications for the parties
// involved.
func (s *Service) HandleEvent(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.OrderCreated:
		var d events.OrderCreatedData
		if err := e.Decode(&d); err != nil {
			return err
		}
		owner, err := s.recipients.VendorOwner(ctx, d.VendorID)
		if err != nil {
			return err
		}
		_, err = s.Create(ctx, owner, string(e.Type), "New order received",
			fmt.Sprintf("Order %s was placed.", shortID(d.OrderID)), d)
		return err
	case events.OrderStatusChanged:
		var d events.OrderStatusData
		if err := e.Decode(&d); err != nil {
			return err
		}
		_, err := s.Create(ctx, d.CustomerID, string(e.Type), "Order "+strings.ToLower(d.To),
			fmt.Sprintf("Order %s moved from %s to %s.", shortID(d.OrderID), d.From, d.To), d)
		return err
	case events.PaymentUpdated:
		var d events.PaymentData
		if err := e.Decode(&d); err != nil {
			return err
		}
		if d.CustomerID == "" {
			return nil
		}
		_, err := s.Create(ctx, d.CustomerID, string(e.Type), "Payment "+strings.ToLower(d.Status),
			fmt.Sprintf("Payment for order %s is %s.", shortID(d.OrderID), d.Status), d)
		return err
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
