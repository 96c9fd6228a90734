package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/realtime"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

const pushEvent = "chat.message"

// Vendors resolves shops by id and by owner.
type Vendors interface {
	GetByID(ctx context.Context, id string) (*vendor.Vendor, error)
	GetByUserID(ctx context.Context, userID string) (*vendor.Vendor, error)
}

type Service struct {
	repo    Repository
	vendors Vendors
	push    realtime.Pusher
}

func NewService(repo Repository, vendors Vendors, push realtime.Pusher) *Service {
	return &Service{repo: repo, vendors: vendors, push: push}
}

// Open starts or resumes the caller's conversation with a shop.
func (s *Service) Open(ctx context.Context, p auth.Principal, in OpenConversationRequest) (*Conversation, error) {
	v, err := s.vendors.GetByID(ctx, in.VendorID)
	if err != nil {
		if errors.Is(err, vendor.ErrNotFound) {
			return nil, apperr.NotFound("vendor not found")
		}
		return nil, apperr.Internal(err)
	}
	if v.UserID == p.UserID {
		return nil, apperr.BadRequest("you cannot open a conversation with your own shop")
	}
	pid := in.ProductID
	if pid != nil && *pid == "" {
		pid = nil
	}
	c, err := s.repo.GetOrCreate(ctx, &Conversation{ID: uuid.NewString(), CustomerID: p.UserID, VendorID: v.ID, ProductID: pid})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return c, nil
}

func (s *Service) myVendorID(ctx context.Context, p auth.Principal) (string, error) {
	v, err := s.vendors.GetByUserID(ctx, p.UserID)
	if errors.Is(err, vendor.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v.ID, nil
}

func (s *Service) ListConversations(ctx context.Context, p auth.Principal, limit, offset int) ([]Conversation, int, error) {
	vid, err := s.myVendorID(ctx, p)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	out, total, err := s.repo.ListForUser(ctx, p.UserID, vid, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return out, total, nil
}

// participant loads the conversation and returns the other party's user id.
func (s *Service) participant(ctx context.Context, p auth.Principal, id string) (*Conversation, string, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", apperr.NotFound("conversation not found")
		}
		return nil, "", apperr.Internal(err)
	}
	v, err := s.vendors.GetByID(ctx, c.VendorID)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	switch p.UserID {
	case c.CustomerID:
		return c, v.UserID, nil
	case v.UserID:
		return c, c.CustomerID, nil
	}
	return nil, "", apperr.Forbidden("not a participant of this conversation")
}

func (s *Service) Messages(ctx context.Context, p auth.Principal, id string, limit, offset int) ([]Message, int, error) {
	if _, _, err := s.participant(ctx, p, id); err != nil {
		return nil, 0, err
	}
	out, total, err := s.repo.Messages(ctx, id, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return out, total, nil
}

// Send appends a message and pushes it to the other participant.
func (s *Service) Send(ctx context.Context, p auth.Principal, id string, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > MaxBodyLen {
		return nil, apperr.BadRequest("message must be between 1 and %d characters", MaxBodyLen)
	}
	_, other, err := s.participant(ctx, p, id)
	if err != nil {
		return nil, err
	}
	m := &Message{ID: uuid.NewString(), ConversationID: id, SenderID: p.UserID, Body: body}
	if err := s.repo.AddMessage(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}
	if s.push != nil {
		s.push.Push(other, pushEvent, m)
	}
	return m, nil
}
