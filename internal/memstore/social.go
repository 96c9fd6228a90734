package memstore

import (
	"context"
	"sort"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/chat"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/notification"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/review"
)

type Reviews struct{ s *state }

var _ review.Repository = (*Reviews)(nil)

func (r *Reviews) Create(_ context.Context, rv *review.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.reviews {
		if e.OrderID == rv.OrderID && e.ProductID == rv.ProductID && e.CustomerID == rv.CustomerID {
			return review.ErrAlreadyExist
		}
	}
	rv.CreatedAt = r.s.now()
	cp := *rv
	r.s.reviews[rv.ID] = &cp
	r.s.track(rv.ID)
	return nil
}

func (r *Reviews) GetByID(_ context.Context, id string) (*review.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, review.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (r *Reviews) ListForProduct(_ context.Context, productID string, limit, offset int) ([]review.Review, review.Summary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []review.Review
	total := 0
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			out = append(out, *rv)
			total += rv.Rating
		}
	}
	sum := review.Summary{Count: len(out)}
	if len(out) > 0 {
		sum.Average = float64(total) / float64(len(out))
	}
	newestFirst(r.s, out, func(rv review.Review) string { return rv.ID })
	return window(out, limit, offset), sum, nil
}

func (r *Reviews) SetReply(_ context.Context, id, reply string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return review.ErrNotFound
	}
	now := r.s.now()
	rv.VendorReply, rv.RepliedAt = reply, &now
	return nil
}

func (r *Reviews) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return false, nil
	}
	delete(r.s.reviews, id)
	return true, nil
}

type Chat struct{ s *state }

var _ chat.Repository = (*Chat)(nil)

func sameProduct(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *Chat) GetOrCreate(_ context.Context, c *chat.Conversation) (*chat.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.conversations {
		if e.CustomerID == c.CustomerID && e.VendorID == c.VendorID && sameProduct(e.ProductID, c.ProductID) {
			cp := *e
			return &cp, nil
		}
	}
	now := r.s.now()
	c.CreatedAt, c.LastMessageAt = now, now
	cp := *c
	r.s.conversations[c.ID] = &cp
	r.s.track(c.ID)
	out := cp
	return &out, nil
}

func (r *Chat) GetByID(_ context.Context, id string) (*chat.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *Chat) ListForUser(_ context.Context, userID, vendorID string, limit, offset int) ([]chat.Conversation, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []chat.Conversation
	for _, c := range r.s.conversations {
		if c.CustomerID == userID || (vendorID != "" && c.VendorID == vendorID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return window(out, limit, offset), len(out), nil
}

func (r *Chat) AddMessage(_ context.Context, m *chat.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[m.ConversationID]
	if !ok {
		return chat.ErrNotFound
	}
	m.CreatedAt = r.s.now()
	c.LastMessageAt = m.CreatedAt
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r *Chat) Messages(_ context.Context, conversationID string, limit, offset int) ([]chat.Message, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []chat.Message
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return window(out, limit, offset), len(out), nil
}

type Notifications struct{ s *state }

var _ notification.Repository = (*Notifications)(nil)

func (r *Notifications) Create(_ context.Context, n *notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.CreatedAt = r.s.now()
	cp := *n
	r.s.notifications[n.ID] = &cp
	r.s.track(n.ID)
	return nil
}

func (r *Notifications) List(_ context.Context, q notification.Query) ([]notification.Notification, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []notification.Notification
	for _, n := range r.s.notifications {
		if n.UserID == q.UserID && (!q.UnreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	newestFirst(r.s, out, func(n notification.Notification) string { return n.ID })
	return window(out, q.Limit, q.Offset), len(out), nil
}

func (r *Notifications) UnreadCount(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.notifications {
		if e.UserID == userID && !e.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *Notifications) MarkRead(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return notification.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *Notifications) MarkAllRead(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	changed := 0
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}
