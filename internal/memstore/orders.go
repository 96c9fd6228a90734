package memstore

import (
	"context"
	"errors"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/inventory"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
)

type Orders struct{ s *state }

var _ order.Repository = (*Orders)(nil)

func cloneOrder(o *order.Order) order.Order {
	cp := *o
	cp.Items = make([]order.Item, len(o.Items))
	for i, it := range o.Items {
		if it.ProductID != nil {
			pid := *it.ProductID
			it.ProductID = &pid
		}
		cp.Items[i] = it
	}
	cp.Payment = nil
	return cp
}

// CreateCheckout checks every reservation before writing anything, so a
// shortfall leaves the store untouched.
func (r *Orders) CreateCheckout(_ context.Context, orders []*order.Order, payments []order.PendingPayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	need := map[string]int{}
	var ids []string
	for _, o := range orders {
		for _, it := range o.Items {
			if _, seen := need[*it.ProductID]; !seen {
				ids = append(ids, *it.ProductID)
			}
			need[*it.ProductID] += it.Quantity
		}
	}
	for _, id := range ids {
		l, ok := r.s.stock[id]
		if !ok || l.Quantity < need[id] {
			return &order.StockError{ProductID: id}
		}
	}

	now := r.s.now()
	for _, id := range ids {
		r.s.stock[id].Quantity -= need[id]
		r.s.stock[id].UpdatedAt = now
	}
	for _, o := range orders {
		o.CreatedAt, o.UpdatedAt = now, now
		o.Totalize()
		cp := cloneOrder(o)
		r.s.orders[o.ID] = &cp
		r.s.track(o.ID)
	}
	for _, p := range payments {
		r.s.payments[p.ID] = &payment.Payment{
			ID:          p.ID,
			OrderID:     p.OrderID,
			Provider:    p.Provider,
			AmountCents: p.AmountCents,
			Currency:    p.Currency,
			Status:      payment.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		r.s.track(p.ID)
	}
	return nil
}

func (r *Orders) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (r *Orders) List(_ context.Context, q order.Query) ([]order.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []order.Order
	for _, o := range r.s.orders {
		switch {
		case q.CustomerID != "" && o.CustomerID != q.CustomerID,
			q.VendorID != "" && o.VendorID != q.VendorID,
			q.Status != "" && o.Status != q.Status:
			continue
		}
		out = append(out, cloneOrder(o))
	}
	newestFirst(r.s, out, func(o order.Order) string { return o.ID })
	return window(out, q.Limit, q.Offset), len(out), nil
}

func (r *Orders) UpdateStatus(_ context.Context, id string, from, to order.Status, move order.StockMove) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != from {
		return order.ErrStatusChanged
	}

	sign := 0
	switch move {
	case order.StockRelease:
		sign = 1
	case order.StockReserve:
		sign = -1
	}
	delta := map[string]int{}
	for _, it := range o.Items {
		if it.ProductID != nil {
			delta[*it.ProductID] += sign * it.Quantity
		}
	}
	// Validate every line first so a failure leaves the store untouched.
	for pid, d := range delta {
		l, ok := r.s.stock[pid]
		switch {
		case !ok && d < 0:
			return &order.StockError{ProductID: pid}
		case !ok:
			continue
		}
		if err := inventory.Check(int64(l.Quantity) + int64(d)); err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return &order.StockError{ProductID: pid}
			}
			return err
		}
	}

	now := r.s.now()
	o.Status, o.UpdatedAt = to, now
	for pid, d := range delta {
		if l, ok := r.s.stock[pid]; ok && d != 0 {
			l.Quantity += d
			l.UpdatedAt = now
		}
	}
	return nil
}

type Payments struct{ s *state }

var _ payment.Repository = (*Payments)(nil)

func (r *Payments) Create(_ context.Context, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.payments[p.ID] = &cp
	r.s.track(p.ID)
	return nil
}

func (r *Payments) find(match func(p *payment.Payment) bool) (*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, payment.ErrNotFound
}

func (r *Payments) GetByID(_ context.Context, id string) (*payment.Payment, error) {
	return r.find(func(p *payment.Payment) bool { return p.ID == id })
}

func (r *Payments) GetByExternalRef(_ context.Context, ref string) (*payment.Payment, error) {
	return r.find(func(p *payment.Payment) bool { return ref != "" && p.ExternalRef == ref })
}

func (r *Payments) ListByOrder(_ context.Context, orderID string) ([]payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []payment.Payment
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	oldestFirst(r.s, out, func(p payment.Payment) string { return p.ID })
	return out, nil
}

func (r *Payments) mutate(id string, fn func(p *payment.Payment)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return payment.ErrNotFound
	}
	fn(p)
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *Payments) SetIntent(_ context.Context, id, externalRef, clientSecret string) error {
	return r.mutate(id, func(p *payment.Payment) { p.ExternalRef, p.ClientSecret = externalRef, clientSecret })
}

func (r *Payments) SetStatus(_ context.Context, id string, status payment.Status) error {
	return r.mutate(id, func(p *payment.Payment) { p.Status = status })
}
