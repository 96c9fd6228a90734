package memstore

import (
	"context"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/admin"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
)

type Admin struct{ s *state }

var _ admin.Repository = (*Admin)(nil)

func (r *Admin) Stats(_ context.Context) (*admin.Stats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := &admin.Stats{
		Users:           len(r.s.users),
		Products:        len(r.s.products),
		VendorsByStatus: map[string]int{},
		OrdersByStatus:  map[string]int{},
	}
	for _, u := range r.s.users {
		if u.IsBanned {
			st.BannedUsers++
		}
	}
	for _, v := range r.s.vendors {
		st.VendorsByStatus[string(v.Status)]++
	}
	for _, p := range r.s.products {
		if p.Status == product.StatusActive {
			st.ActiveProducts++
		}
	}
	for _, o := range r.s.orders {
		st.OrdersByStatus[string(o.Status)]++
	}
	for _, p := range r.s.payments {
		if p.Status == payment.StatusPaid {
			st.PaidRevenueCents += p.AmountCents
		}
	}
	return st, nil
}
