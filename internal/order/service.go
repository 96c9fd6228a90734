package order

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/events"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/inventory"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/money"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type Options struct {
	ShippingFlatCents int64
	TaxRateBPS        int64
	Currency          string
	// StrictTransitions enforces the transition table. When false any
	// status may follow any other.
	StrictTransitions bool
}

type Service struct {
	repo     Repository
	catalog  Catalog
	vendors  Vendors
	payments PaymentStarter
	events   events.Publisher
	opts     Options
}

func NewService(repo Repository, catalog Catalog, vendors Vendors, pub events.Publisher, opts Options) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, catalog: catalog, vendors: vendors, events: pub, opts: opts}
}

// SetPaymentStarter wires the processor after construction; the payment
// service itself depends on this one.
func (s *Service) SetPaymentStarter(p PaymentStarter) { s.payments = p }

func notFoundOr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("order not found")
	}
	return apperr.Internal(err)
}

type cartLine struct {
	product *product.Product
	qty     int
}

// mergeLines sums quantities of repeated products, keeping first-seen order.
func mergeLines(items []CheckoutItem) ([]string, map[string]int, error) {
	qty := make(map[string]int, len(items))
	var ids []string
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, nil, apperr.BadRequest("quantity must be at least 1")
		}
		if it.Quantity > MaxLineQuantity || qty[it.ProductID] > MaxLineQuantity-it.Quantity {
			return nil, nil, apperr.Unprocessable("quantity must not exceed %d", MaxLineQuantity)
		}
		if _, seen := qty[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
	}
	return ids, qty, nil
}

// Checkout turns a cart into one order per vendor. Stock is reserved in the
// same transaction; if any line cannot be filled nothing is written.
func (s *Service) Checkout(ctx context.Context, p auth.Principal, in CheckoutRequest) (*CheckoutResponse, error) {
	if len(in.Items) == 0 {
		return nil, apperr.BadRequest("cart is empty")
	}
	if in.PaymentMethod != PaymentMethodCard && in.PaymentMethod != PaymentMethodCOD {
		return nil, apperr.BadRequest("unsupported payment method %q", in.PaymentMethod)
	}
	ids, qty, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	approved := map[string]bool{}
	lines := make([]cartLine, 0, len(ids))
	for _, id := range ids {
		prod, err := s.catalog.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, apperr.NotFound("product %s not found", id)
			}
			return nil, apperr.Internal(err)
		}
		if prod.Status != product.StatusActive {
			return nil, apperr.Unprocessable("product %s is not available", id)
		}
		ok, seen := approved[prod.VendorID]
		if !seen {
			v, err := s.vendors.GetByID(ctx, prod.VendorID)
			if err != nil && !errors.Is(err, vendor.ErrNotFound) {
				return nil, apperr.Internal(err)
			}
			ok = err == nil && v.Status == vendor.StatusApproved
			approved[prod.VendorID] = ok
		}
		if !ok {
			return nil, apperr.Unprocessable("product %s is not available", id)
		}
		lines = append(lines, cartLine{product: prod, qty: qty[id]})
	}

	byVendor := lo.GroupBy(lines, func(l cartLine) string { return l.product.VendorID })
	vendorIDs := lo.Uniq(lo.Map(lines, func(l cartLine, _ int) string { return l.product.VendorID }))

	orders := make([]*Order, 0, len(vendorIDs))
	payments := make([]PendingPayment, 0, len(vendorIDs))
	for _, vid := range vendorIDs {
		o := &Order{
			ID:              uuid.NewString(),
			CustomerID:      p.UserID,
			VendorID:        vid,
			Status:          StatusPending,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
		}
		for _, l := range byVendor[vid] {
			pid := l.product.ID
			line, err := money.Line(l.product.PriceCents, l.qty)
			if err == nil {
				o.SubtotalCents, err = money.Sum(o.SubtotalCents, line)
			}
			if err != nil {
				return nil, apperr.Unprocessable("order total is out of range")
			}
			o.Items = append(o.Items, Item{
				ID:             uuid.NewString(),
				OrderID:        o.ID,
				ProductID:      &pid,
				ProductName:    l.product.Name,
				SKU:            l.product.SKU,
				UnitPriceCents: l.product.PriceCents,
				Quantity:       l.qty,
				LineTotalCents: line,
			})
		}
		o.ShippingCents = s.opts.ShippingFlatCents
		o.TaxCents = money.Tax(o.SubtotalCents, s.opts.TaxRateBPS)
		if _, err := money.Sum(o.SubtotalCents, o.ShippingCents, o.TaxCents); err != nil {
			return nil, apperr.Unprocessable("order total is out of range")
		}
		o.Totalize()
		orders = append(orders, o)
		payments = append(payments, PendingPayment{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			Provider:    ProviderFor(in.PaymentMethod),
			AmountCents: o.TotalCents,
			Currency:    s.opts.Currency,
		})
	}

	if err := s.repo.CreateCheckout(ctx, orders, payments); err != nil {
		var se *StockError
		if errors.As(err, &se) {
			return nil, apperr.Conflict("insufficient stock for product %s", se.ProductID)
		}
		if errors.Is(err, ErrConflict) {
			return nil, apperr.Conflict("checkout collided with another order, retry")
		}
		return nil, apperr.Internal(err)
	}

	for i, o := range orders {
		o.Totalize()
		o.Payment = &PaymentIntent{PaymentID: payments[i].ID, Provider: payments[i].Provider}
		if in.PaymentMethod == PaymentMethodCard && s.payments != nil {
			intent, err := s.payments.StartIntent(ctx, payments[i].ID, o)
			if err != nil {
				// The order stands; the client can retry payment later.
				log.Printf("[order] payment intent for %s failed: %v", o.ID, err)
			} else if intent != nil {
				o.Payment = intent
			}
		}
		events.Emit(ctx, s.events, events.OrderCreated, events.OrderCreatedData{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			VendorID:   o.VendorID,
			TotalCents: o.TotalCents,
		})
	}
	return &CheckoutResponse{Orders: orders}, nil
}

// ownsShop reports whether p owns the shop vendorID.
func (s *Service) ownsShop(ctx context.Context, p auth.Principal, vendorID string) bool {
	v, err := s.vendors.GetByUserID(ctx, p.UserID)
	return err == nil && v.ID == vendorID
}

// Manages reports whether p may act for the shop on o: its owner or an admin.
func (s *Service) Manages(ctx context.Context, p auth.Principal, o *Order) bool {
	return p.IsAdmin() || s.ownsShop(ctx, p, o.VendorID)
}

// Find loads an order without any access check, for internal callers.
func (s *Service) Find(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	o.Totalize()
	return o, nil
}

// Get returns the order to its customer, its vendor or an admin.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !p.IsAdmin() && o.CustomerID != p.UserID && !s.ownsShop(ctx, p, o.VendorID) {
		return nil, apperr.Forbidden("not your order")
	}
	o.Totalize()
	return o, nil
}

func (s *Service) list(ctx context.Context, q Query) ([]Order, int, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, apperr.BadRequest("invalid status %q", q.Status)
	}
	out, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	for i := range out {
		out[i].Totalize()
	}
	return out, total, nil
}

func (s *Service) ListMine(ctx context.Context, p auth.Principal, q Query) ([]Order, int, error) {
	q.CustomerID, q.VendorID = p.UserID, ""
	return s.list(ctx, q)
}

func (s *Service) ListForVendor(ctx context.Context, p auth.Principal, q Query) ([]Order, int, error) {
	v, err := s.vendors.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, vendor.ErrNotFound) {
			return nil, 0, apperr.NotFound("you do not have a shop")
		}
		return nil, 0, apperr.Internal(err)
	}
	q.CustomerID, q.VendorID = "", v.ID
	return s.list(ctx, q)
}

func (s *Service) ListAll(ctx context.Context, q Query) ([]Order, int, error) {
	return s.list(ctx, q)
}

// UpdateStatus moves an order along its lifecycle. The owning vendor and
// admins may make any allowed move; the customer may only cancel a PENDING
// order. Repeating the current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, id string, to Status) (*Order, error) {
	if !to.Valid() {
		return nil, apperr.BadRequest("invalid status %q", to)
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	switch {
	case s.Manages(ctx, p, o):
	case o.CustomerID == p.UserID:
		if to != o.Status && (to != StatusCancelled || o.Status != StatusPending) {
			return nil, apperr.Forbidden("customers may only cancel pending orders")
		}
	default:
		return nil, apperr.Forbidden("not your order")
	}

	from := o.Status
	if from == to {
		o.Totalize()
		return o, nil
	}
	if s.opts.StrictTransitions && !CanTransition(from, to) {
		return nil, apperr.Unprocessable("cannot move order from %s to %s", from, to)
	}

	if err := s.repo.UpdateStatus(ctx, id, from, to, StockMoveFor(from, to)); err != nil {
		var se *StockError
		switch {
		case errors.Is(err, ErrStatusChanged), errors.Is(err, ErrConflict):
			return nil, apperr.Conflict("order status changed, reload and retry")
		case errors.As(err, &se):
			return nil, apperr.Conflict("insufficient stock for product %s", se.ProductID)
		case errors.Is(err, inventory.ErrStockLimit):
			return nil, apperr.Unprocessable("restocking would exceed the stock limit")
		}
		return nil, notFoundOr(err)
	}

	events.Emit(ctx, s.events, events.OrderStatusChanged, events.OrderStatusData{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		VendorID:   o.VendorID,
		From:       string(from),
		To:         string(to),
	})
	return s.Get(ctx, p, id)
}

// Contains reports whether the order has a line for productID.
func (o *Order) Contains(productID string) bool {
	return lo.ContainsBy(o.Items, func(it Item) bool { return it.ProductID != nil && *it.ProductID == productID })
}
