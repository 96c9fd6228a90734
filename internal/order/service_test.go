package order_test

import (
	"context"
	"math"
	"net/http"
	"sync"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/events"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) count(t events.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.evs {
		if e.Type == t {
			n++
		}
	}
	return n
}

type fixture struct {
	st       *memstore.Store
	svc      *order.Service
	pub      *recorder
	customer auth.Principal
	owner    auth.Principal
	shop     *vendor.Vendor
	felt     *product.Product
}

func newFixture(t *testing.T, opts order.Options) *fixture {
	t.Helper()
	st := memstore.New()
	pub := &recorder{}
	f := &fixture{st: st, pub: pub, svc: order.NewService(st.Orders, st.Products, st.Vendors, pub, opts)}
	f.customer = st.SeedUser("buyer@example.com", auth.RoleCustomer)
	f.owner = st.SeedUser("shop-a@example.com", auth.RoleCustomer)
	f.shop = st.SeedVendor(&f.owner, "Shop A", vendor.StatusApproved)
	f.felt = st.SeedProduct(f.shop.ID, "Felt Slippers", 2599, 10)
	return f
}

var address = order.Address{Name: "Asha", Line1: "Thamel 12", City: "Kathmandu", Country: "NP"}

func cart(items ...order.CheckoutItem) order.CheckoutRequest {
	return order.CheckoutRequest{Items: items, ShippingAddress: address, PaymentMethod: order.PaymentMethodCOD}
}

func stock(t *testing.T, st *memstore.Store, productID string) int {
	t.Helper()
	l, err := st.Inventory.Get(context.Background(), productID)
	require.NoError(t, err)
	return l.Quantity
}

func TestCheckoutSnapshotsLineItems(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: true})
	ctx := context.Background()

	res, err := f.svc.Checkout(ctx, f.customer, cart(order.CheckoutItem{ProductID: f.felt.ID, Quantity: 2}))
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)

	o := res.Orders[0]
	assert.Equal(t, f.shop.ID, o.VendorID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.EqualValues(t, 5198, o.SubtotalCents)
	assert.EqualValues(t, 5198, o.TotalCents)
	assert.Equal(t, "51.98", o.TotalDisplay)
	require.Len(t, o.Items, 1)
	assert.EqualValues(t, 2599, o.Items[0].UnitPriceCents)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, 8, stock(t, f.st, f.felt.ID))
	assert.Equal(t, 1, f.pub.count(events.OrderCreated))

	// later price changes do not reach the order
	require.NoError(t, f.st.Products.Update(ctx, f.felt.ID, product.Patch{
		PriceCents: mo.Some[int64](9999),
		Name:       mo.Some("Renamed"),
	}))
	got, err := f.svc.Get(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2599, got.Items[0].UnitPriceCents)
	assert.Equal(t, "Felt Slippers", got.Items[0].ProductName)
	assert.EqualValues(t, 5198, got.SubtotalCents)

	pays, err := f.st.Payments.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, pays, 1)
	assert.EqualValues(t, 5198, pays[0].AmountCents)
	assert.Equal(t, "cod", pays[0].Provider)
}

func TestCheckoutSplitsByVendorAndMergesLines(t *testing.T) {
	f := newFixture(t, order.Options{ShippingFlatCents: 500, TaxRateBPS: 1300})
	ownerB := f.st.SeedUser("shop-b@example.com", auth.RoleCustomer)
	shopB := f.st.SeedVendor(&ownerB, "Shop B", vendor.StatusApproved)
	bowl := f.st.SeedProduct(shopB.ID, "Singing Bowl", 4000, 3)

	res, err := f.svc.Checkout(context.Background(), f.customer, cart(
		order.CheckoutItem{ProductID: f.felt.ID, Quantity: 1},
		order.CheckoutItem{ProductID: bowl.ID, Quantity: 2},
		order.CheckoutItem{ProductID: f.felt.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)

	a, b := res.Orders[0], res.Orders[1]
	assert.Equal(t, f.shop.ID, a.VendorID)
	assert.Equal(t, shopB.ID, b.VendorID)
	require.Len(t, a.Items, 1)
	assert.Equal(t, 2, a.Items[0].Quantity)

	// 5198 * 13% = 675.74 -> 676
	assert.EqualValues(t, 5198, a.SubtotalCents)
	assert.EqualValues(t, 500, a.ShippingCents)
	assert.EqualValues(t, 676, a.TaxCents)
	assert.Equal(t, a.SubtotalCents+a.ShippingCents+a.TaxCents, a.TotalCents)
	// 8000 * 13% = 1040
	assert.EqualValues(t, 1040, b.TaxCents)
	assert.EqualValues(t, 9540, b.TotalCents)
	assert.Equal(t, 1, stock(t, f.st, bowl.ID))
}

func TestCheckoutInsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t, order.Options{})
	ownerB := f.st.SeedUser("shop-b@example.com", auth.RoleCustomer)
	shopB := f.st.SeedVendor(&ownerB, "Shop B", vendor.StatusApproved)
	scarce := f.st.SeedProduct(shopB.ID, "Thangka", 12000, 1)

	_, err := f.svc.Checkout(context.Background(), f.customer, cart(
		order.CheckoutItem{ProductID: f.felt.ID, Quantity: 2},
		order.CheckoutItem{ProductID: scarce.ID, Quantity: 2},
	))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))

	assert.Equal(t, 10, stock(t, f.st, f.felt.ID))
	assert.Equal(t, 1, stock(t, f.st, scarce.ID))
	_, total, err := f.svc.ListMine(context.Background(), f.customer, order.Query{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, f.pub.count(events.OrderCreated))
}

func TestCheckoutRejectsUnavailableProducts(t *testing.T) {
	f := newFixture(t, order.Options{})
	ctx := context.Background()

	draft := f.st.SeedProduct(f.shop.ID, "Draft", 100, 5)
	require.NoError(t, f.st.Products.Update(ctx, draft.ID, product.Patch{Status: mo.Some(product.StatusDraft)}))
	_, err := f.svc.Checkout(ctx, f.customer, cart(order.CheckoutItem{ProductID: draft.ID, Quantity: 1}))
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))

	_, err = f.svc.Checkout(ctx, f.customer, cart(order.CheckoutItem{ProductID: "00000000-0000-0000-0000-000000000000", Quantity: 1}))
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	_, err = f.svc.Checkout(ctx, f.customer, cart(order.CheckoutItem{ProductID: f.felt.ID, Quantity: 0}))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	require.NoError(t, f.st.Vendors.SetStatus(ctx, f.shop.ID, vendor.StatusSuspended, auth.RoleCustomer))
	_, err = f.svc.Checkout(ctx, f.customer, cart(order.CheckoutItem{ProductID: f.felt.ID, Quantity: 1}))
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
}

func checkoutOne(t *testing.T, f *fixture, qty int) *order.Order {
	t.Helper()
	res, err := f.svc.Checkout(context.Background(), f.customer, cart(order.CheckoutItem{ProductID: f.felt.ID, Quantity: qty}))
	require.NoError(t, err)
	return res.Orders[0]
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: true})
	o := checkoutOne(t, f, 1)
	ctx := context.Background()

	first, err := f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusProcessing)
	require.NoError(t, err)
	second, err := f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusProcessing)
	require.NoError(t, err)

	assert.Equal(t, order.StatusProcessing, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, 1, f.pub.count(events.OrderStatusChanged))
}

func TestUpdateStatusStrictTable(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: true})
	o := checkoutOne(t, f, 1)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusDelivered)
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))

	for _, s := range []order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered} {
		_, err := f.svc.UpdateStatus(ctx, f.owner, o.ID, s)
		require.NoError(t, err, s)
	}
	_, err = f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusCancelled)
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err), "delivered is terminal")

	_, err = f.svc.UpdateStatus(ctx, f.owner, o.ID, order.Status("LOST"))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestUpdateStatusPermissive(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: false})
	o := checkoutOne(t, f, 1)

	got, err := f.svc.UpdateStatus(context.Background(), f.owner, o.ID, order.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, got.Status)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: true})
	o := checkoutOne(t, f, 3)
	require.Equal(t, 7, stock(t, f.st, f.felt.ID))

	got, err := f.svc.UpdateStatus(context.Background(), f.customer, o.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Equal(t, 10, stock(t, f.st, f.felt.ID))
}

func TestUpdateStatusAuthorization(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: true})
	o := checkoutOne(t, f, 1)
	ctx := context.Background()
	stranger := f.st.SeedUser("stranger@example.com", auth.RoleCustomer)
	admin := f.st.SeedUser("admin@example.com", auth.RoleAdmin)

	_, err := f.svc.UpdateStatus(ctx, f.customer, o.ID, order.StatusProcessing)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err), "customers may only cancel")

	_, err = f.svc.UpdateStatus(ctx, stranger, o.ID, order.StatusCancelled)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))

	_, err = f.svc.UpdateStatus(ctx, admin, "00000000-0000-0000-0000-000000000000", order.StatusCancelled)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	_, err = f.svc.UpdateStatus(ctx, admin, o.ID, order.StatusProcessing)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.customer, o.ID, order.StatusCancelled)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err), "only pending orders can be cancelled by the customer")
}

func TestGetAndListVisibility(t *testing.T) {
	f := newFixture(t, order.Options{})
	o := checkoutOne(t, f, 1)
	ctx := context.Background()
	stranger := f.st.SeedUser("stranger@example.com", auth.RoleCustomer)

	_, err := f.svc.Get(ctx, f.owner, o.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, stranger, o.ID)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))

	mine, total, err := f.svc.ListForVendor(ctx, f.owner, order.Query{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, o.ID, mine[0].ID)

	_, _, err = f.svc.ListForVendor(ctx, stranger, order.Query{Limit: 20})
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	_, _, err = f.svc.ListAll(ctx, order.Query{Status: "NOPE"})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, order.CanTransition(order.StatusPending, order.StatusProcessing))
	assert.True(t, order.CanTransition(order.StatusProcessing, order.StatusCancelled))
	assert.False(t, order.CanTransition(order.StatusShipped, order.StatusCancelled))
	assert.False(t, order.CanTransition(order.StatusCancelled, order.StatusPending))

	assert.Equal(t, order.StockRelease, order.StockMoveFor(order.StatusProcessing, order.StatusCancelled))
	assert.Equal(t, order.StockKeep, order.StockMoveFor(order.StatusDelivered, order.StatusCancelled))
	assert.Equal(t, order.StockReserve, order.StockMoveFor(order.StatusCancelled, order.StatusPending))
	assert.Equal(t, order.StockKeep, order.StockMoveFor(order.StatusCancelled, order.StatusCancelled))
}

func TestCancelCyclesKeepStockBalanced(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: false})
	o := checkoutOne(t, f, 1)
	ctx := context.Background()
	require.Equal(t, 9, stock(t, f.st, f.felt.ID))

	for i := 0; i < 3; i++ {
		_, err := f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, 10, stock(t, f.st, f.felt.ID), "cycle %d", i)

		_, err = f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, 9, stock(t, f.st, f.felt.ID), "cycle %d", i)
	}
}

func TestReopenNeedsStock(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: false})
	o := checkoutOne(t, f, 4)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusCancelled)
	require.NoError(t, err)
	checkoutOne(t, f, 8)
	require.Equal(t, 2, stock(t, f.st, f.felt.ID))

	_, err = f.svc.UpdateStatus(ctx, f.owner, o.ID, order.StatusProcessing)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))

	got, err := f.svc.Get(ctx, f.owner, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Equal(t, 2, stock(t, f.st, f.felt.ID))
}

func TestCancelAfterShippingKeepsStock(t *testing.T) {
	f := newFixture(t, order.Options{StrictTransitions: false})
	o := checkoutOne(t, f, 2)
	ctx := context.Background()

	for _, s := range []order.Status{order.StatusShipped, order.StatusDelivered, order.StatusCancelled} {
		_, err := f.svc.UpdateStatus(ctx, f.owner, o.ID, s)
		require.NoError(t, err, s)
	}
	assert.Equal(t, 8, stock(t, f.st, f.felt.ID))
}

func TestCheckoutRejectsOverflowingTotals(t *testing.T) {
	f := newFixture(t, order.Options{})
	ctx := context.Background()
	huge := f.st.SeedProduct(f.shop.ID, "Gold Leaf Thangka", math.MaxInt64/2+1, 5)

	_, err := f.svc.Checkout(ctx, f.customer, cart(order.CheckoutItem{ProductID: huge.ID, Quantity: 2}))
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))

	pricey := f.st.SeedProduct(f.shop.ID, "Temple Bell", math.MaxInt64-10, 5)
	_, err = f.svc.Checkout(ctx, f.customer, cart(
		order.CheckoutItem{ProductID: pricey.ID, Quantity: 1},
		order.CheckoutItem{ProductID: f.felt.ID, Quantity: 1},
	))
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))

	assert.Equal(t, 5, stock(t, f.st, huge.ID))
	assert.Equal(t, 10, stock(t, f.st, f.felt.ID))
	_, total, err := f.svc.ListMine(ctx, f.customer, order.Query{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCheckoutCapsLineQuantity(t *testing.T) {
	f := newFixture(t, order.Options{})
	_, err := f.svc.Checkout(context.Background(), f.customer, cart(
		order.CheckoutItem{ProductID: f.felt.ID, Quantity: order.MaxLineQuantity},
		order.CheckoutItem{ProductID: f.felt.ID, Quantity: 1},
	))
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err))
}

type conflictingRepo struct{ order.Repository }

func (conflictingRepo) CreateCheckout(context.Context, []*order.Order, []order.PendingPayment) error {
	return order.ErrConflict
}

func TestCheckoutWriteConflictIsRetryable(t *testing.T) {
	f := newFixture(t, order.Options{})
	svc := order.NewService(conflictingRepo{f.st.Orders}, f.st.Products, f.st.Vendors, f.pub, order.Options{})

	_, err := svc.Checkout(context.Background(), f.customer, cart(order.CheckoutItem{ProductID: f.felt.ID, Quantity: 1}))
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
}
