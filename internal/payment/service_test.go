package payment_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/events"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type fakeProcessor struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeProcessor) CreateIntent(_ context.Context, amount int64, _ string, md map[string]string) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &payment.Intent{ID: "pi_" + md["payment_id"], ClientSecret: fmt.Sprintf("secret_%d", amount)}, nil
}

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

func (r *recorder) payments(t *testing.T) []events.PaymentData {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.PaymentData
	for _, e := range r.evs {
		if e.Type != events.PaymentUpdated {
			continue
		}
		var d events.PaymentData
		require.NoError(t, e.Decode(&d))
		out = append(out, d)
	}
	return out
}

const secret = "whsec_test"

type fixture struct {
	st       *memstore.Store
	orders   *order.Service
	svc      *payment.Service
	proc     *fakeProcessor
	pub      *recorder
	customer auth.Principal
	owner    auth.Principal
	order    *order.Order
}

func newFixture(t *testing.T, method string) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{st: st, proc: &fakeProcessor{}, pub: &recorder{}}
	f.orders = order.NewService(st.Orders, st.Products, st.Vendors, f.pub, order.Options{Currency: "usd", StrictTransitions: true})
	f.svc = payment.NewService(st.Payments, f.orders, f.proc, f.pub, secret, "usd")
	f.orders.SetPaymentStarter(f.svc)

	f.customer = st.SeedUser("buyer@example.com", auth.RoleCustomer)
	f.owner = st.SeedUser("shop@example.com", auth.RoleCustomer)
	shop := st.SeedVendor(&f.owner, "Shop", vendor.StatusApproved)
	p := st.SeedProduct(shop.ID, "bowl", 4500, 5)

	res, err := f.orders.Checkout(context.Background(), f.customer, order.CheckoutRequest{
		Items:           []order.CheckoutItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: order.Address{Name: "Asha", Line1: "Thamel", City: "Kathmandu", Country: "NP"},
		PaymentMethod:   method,
	})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	f.order = res.Orders[0]
	return f
}

func (f *fixture) webhook(t *testing.T, body string) error {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return f.svc.HandleWebhook(context.Background(), []byte(body), signed.Header)
}

func TestCardCheckoutStartsIntent(t *testing.T) {
	f := newFixture(t, order.PaymentMethodCard)
	require.NotNil(t, f.order.Payment)
	assert.Equal(t, "stripe", f.order.Payment.Provider)
	assert.Equal(t, "secret_4500", f.order.Payment.ClientSecret)
	assert.Equal(t, 1, f.proc.calls)

	pays, err := f.svc.ListForOrder(context.Background(), f.customer, f.order.ID)
	require.NoError(t, err)
	require.Len(t, pays, 1)
	assert.Equal(t, "pi_"+pays[0].ID, pays[0].ExternalRef)
	assert.Equal(t, payment.StatusPending, pays[0].Status)
	assert.Equal(t, "45.00", pays[0].AmountDisplay)
}

func TestCODCheckoutSkipsProcessor(t *testing.T) {
	f := newFixture(t, order.PaymentMethodCOD)
	assert.Equal(t, 0, f.proc.calls)
	assert.Equal(t, "cod", f.order.Payment.Provider)
	assert.Empty(t, f.order.Payment.ClientSecret)
}

func TestWebhookMarksPaid(t *testing.T) {
	f := newFixture(t, order.PaymentMethodCard)
	ctx := context.Background()
	pid := f.order.Payment.PaymentID

	body := fmt.Sprintf(`{"type":"payment_intent.succeeded","data":{"object":{"object":"payment_intent","id":"pi_%s"}}}`, pid)
	require.NoError(t, f.webhook(t, body))
	require.NoError(t, f.webhook(t, body), "redelivery is idempotent")

	pays, err := f.svc.ListForOrder(ctx, f.customer, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, pays[0].Status)

	evs := f.pub.payments(t)
	require.Len(t, evs, 1)
	assert.Equal(t, f.customer.UserID, evs[0].CustomerID)
	assert.Equal(t, "PAID", evs[0].Status)

	o, err := f.orders.Get(ctx, f.customer, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status, "payment status does not move the order")
}

func TestWebhookRejectsBadInput(t *testing.T) {
	f := newFixture(t, order.PaymentMethodCard)
	ctx := context.Background()
	body := `{"type":"payment_intent.succeeded","data":{"object":{"object":"payment_intent","id":"pi_x"}}}`

	err := f.svc.HandleWebhook(ctx, []byte(body), "t=1,v1=00")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	assert.NoError(t, f.webhook(t, body), "unknown intents are acknowledged")
	assert.NoError(t, f.webhook(t, `{"type":"customer.created","data":{"object":{}}}`))
	assert.Empty(t, f.pub.payments(t))

	unconfigured := payment.NewService(f.st.Payments, f.orders, nil, nil, "", "usd")
	err = unconfigured.HandleWebhook(ctx, []byte(body), "")
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestRecordAndSetStatus(t *testing.T) {
	f := newFixture(t, order.PaymentMethodCOD)
	ctx := context.Background()
	req := payment.RecordPaymentRequest{Provider: "esewa", ExternalRef: "TXN-1", AmountCents: lo.ToPtr[int64](4500), Status: payment.StatusPaid}

	_, err := f.svc.Record(ctx, f.customer, f.order.ID, req)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err), "customers cannot mark their own order paid")

	stranger := f.st.SeedUser("x@example.com", auth.RoleCustomer)
	_, err = f.svc.Record(ctx, stranger, f.order.ID, req)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))

	pay, err := f.svc.Record(ctx, f.owner, f.order.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "usd", pay.Currency)
	assert.Equal(t, payment.StatusPaid, pay.Status)

	pay, err = f.svc.SetStatus(ctx, pay.ID, payment.StatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusRefunded, pay.Status)

	_, err = f.svc.SetStatus(ctx, "missing", payment.StatusPaid)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	pays, err := f.svc.ListForOrder(ctx, f.owner, f.order.ID)
	require.NoError(t, err)
	assert.Len(t, pays, 2)
	assert.Len(t, f.pub.payments(t), 2)
}

func TestRecordLimits(t *testing.T) {
	f := newFixture(t, order.PaymentMethodCOD)
	ctx := context.Background()
	admin := f.st.SeedUser("admin@example.com", auth.RoleAdmin)
	req := func(provider string, amount int64) payment.RecordPaymentRequest {
		return payment.RecordPaymentRequest{Provider: provider, AmountCents: lo.ToPtr(amount), Status: payment.StatusPaid}
	}

	_, err := f.svc.Record(ctx, f.owner, f.order.ID, req("cod", f.order.TotalCents+1))
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err), "over the order total")

	_, err = f.svc.Record(ctx, admin, f.order.ID, req("stripe", f.order.TotalCents))
	assert.Equal(t, http.StatusUnprocessableEntity, apperr.StatusOf(err), "card payments come from the webhook")

	pay, err := f.svc.Record(ctx, admin, f.order.ID, req("cod", f.order.TotalCents))
	require.NoError(t, err)
	assert.Equal(t, f.order.TotalCents, pay.AmountCents)
}
