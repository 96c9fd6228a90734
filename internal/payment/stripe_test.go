package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestStripeCreateIntent(t *testing.T) {
	var form url.Values
	var idem, authz string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		authz = r.Header.Get("Authorization")
		idem = r.Header.Get("Idempotency-Key")
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc"}`)
	}))
	defer srv.Close()

	in, err := NewStripe("sk_test").WithBaseURL(srv.URL).CreateIntent(context.Background(), 5198, "USD",
		map[string]string{"payment_id": "pay-1", "order_id": "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", in.ID)
	assert.Equal(t, "pi_123_secret_abc", in.ClientSecret)
	assert.Equal(t, "Bearer sk_test", authz)
	assert.Equal(t, "pay-1", idem)
	assert.Equal(t, "5198", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
	assert.Equal(t, "ord-1", form.Get("metadata[order_id]"))
}

func TestStripeCreateIntentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"type":"card_error","message":"Your card was declined."}}`)
	}))
	defer srv.Close()

	_, err := NewStripe("sk_test").WithBaseURL(srv.URL).CreateIntent(context.Background(), 100, "usd", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func signed(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
		Scheme:    "v1",
	}).Header
}

func TestConstructEvent(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded",` +
		`"data":{"object":{"object":"payment_intent","id":"pi_1","metadata":{"payment_id":"pay-1"}}}}`)
	now := time.Now()

	ev, err := constructEvent(payload, signed(payload, "whsec", now), "whsec")
	require.NoError(t, err)
	assert.Equal(t, webhookEvent{Type: "payment_intent.succeeded", IntentID: "pi_1", PaymentID: "pay-1"}, ev)

	_, err = constructEvent(payload, signed(payload, "other", now), "whsec")
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = constructEvent([]byte(`{}`), signed(payload, "whsec", now), "whsec")
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = constructEvent(payload, signed(payload, "whsec", now.Add(-SignatureTolerance-time.Minute)), "whsec")
	assert.ErrorIs(t, err, ErrStaleSignature)

	_, err = constructEvent(payload, "garbage", "whsec")
	assert.ErrorIs(t, err, ErrBadSignature)

	bad := []byte(`{not json`)
	_, err = constructEvent(bad, signed(bad, "whsec", now), "whsec")
	assert.Error(t, err)
}

func TestParseObject(t *testing.T) {
	ev := parseObject("charge.refunded", []byte(`{"object":"charge","id":"ch_1","payment_intent":"pi_1"}`))
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, "charge.refunded", ev.Type)

	ev = parseObject("customer.created", nil)
	assert.Empty(t, ev.IntentID)
}
