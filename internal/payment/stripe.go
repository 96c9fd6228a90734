package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/tidwall/gjson"
)

// Intent is a processor-side payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// Processor creates card payment intents.
type Processor interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
}

// Stripe creates payment intents through the official client.
type Stripe struct {
	key string
	api *client.API
}

func NewStripe(secretKey string) *Stripe {
	return newStripe(secretKey, "")
}

// WithBaseURL points the client at another host, used by tests.
func (s *Stripe) WithBaseURL(u string) *Stripe {
	return newStripe(s.key, strings.TrimRight(u, "/"))
}

func newStripe(key, baseURL string) *Stripe {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 10 * time.Second},
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if baseURL != "" {
		cfg.URL = stripe.String(baseURL)
		cfg.MaxNetworkRetries = stripe.Int64(0)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return &Stripe{key: key, api: client.New(key, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})}
}

func (s *Stripe) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if id := metadata["payment_id"]; id != "" {
		params.SetIdempotencyKey(id)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			return nil, fmt.Errorf("stripe: %d: %s", se.HTTPStatusCode, se.Msg)
		}
		return nil, fmt.Errorf("stripe: %w", err)
	}
	if pi.ID == "" {
		return nil, errors.New("stripe: response without intent id")
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

var (
	ErrBadSignature   = errors.New("invalid webhook signature")
	ErrStaleSignature = errors.New("webhook timestamp outside tolerance")
)

// SignatureTolerance bounds the age of a signed webhook.
const SignatureTolerance = 5 * time.Minute

// webhookEvent is the part of a processor event we act on.
type webhookEvent struct {
	Type      string
	IntentID  string
	PaymentID string
}

// constructEvent verifies the Stripe-Signature header and decodes the event.
// The account API version is not pinned to the client's, so mismatches are
// accepted.
func constructEvent(payload []byte, header, secret string) (webhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                SignatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	switch {
	case errors.Is(err, webhook.ErrTooOld):
		return webhookEvent{}, ErrStaleSignature
	case errors.Is(err, webhook.ErrNotSigned), errors.Is(err, webhook.ErrInvalidHeader), errors.Is(err, webhook.ErrNoValidSignature):
		return webhookEvent{}, ErrBadSignature
	case err != nil:
		return webhookEvent{}, errors.New("malformed webhook payload")
	}
	var object []byte
	if ev.Data != nil {
		object = ev.Data.Raw
	}
	return parseObject(string(ev.Type), object), nil
}

// parseObject reads the intent and payment ids from the event's data.object.
// Charges carry the intent in payment_intent.
func parseObject(eventType string, object []byte) webhookEvent {
	r := gjson.GetManyBytes(object, "object", "id", "payment_intent", "metadata.payment_id")
	ev := webhookEvent{Type: eventType, PaymentID: r[3].String()}
	if r[0].String() == "payment_intent" {
		ev.IntentID = r[1].String()
	} else {
		ev.IntentID = r[2].String()
	}
	return ev
}

// statusFor maps processor event types to payment statuses.
var statusFor = map[string]Status{
	"payment_intent.succeeded":      StatusPaid,
	"payment_intent.payment_failed": StatusFailed,
	"charge.refunded":               StatusRefunded,
}
