package payment

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

type Payment struct {
	ID            string `json:"id"`
	OrderID       string `json:"order_id"`
	Provider      string `json:"provider"`
	ExternalRef   string `json:"external_ref,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
	AmountDisplay string `json:"amount_display"`
	Currency      string `json:"currency"`
	Status        Status `json:"status"`
	// ClientSecret is handed out once at checkout and never serialised again.
	ClientSecret string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecordPaymentRequest payload of manual payment recording.
// swagger:model RecordPaymentRequest
type RecordPaymentRequest struct {
	Provider    string `json:"provider"     binding:"required,max=40"                         example:"esewa"`
	ExternalRef string `json:"external_ref" binding:"max=200"                                 example:"TXN-8841"`
	AmountCents *int64 `json:"amount_cents" binding:"required,min=0"                          example:"5198"`
	Status      Status `json:"status"       binding:"required,oneof=PENDING PAID FAILED REFUNDED" example:"PAID"`
}

// SetPaymentStatusRequest payload of admin status change.
// swagger:model SetPaymentStatusRequest
type SetPaymentStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=PENDING PAID FAILED REFUNDED" example:"REFUNDED"`
}
