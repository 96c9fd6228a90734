package order

import (
	"time"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/money"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// MaxLineQuantity bounds one product's quantity in a single checkout.
const MaxLineQuantity = 10_000

const (
	PaymentMethodCard = "card"
	PaymentMethodCOD  = "cod"
)

// ProviderFor maps a checkout payment method to the payment provider name.
func ProviderFor(method string) string {
	if method == PaymentMethodCard {
		return "stripe"
	}
	return method
}

// Address is stored as jsonb on the order.
type Address struct {
	Name       string `json:"name"        binding:"required,max=120" example:"Asha Gurung"`
	Line1      string `json:"line1"       binding:"required,max=200" example:"Thamel Marg 12"`
	Line2      string `json:"line2"       binding:"max=200"`
	City       string `json:"city"        binding:"required,max=100" example:"Kathmandu"`
	Region     string `json:"region"      binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"           example:"44600"`
	Country    string `json:"country"     binding:"required,len=2"   example:"NP"`
	Phone      string `json:"phone"       binding:"max=32"`
}

type Order struct {
	ID              string  `json:"id"`
	CustomerID      string  `json:"customer_id"`
	VendorID        string  `json:"vendor_id"`
	Status          Status  `json:"status"`
	SubtotalCents   int64   `json:"subtotal_cents"`
	ShippingCents   int64   `json:"shipping_cents"`
	TaxCents        int64   `json:"tax_cents"`
	TotalCents      int64   `json:"total_cents"`
	TotalDisplay    string  `json:"total_display"`
	ShippingAddress Address `json:"shipping_address"`
	PaymentMethod   string  `json:"payment_method"`
	Items           []Item  `json:"items"`
	// Payment is only set on checkout responses.
	Payment   *PaymentIntent `json:"payment,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Totalize derives the total from its parts, matching the generated column.
func (o *Order) Totalize() {
	o.TotalCents = o.SubtotalCents + o.ShippingCents + o.TaxCents
	o.TotalDisplay = money.Format(o.TotalCents)
}

// Item is a frozen snapshot of a product at checkout time. ProductID becomes
// nil once the product is deleted.
type Item struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"order_id"`
	ProductID      *string `json:"product_id"`
	ProductName    string  `json:"product_name"`
	SKU            string  `json:"sku,omitempty"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	Quantity       int     `json:"quantity"`
	LineTotalCents int64   `json:"line_total_cents"`
}

// PendingPayment is the payment row opened for each order at checkout.
type PendingPayment struct {
	ID          string
	OrderID     string
	Provider    string
	AmountCents int64
	Currency    string
}

// PaymentIntent is what a client needs to confirm a card payment.
type PaymentIntent struct {
	PaymentID    string `json:"payment_id"`
	Provider     string `json:"provider"`
	ClientSecret string `json:"client_secret,omitempty"`
}

type Query struct {
	CustomerID string
	VendorID   string
	Status     Status
	Limit      int
	Offset     int
}

// CheckoutItem is one cart line.
// swagger:model CheckoutItem
type CheckoutItem struct {
	ProductID string `json:"product_id" binding:"required,uuid" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"   binding:"required,min=1,max=10000" example:"2"`
}

// CheckoutRequest payload of checkout.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items"            binding:"required,min=1,dive"`
	ShippingAddress Address        `json:"shipping_address" binding:"required"`
	PaymentMethod   string         `json:"payment_method"   binding:"required,oneof=card cod" example:"card"`
}

// CheckoutResponse lists one order per vendor in the cart.
// swagger:model CheckoutResponse
type CheckoutResponse struct {
	Orders []*Order `json:"orders"`
}

// UpdateStatusRequest payload of status change.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required" example:"PROCESSING"`
}
