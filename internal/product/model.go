package product

import (
	"math"
	"time"

	"github.com/samber/mo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/money"
)

// MaxStock matches the INTEGER inventory column.
const MaxStock = math.MaxInt32

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive:
		return true
	}
	return false
}

type Product struct {
	ID          string  `json:"id"`
	VendorID    string  `json:"vendor_id"`
	CategoryID  *string `json:"category_id,omitempty"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	// Prices are integer cents to avoid rounding drift.
	PriceCents int64     `json:"price_cents"`
	Status     Status    `json:"status"`
	ImageURL   string    `json:"image_url,omitempty"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PriceDisplay renders the price as a decimal string.
func (p Product) PriceDisplay() string { return money.Format(p.PriceCents) }

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Query struct {
	Q          string
	VendorID   string
	CategoryID string
	Status     Status
	MinPrice   *int64
	MaxPrice   *int64
	Limit      int
	Offset     int
}

type Patch struct {
	Name        mo.Option[string]
	Description mo.Option[string]
	SKU         mo.Option[string]
	PriceCents  mo.Option[int64]
	Status      mo.Option[Status]
	ImageURL    mo.Option[string]
	CategoryID  mo.Option[string]
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name        string  `json:"name"        binding:"required,max=200"                   example:"Felt Wool Slippers"`
	Description string  `json:"description" binding:"max=5000"                           example:"Hand-felted in Kathmandu"`
	SKU         string  `json:"sku"         binding:"max=64"                             example:"FWS-001"`
	PriceCents  *int64  `json:"price_cents" binding:"required,min=0,max=10000000000"     example:"2599"`
	Status      Status  `json:"status"      binding:"omitempty,oneof=DRAFT ACTIVE INACTIVE" example:"ACTIVE"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	ImageURL    string  `json:"image_url"   binding:"omitempty,url"`
	Stock       int     `json:"stock"       binding:"min=0,max=2147483647"               example:"10"`
}

// UpdateProductRequest payload of partial update.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	SKU         *string `json:"sku"         binding:"omitempty,max=64"`
	PriceCents  *int64  `json:"price_cents" binding:"omitempty,min=0,max=10000000000"`
	Status      *Status `json:"status"      binding:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	ImageURL    *string `json:"image_url"   binding:"omitempty,url"`
}

// CreateCategoryRequest payload of category creation.
// swagger:model CreateCategoryRequest
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=80" example:"Textiles"`
}
