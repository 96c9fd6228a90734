package order

import (
	"context"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

// Catalog is the read side of the product repository used at checkout.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Vendors resolves shops by id and by owner.
type Vendors interface {
	GetByID(ctx context.Context, id string) (*vendor.Vendor, error)
	GetByUserID(ctx context.Context, userID string) (*vendor.Vendor, error)
}

// PaymentStarter opens a processor intent for a freshly created order. It
// runs after the checkout transaction has committed.
type PaymentStarter interface {
	StartIntent(ctx context.Context, paymentID string, o *Order) (*PaymentIntent, error)
}
