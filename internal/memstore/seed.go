package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

// SeedUser inserts an active user with every capability enabled and returns
// its principal. Password hashes are left empty, so the user cannot log in.
func (s *Store) SeedUser(email string, role auth.Role) auth.Principal {
	u := &user.User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  email,
		Role:      role,
		CanChat:   true,
		CanOrder:  true,
		CanReview: true,
	}
	if err := s.Users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return auth.Principal{UserID: u.ID, Role: role}
}

// SeedVendor gives owner a shop with the given status and applies the
// matching owner role, updating owner in place.
func (s *Store) SeedVendor(owner *auth.Principal, name string, status vendor.Status) *vendor.Vendor {
	v := &vendor.Vendor{ID: uuid.NewString(), UserID: owner.UserID, ShopName: name, Slug: uuid.NewString(), Status: status}
	ctx := context.Background()
	if err := s.Vendors.Create(ctx, v); err != nil {
		panic(err)
	}
	if err := s.Vendors.SetStatus(ctx, v.ID, status, vendor.OwnerRole(status)); err != nil {
		panic(err)
	}
	if owner.Role != auth.RoleAdmin {
		owner.Role = vendor.OwnerRole(status)
	}
	return v
}

// SeedProduct lists an ACTIVE product with stock.
func (s *Store) SeedProduct(vendorID, name string, priceCents int64, stock int) *product.Product {
	p := &product.Product{
		ID:         uuid.NewString(),
		VendorID:   vendorID,
		Name:       name,
		Slug:       uuid.NewString(),
		SKU:        "SKU-" + name,
		PriceCents: priceCents,
		Status:     product.StatusActive,
		Stock:      stock,
	}
	if err := s.Products.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}
