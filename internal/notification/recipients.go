package notification

import (
	"context"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type roleLister interface {
	IDsByRole(ctx context.Context, role auth.Role) ([]string, error)
}

type shopFinder interface {
	GetByID(ctx context.Context, id string) (*vendor.Vendor, error)
}

// Lookup resolves recipients from the user and vendor services.
type Lookup struct {
	users   roleLister
	vendors shopFinder
}

func NewLookup(users roleLister, vendors shopFinder) *Lookup {
	return &Lookup{users: users, vendors: vendors}
}

func (l *Lookup) IDsByRole(ctx context.Context, role auth.Role) ([]string, error) {
	return l.users.IDsByRole(ctx, role)
}

func (l *Lookup) VendorOwner(ctx context.Context, vendorID string) (string, error) {
	v, err := l.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return "", err
	}
	return v.UserID, nil
}
