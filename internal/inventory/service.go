package inventory

import (
	"context"
	"errors"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
)

type Service struct {
	repo     Repository
	products *product.Service
}

func NewService(repo Repository, products *product.Service) *Service {
	return &Service{repo: repo, products: products}
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("inventory not found")
	case errors.Is(err, ErrInsufficientStock):
		return apperr.Conflict("insufficient stock")
	case errors.Is(err, ErrStockLimit):
		return apperr.Unprocessable("stock must not exceed %d", product.MaxStock)
	}
	return apperr.Internal(err)
}

// Get is public for ACTIVE products, like the product itself.
func (s *Service) Get(ctx context.Context, viewer *auth.Principal, productID string) (*Level, error) {
	if _, err := s.products.Get(ctx, viewer, productID); err != nil {
		return nil, err
	}
	l, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

func (s *Service) Set(ctx context.Context, p auth.Principal, productID string, qty int) (*Level, error) {
	if qty < 0 || qty > product.MaxStock {
		return nil, apperr.BadRequest("quantity must be between 0 and %d", product.MaxStock)
	}
	if _, err := s.products.Managed(ctx, p, productID); err != nil {
		return nil, err
	}
	l, err := s.repo.Set(ctx, productID, qty)
	if err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

func (s *Service) Adjust(ctx context.Context, p auth.Principal, productID string, delta int) (*Level, error) {
	if delta == 0 {
		return nil, apperr.BadRequest("delta must not be zero")
	}
	if delta > product.MaxStock || delta < -product.MaxStock {
		return nil, apperr.BadRequest("delta must be within %d of zero", product.MaxStock)
	}
	if _, err := s.products.Managed(ctx, p, productID); err != nil {
		return nil, err
	}
	l, err := s.repo.Adjust(ctx, productID, delta)
	if err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}
