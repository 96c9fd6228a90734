package review

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
)

type Service struct {
	repo     Repository
	orders   *order.Service
	products *product.Service
}

func NewService(repo Repository, orders *order.Service, products *product.Service) *Service {
	return &Service{repo: repo, orders: orders, products: products}
}

// Create accepts a review only for a product the caller received in a
// delivered order.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateReviewRequest) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.BadRequest("rating must be between 1 and 5")
	}
	o, err := s.orders.Find(ctx, in.OrderID)
	if err != nil {
		if apperr.StatusOf(err) == http.StatusNotFound {
			return nil, apperr.Unprocessable("order not found")
		}
		return nil, err
	}
	switch {
	case o.CustomerID != p.UserID:
		return nil, apperr.Unprocessable("you can only review your own orders")
	case o.Status != order.StatusDelivered:
		return nil, apperr.Unprocessable("order has not been delivered")
	case !o.Contains(in.ProductID):
		return nil, apperr.Unprocessable("product is not part of this order")
	}
	r := &Review{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		ProductID:  in.ProductID,
		CustomerID: p.UserID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, apperr.Conflict("you already reviewed this product for this order")
		}
		return nil, apperr.Internal(err)
	}
	return r, nil
}

// ListForProduct returns a page of reviews and the rating summary across all
// of them.
func (s *Service) ListForProduct(ctx context.Context, viewer *auth.Principal, productID string, limit, offset int) ([]Review, Summary, error) {
	if _, err := s.products.Get(ctx, viewer, productID); err != nil {
		return nil, Summary{}, err
	}
	out, sum, err := s.repo.ListForProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, Summary{}, apperr.Internal(err)
	}
	sum.Average = math.Round(sum.Average*100) / 100
	return out, sum, nil
}

// Reply lets the shop that sells the product answer a review.
func (s *Service) Reply(ctx context.Context, p auth.Principal, id, reply string) (*Review, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, apperr.BadRequest("reply is required")
	}
	r, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.Managed(ctx, p, r.ProductID); err != nil {
		return nil, err
	}
	if err := s.repo.SetReply(ctx, id, reply); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("review not found")
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*Review, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("review not found")
		}
		return nil, apperr.Internal(err)
	}
	return r, nil
}
