package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/money"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/slug"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type Service struct {
	repo    Repository
	vendors *vendor.Service
}

func NewService(repo Repository, vendors *vendor.Service) *Service {
	return &Service{repo: repo, vendors: vendors}
}

func notFoundOr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("product not found")
	}
	return apperr.Internal(err)
}

func (s *Service) checkCategory(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	if _, err := s.repo.GetCategory(ctx, *id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return apperr.BadRequest("unknown category")
		}
		return apperr.Internal(err)
	}
	return nil
}

// Create lists a product for the caller's approved shop.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateProductRequest) (*Product, error) {
	if in.PriceCents == nil || *in.PriceCents < 0 {
		return nil, apperr.BadRequest("price_cents must be a non-negative integer")
	}
	if *in.PriceCents > money.MaxPriceCents {
		return nil, apperr.BadRequest("price_cents must not exceed %d", money.MaxPriceCents)
	}
	if in.Stock < 0 || in.Stock > MaxStock {
		return nil, apperr.BadRequest("stock must be between 0 and %d", MaxStock)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, apperr.BadRequest("invalid status %q", status)
	}
	v, err := s.vendors.ApprovedFor(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	prod := &Product{
		ID:          uuid.NewString(),
		VendorID:    v.ID,
		CategoryID:  in.CategoryID,
		Name:        name,
		Slug:        slug.Unique(name),
		Description: strings.TrimSpace(in.Description),
		SKU:         strings.TrimSpace(in.SKU),
		PriceCents:  *in.PriceCents,
		Status:      status,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
	}
	if err := s.repo.Create(ctx, prod); err != nil {
		return nil, apperr.Internal(err)
	}
	return prod, nil
}

// canManage reports whether the caller owns prod's shop or is an admin.
func (s *Service) canManage(ctx context.Context, p *auth.Principal, prod *Product) bool {
	if p == nil || p.UserID == "" {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	v, err := s.vendors.Mine(ctx, *p)
	return err == nil && v.ID == prod.VendorID
}

// Get returns an ACTIVE product to anyone. Other statuses are reported as
// missing unless the viewer manages the product.
func (s *Service) Get(ctx context.Context, viewer *auth.Principal, id string) (*Product, error) {
	prod, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if prod.Status != StatusActive && !s.canManage(ctx, viewer, prod) {
		return nil, apperr.NotFound("product not found")
	}
	return prod, nil
}

// Managed loads a product the caller may modify.
func (s *Service) Managed(ctx context.Context, p auth.Principal, id string) (*Product, error) {
	prod, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !s.canManage(ctx, &p, prod) {
		return nil, apperr.Forbidden("not your product")
	}
	return prod, nil
}

func (s *Service) list(ctx context.Context, q Query) ([]Product, int, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, 0, apperr.BadRequest("min_price is greater than max_price")
	}
	out, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return out, total, nil
}

// ListPublic lists ACTIVE products only, whatever status the query asks for.
func (s *Service) ListPublic(ctx context.Context, q Query) ([]Product, int, error) {
	q.Status = StatusActive
	return s.list(ctx, q)
}

// ListMine lists every product of the caller's shop.
func (s *Service) ListMine(ctx context.Context, p auth.Principal, q Query) ([]Product, int, error) {
	v, err := s.vendors.Mine(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, apperr.BadRequest("invalid status %q", q.Status)
	}
	q.VendorID = v.ID
	return s.list(ctx, q)
}

func (s *Service) Update(ctx context.Context, p auth.Principal, id string, in UpdateProductRequest) (*Product, error) {
	if _, err := s.Managed(ctx, p, id); err != nil {
		return nil, err
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return nil, apperr.BadRequest("price_cents must be a non-negative integer")
	}
	if in.PriceCents != nil && *in.PriceCents > money.MaxPriceCents {
		return nil, apperr.BadRequest("price_cents must not exceed %d", money.MaxPriceCents)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.BadRequest("invalid status %q", *in.Status)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	patch := Patch{
		Name:        mo.PointerToOption(in.Name),
		Description: mo.PointerToOption(in.Description),
		SKU:         mo.PointerToOption(in.SKU),
		PriceCents:  mo.PointerToOption(in.PriceCents),
		Status:      mo.PointerToOption(in.Status),
		ImageURL:    mo.PointerToOption(in.ImageURL),
		CategoryID:  mo.PointerToOption(in.CategoryID),
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, notFoundOr(err)
	}
	prod, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return prod, nil
}

// Delete removes the product. Past order items keep their snapshot.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if _, err := s.Managed(ctx, p, id); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("product not found")
	}
	return nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	out, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryRequest) (*Category, error) {
	name := strings.TrimSpace(in.Name)
	sl := slug.Make(name)
	if sl == "" {
		return nil, apperr.BadRequest("name must contain letters or digits")
	}
	c := &Category{ID: uuid.NewString(), Name: name, Slug: sl}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, ErrCategoryExists) {
			return nil, apperr.Conflict("category %q already exists", sl)
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("category not found")
	}
	return nil
}
