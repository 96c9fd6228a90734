package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/inventory"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
)

type Products struct{ s *state }

var _ product.Repository = (*Products)(nil)

// withStock copies p and fills in its current stock. Callers hold mu.
func (r *Products) withStock(p *product.Product) product.Product {
	cp := *p
	cp.Stock = 0
	if l, ok := r.s.stock[p.ID]; ok {
		cp.Stock = l.Quantity
	}
	return cp
}

func (r *Products) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.products[p.ID] = &cp
	r.s.stock[p.ID] = &inventory.Level{ProductID: p.ID, Quantity: p.Stock, UpdatedAt: p.CreatedAt}
	r.s.track(p.ID)
	return nil
}

func (r *Products) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := r.withStock(p)
	return &cp, nil
}

func (r *Products) List(_ context.Context, q product.Query) ([]product.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	var out []product.Product
	for _, p := range r.s.products {
		switch {
		case q.VendorID != "" && p.VendorID != q.VendorID,
			q.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != q.CategoryID),
			q.Status != "" && p.Status != q.Status,
			q.MinPrice != nil && p.PriceCents < *q.MinPrice,
			q.MaxPrice != nil && p.PriceCents > *q.MaxPrice:
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		out = append(out, r.withStock(p))
	}
	newestFirst(r.s, out, func(p product.Product) string { return p.ID })
	return window(out, q.Limit, q.Offset), len(out), nil
}

func (r *Products) Update(_ context.Context, id string, patch product.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Name = patch.Name.OrElse(p.Name)
	p.Description = patch.Description.OrElse(p.Description)
	p.SKU = patch.SKU.OrElse(p.SKU)
	p.PriceCents = patch.PriceCents.OrElse(p.PriceCents)
	p.Status = patch.Status.OrElse(p.Status)
	p.ImageURL = patch.ImageURL.OrElse(p.ImageURL)
	if c, ok := patch.CategoryID.Get(); ok {
		p.CategoryID = &c
	}
	p.UpdatedAt = r.s.now()
	return nil
}

// Delete mirrors the foreign keys: inventory and reviews go with the
// product, order items and conversations keep their rows without it.
func (r *Products) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return false, nil
	}
	delete(r.s.products, id)
	delete(r.s.stock, id)
	for _, o := range r.s.orders {
		for i := range o.Items {
			if pid := o.Items[i].ProductID; pid != nil && *pid == id {
				o.Items[i].ProductID = nil
			}
		}
	}
	for rid, rv := range r.s.reviews {
		if rv.ProductID == id {
			delete(r.s.reviews, rid)
		}
	}
	for _, c := range r.s.conversations {
		if c.ProductID != nil && *c.ProductID == id {
			c.ProductID = nil
		}
	}
	return true, nil
}

func (r *Products) CreateCategory(_ context.Context, c *product.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.categories {
		if e.Slug == c.Slug {
			return product.ErrCategoryExists
		}
	}
	c.CreatedAt = r.s.now()
	cp := *c
	r.s.categories[c.ID] = &cp
	return nil
}

func (r *Products) GetCategory(_ context.Context, id string) (*product.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, product.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *Products) ListCategories(_ context.Context) ([]product.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]product.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Products) DeleteCategory(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return false, nil
	}
	delete(r.s.categories, id)
	for _, p := range r.s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	return true, nil
}

type Inventory struct{ s *state }

var _ inventory.Repository = (*Inventory)(nil)

func (r *Inventory) Get(_ context.Context, productID string) (*inventory.Level, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.stock[productID]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *Inventory) Set(_ context.Context, productID string, qty int) (*inventory.Level, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l := &inventory.Level{ProductID: productID, Quantity: qty, UpdatedAt: r.s.now()}
	r.s.stock[productID] = l
	cp := *l
	return &cp, nil
}

func (r *Inventory) Adjust(_ context.Context, productID string, delta int) (*inventory.Level, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.stock[productID]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	if err := inventory.Check(int64(l.Quantity) + int64(delta)); err != nil {
		return nil, err
	}
	l.Quantity += delta
	l.UpdatedAt = r.s.now()
	cp := *l
	return &cp, nil
}
