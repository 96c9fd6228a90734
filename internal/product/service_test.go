package product_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/money"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type fixture struct {
	st       *memstore.Store
	svc      *product.Service
	owner    auth.Principal
	stranger auth.Principal
	shop     *vendor.Vendor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{
		st:       st,
		svc:      product.NewService(st.Products, vendor.NewService(st.Vendors)),
		owner:    st.SeedUser("owner@example.com", auth.RoleCustomer),
		stranger: st.SeedUser("stranger@example.com", auth.RoleCustomer),
	}
	f.shop = st.SeedVendor(&f.owner, "Shop", vendor.StatusApproved)
	return f
}

func (f *fixture) create(t *testing.T, name string, status product.Status) *product.Product {
	t.Helper()
	p, err := f.svc.Create(context.Background(), f.owner, product.CreateProductRequest{
		Name: name, PriceCents: lo.ToPtr[int64](1500), Status: status, Stock: 3,
	})
	require.NoError(t, err)
	return p
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Felt Slippers", "")
	assert.Equal(t, product.StatusDraft, p.Status)
	assert.Equal(t, f.shop.ID, p.VendorID)
	assert.Contains(t, p.Slug, "felt-slippers")
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, "15.00", p.PriceDisplay())
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner, product.CreateProductRequest{
		Name: "Bad", PriceCents: lo.ToPtr[int64](-1),
	})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, err = f.svc.Create(context.Background(), f.owner, product.CreateProductRequest{Name: "Free"})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err), "price is required")
}

func TestPriceAndStockUpperBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, product.CreateProductRequest{
		Name: "Too Dear", PriceCents: lo.ToPtr(money.MaxPriceCents + 1),
	})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, err = f.svc.Create(ctx, f.owner, product.CreateProductRequest{
		Name: "Too Many", PriceCents: lo.ToPtr[int64](100), Stock: product.MaxStock + 1,
	})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	p := f.create(t, "Felt Slippers", product.StatusActive)
	_, err = f.svc.Update(ctx, f.owner, p.ID, product.UpdateProductRequest{PriceCents: lo.ToPtr(money.MaxPriceCents + 1)})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	got, err := f.svc.Update(ctx, f.owner, p.ID, product.UpdateProductRequest{PriceCents: lo.ToPtr(money.MaxPriceCents)})
	require.NoError(t, err)
	assert.Equal(t, money.MaxPriceCents, got.PriceCents)
}

func TestCreateRequiresApprovedShop(t *testing.T) {
	f := newFixture(t)
	pending := f.st.SeedUser("pending@example.com", auth.RoleCustomer)
	f.st.SeedVendor(&pending, "Pending", vendor.StatusPending)

	_, err := f.svc.Create(context.Background(), pending, product.CreateProductRequest{Name: "X", PriceCents: lo.ToPtr[int64](1)})
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))

	_, err = f.svc.Create(context.Background(), f.stranger, product.CreateProductRequest{Name: "X", PriceCents: lo.ToPtr[int64](1)})
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestDraftVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.create(t, "Draft Bag", product.StatusDraft)

	_, err := f.svc.Get(ctx, nil, draft.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err), "anonymous")
	_, err = f.svc.Get(ctx, &f.stranger, draft.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err), "other customer")

	got, err := f.svc.Get(ctx, &f.owner, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	admin := f.st.SeedUser("admin@example.com", auth.RoleAdmin)
	_, err = f.svc.Get(ctx, &admin, draft.ID)
	assert.NoError(t, err)
}

func TestListPublicOnlyActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.create(t, "Singing Bowl", product.StatusActive)
	f.create(t, "Draft Bowl", product.StatusDraft)
	f.create(t, "Retired Bowl", product.StatusInactive)

	out, total, err := f.svc.ListPublic(ctx, product.Query{Status: product.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, active.ID, out[0].ID)

	out, _, err = f.svc.ListPublic(ctx, product.Query{Q: "singing"})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	_, _, err = f.svc.ListPublic(ctx, product.Query{MinPrice: lo.ToPtr[int64](10), MaxPrice: lo.ToPtr[int64](5)})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	mine, total, err := f.svc.ListMine(ctx, f.owner, product.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, mine, 3)
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "Prayer Flags", product.StatusActive)

	price := int64(999)
	_, err := f.svc.Update(ctx, f.stranger, p.ID, product.UpdateProductRequest{PriceCents: &price})
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))

	neg := int64(-5)
	_, err = f.svc.Update(ctx, f.owner, p.ID, product.UpdateProductRequest{PriceCents: &neg})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	got, err := f.svc.Update(ctx, f.owner, p.ID, product.UpdateProductRequest{PriceCents: &price})
	require.NoError(t, err)
	assert.EqualValues(t, 999, got.PriceCents)
	assert.Equal(t, "Prayer Flags", got.Name)

	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(f.svc.Delete(ctx, f.stranger, p.ID)))
	require.NoError(t, f.svc.Delete(ctx, f.owner, p.ID))
	_, err = f.svc.Get(ctx, &f.owner, p.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateCategory(ctx, product.CreateCategoryRequest{Name: "Home Decor"})
	require.NoError(t, err)
	assert.Equal(t, "home-decor", c.Slug)

	_, err = f.svc.CreateCategory(ctx, product.CreateCategoryRequest{Name: "home decor"})
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))

	unknown := "00000000-0000-0000-0000-000000000001"
	_, err = f.svc.Create(ctx, f.owner, product.CreateProductRequest{Name: "Lamp", PriceCents: lo.ToPtr[int64](1), CategoryID: &unknown})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	p, err := f.svc.Create(ctx, f.owner, product.CreateProductRequest{Name: "Lamp", PriceCents: lo.ToPtr[int64](1), CategoryID: &c.ID, Status: product.StatusActive})
	require.NoError(t, err)
	out, _, err := f.svc.ListPublic(ctx, product.Query{CategoryID: c.ID})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, p.ID, out[0].ID)

	require.NoError(t, f.svc.DeleteCategory(ctx, c.ID))
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(f.svc.DeleteCategory(ctx, c.ID)))
	cats, err := f.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}
