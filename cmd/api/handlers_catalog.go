package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/httpx"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/inventory"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
)

// productQuery reads the shared catalog filters.
func productQuery(c *gin.Context) (product.Query, httpx.Page, bool) {
	page := httpx.PageFrom(c)
	q := product.Query{
		Q:          c.Query("q"),
		VendorID:   c.Query("vendor_id"),
		CategoryID: c.Query("category_id"),
		Status:     product.Status(c.Query("status")),
		Limit:      page.Limit,
		Offset:     page.Offset(),
	}
	var ok bool
	if q.MinPrice, ok = queryInt64(c, "min_price"); !ok {
		return q, page, false
	}
	if q.MaxPrice, ok = queryInt64(c, "max_price"); !ok {
		return q, page, false
	}
	return q, page, true
}

// listCategoriesHandler godoc
//
//	@Summary	List categories
//	@Tags		categories
//	@Produce	json
//	@Success	200	{array}	product.Category
//	@Router		/categories [get]
func listCategoriesHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Categories(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}
		if out == nil {
			out = []product.Category{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// createCategoryHandler godoc
//
//	@Summary	Create a category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		product.CreateCategoryRequest	true	"Category"
//	@Success	201		{object}	product.Category
//	@Failure	409		{object}	errorResponse
//	@Router		/categories [post]
func createCategoryHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateCategoryRequest
		if !bindJSON(c, &in) {
			return
		}
		cat, err := svc.CreateCategory(c.Request.Context(), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}

// deleteCategoryHandler godoc
//
//	@Summary	Delete a category
//	@Tags		categories
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Category id"
//	@Success	204
//	@Router		/categories/{id} [delete]
func deleteCategoryHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// listProductsHandler godoc
//
//	@Summary	Browse active products
//	@Tags		products
//	@Produce	json
//	@Param		q			query		string	false	"Search text"
//	@Param		vendor_id	query		string	false	"Shop"
//	@Param		category_id	query		string	false	"Category"
//	@Param		min_price	query		int		false	"Minimum price in cents"
//	@Param		max_price	query		int		false	"Maximum price in cents"
//	@Param		page		query		int		false	"Page"
//	@Param		limit		query		int		false	"Page size"
//	@Success	200			{object}	httpx.List[product.Product]
//	@Failure	400			{object}	errorResponse
//	@Router		/products [get]
func listProductsHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page, ok := productQuery(c)
		if !ok {
			return
		}
		out, total, err := svc.ListPublic(c.Request.Context(), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// myProductsHandler godoc
//
//	@Summary	List own shop's products in any status
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status	query		string	false	"DRAFT, ACTIVE or INACTIVE"
//	@Success	200		{object}	httpx.List[product.Product]
//	@Router		/products/mine [get]
func myProductsHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page, ok := productQuery(c)
		if !ok {
			return
		}
		out, total, err := svc.ListMine(c.Request.Context(), auth.MustPrincipal(c), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// createProductHandler godoc
//
//	@Summary	Create a product in own shop
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		product.CreateProductRequest	true	"Product"
//	@Success	201		{object}	product.Product
//	@Failure	400		{object}	errorResponse
//	@Failure	403		{object}	errorResponse
//	@Router		/products [post]
func createProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateProductRequest
		if !bindJSON(c, &in) {
			return
		}
		p, err := svc.Create(c.Request.Context(), auth.MustPrincipal(c), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// getProductHandler godoc
//
//	@Summary	Get a product
//	@Description	Drafts are visible to their shop and admins only.
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"Product id"
//	@Success	200	{object}	product.Product
//	@Failure	404	{object}	errorResponse
//	@Router		/products/{id} [get]
func getProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), auth.Viewer(c), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// updateProductHandler godoc
//
//	@Summary	Update a product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string							true	"Product id"
//	@Param		body	body		product.UpdateProductRequest	true	"Fields to change"
//	@Success	200		{object}	product.Product
//	@Router		/products/{id} [patch]
func updateProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.UpdateProductRequest
		if !bindJSON(c, &in) {
			return
		}
		p, err := svc.Update(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// deleteProductHandler godoc
//
//	@Summary	Delete a product
//	@Tags		products
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Product id"
//	@Success	204
//	@Router		/products/{id} [delete]
func deleteProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), auth.MustPrincipal(c), c.Param("id")); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// getStockHandler godoc
//
//	@Summary	Stock level of a product
//	@Tags		inventory
//	@Produce	json
//	@Param		id	path		string	true	"Product id"
//	@Success	200	{object}	inventory.Level
//	@Router		/products/{id}/inventory [get]
func getStockHandler(svc *inventory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		lvl, err := svc.Get(c.Request.Context(), auth.Viewer(c), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, lvl)
	}
}

// setStockHandler godoc
//
//	@Summary	Set the stock level
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string						true	"Product id"
//	@Param		body	body		inventory.SetStockRequest	true	"Quantity"
//	@Success	200		{object}	inventory.Level
//	@Router		/products/{id}/inventory [put]
func setStockHandler(svc *inventory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in inventory.SetStockRequest
		if !bindJSON(c, &in) {
			return
		}
		lvl, err := svc.Set(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), *in.Quantity)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, lvl)
	}
}

// adjustStockHandler godoc
//
//	@Summary	Adjust the stock level by a delta
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string						true	"Product id"
//	@Param		body	body		inventory.AdjustStockRequest	true	"Delta"
//	@Success	200		{object}	inventory.Level
//	@Failure	409		{object}	errorResponse
//	@Router		/products/{id}/inventory/adjust [post]
func adjustStockHandler(svc *inventory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in inventory.AdjustStockRequest
		if !bindJSON(c, &in) {
			return
		}
		lvl, err := svc.Adjust(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), in.Delta)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, lvl)
	}
}
