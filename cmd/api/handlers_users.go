package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/httpx"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

// registerHandler godoc
//
//	@Summary	Register a customer account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		user.RegisterRequest	true	"Account"
//	@Success	201		{object}	user.AuthResponse
//	@Failure	400		{object}	errorResponse
//	@Router		/auth/register [post]
func registerHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RegisterRequest
		if !bindJSON(c, &in) {
			return
		}
		res, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// loginHandler godoc
//
//	@Summary	Log in with email and password
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		user.LoginRequest	true	"Credentials"
//	@Success	200		{object}	user.AuthResponse
//	@Failure	401		{object}	errorResponse
//	@Failure	403		{object}	errorResponse
//	@Router		/auth/login [post]
func loginHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.LoginRequest
		if !bindJSON(c, &in) {
			return
		}
		res, err := svc.Login(c.Request.Context(), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// refreshHandler godoc
//
//	@Summary	Exchange a refresh token for a new token pair
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		user.RefreshRequest	true	"Refresh token"
//	@Success	200		{object}	user.AuthResponse
//	@Failure	401		{object}	errorResponse
//	@Router		/auth/refresh [post]
func refreshHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RefreshRequest
		if !bindJSON(c, &in) {
			return
		}
		res, err := svc.Refresh(c.Request.Context(), in.RefreshToken)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// meHandler godoc
//
//	@Summary	Current user
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	user.User
//	@Router		/users/me [get]
func meHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Get(c.Request.Context(), auth.MustPrincipal(c).UserID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// updateProfileHandler godoc
//
//	@Summary	Update own profile
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		user.UpdateProfileRequest	true	"Fields to change"
//	@Success	200		{object}	user.User
//	@Router		/users/me [patch]
func updateProfileHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.UpdateProfileRequest
		if !bindJSON(c, &in) {
			return
		}
		u, err := svc.UpdateProfile(c.Request.Context(), auth.MustPrincipal(c).UserID, in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// applyVendorHandler godoc
//
//	@Summary	Apply for a shop
//	@Tags		vendors
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		vendor.ApplyRequest	true	"Shop"
//	@Success	201		{object}	vendor.Vendor
//	@Failure	409		{object}	errorResponse
//	@Router		/vendors [post]
func applyVendorHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in vendor.ApplyRequest
		if !bindJSON(c, &in) {
			return
		}
		v, err := svc.Apply(c.Request.Context(), auth.MustPrincipal(c), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

// listVendorsHandler godoc
//
//	@Summary	List approved shops
//	@Tags		vendors
//	@Produce	json
//	@Param		page	query		int	false	"Page"
//	@Param		limit	query		int	false	"Page size"
//	@Success	200		{object}	httpx.List[vendor.Vendor]
//	@Router		/vendors [get]
func listVendorsHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := httpx.PageFrom(c)
		out, total, err := svc.List(c.Request.Context(), vendor.Query{Status: vendor.StatusApproved, Limit: p.Limit, Offset: p.Offset()})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, p, total))
	}
}

// getVendorHandler godoc
//
//	@Summary	Get a shop
//	@Tags		vendors
//	@Produce	json
//	@Param		id	path		string	true	"Vendor id"
//	@Success	200	{object}	vendor.Vendor
//	@Failure	404	{object}	errorResponse
//	@Router		/vendors/{id} [get]
func getVendorHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// vendorBySlugHandler godoc
//
//	@Summary	Get a shop by slug
//	@Tags		vendors
//	@Produce	json
//	@Param		slug	path		string	true	"Shop slug"
//	@Success	200		{object}	vendor.Vendor
//	@Router		/vendors/slug/{slug} [get]
func vendorBySlugHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.GetBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// myVendorHandler godoc
//
//	@Summary	Own shop
//	@Tags		vendors
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	vendor.Vendor
//	@Router		/vendors/me [get]
func myVendorHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Mine(c.Request.Context(), auth.MustPrincipal(c))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// updateMyVendorHandler godoc
//
//	@Summary	Update own shop
//	@Tags		vendors
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		vendor.UpdateVendorRequest	true	"Fields to change"
//	@Success	200		{object}	vendor.Vendor
//	@Router		/vendors/me [patch]
func updateMyVendorHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in vendor.UpdateVendorRequest
		if !bindJSON(c, &in) {
			return
		}
		v, err := svc.UpdateMine(c.Request.Context(), auth.MustPrincipal(c), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
