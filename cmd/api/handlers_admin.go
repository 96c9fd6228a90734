package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/admin"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/httpx"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/notification"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

// statsHandler godoc
//
//	@Summary	Marketplace counters
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	admin.Stats
//	@Router		/admin/stats [get]
func statsHandler(svc *admin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := svc.Stats(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// adminListUsersHandler godoc
//
//	@Summary	List users
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		q		query		string	false	"Email or name contains"
//	@Param		role	query		string	false	"ADMIN, VENDOR or CUSTOMER"
//	@Success	200		{object}	httpx.List[user.User]
//	@Router		/admin/users [get]
func adminListUsersHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := httpx.PageFrom(c)
		q := user.Query{Q: c.Query("q"), Role: auth.Role(c.Query("role")), Limit: page.Limit, Offset: page.Offset()}
		out, total, err := svc.List(c.Request.Context(), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// adminGetUserHandler godoc
//
//	@Summary	Get a user
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User id"
//	@Success	200	{object}	user.User
//	@Router		/admin/users/{id} [get]
func adminGetUserHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// adminBanHandler godoc
//
//	@Summary	Ban or unban a user
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"User id"
//	@Param		body	body		user.BanRequest	true	"Ban flag"
//	@Success	200		{object}	user.User
//	@Router		/admin/users/{id}/ban [patch]
func adminBanHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.BanRequest
		if !bindJSON(c, &in) {
			return
		}
		u, err := svc.SetBanned(c.Request.Context(), c.Param("id"), *in.Banned)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// adminCapabilitiesHandler godoc
//
//	@Summary	Toggle chat, order and review permissions
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string						true	"User id"
//	@Param		body	body		user.CapabilitiesRequest	true	"Flags to change"
//	@Success	200		{object}	user.User
//	@Router		/admin/users/{id}/capabilities [patch]
func adminCapabilitiesHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.CapabilitiesRequest
		if !bindJSON(c, &in) {
			return
		}
		caps := user.Capabilities{
			CanChat:   mo.PointerToOption(in.CanChat),
			CanOrder:  mo.PointerToOption(in.CanOrder),
			CanReview: mo.PointerToOption(in.CanReview),
		}
		u, err := svc.SetCapabilities(c.Request.Context(), c.Param("id"), caps)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// adminRoleHandler godoc
//
//	@Summary	Change a user's role
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"User id"
//	@Param		body	body		user.SetRoleRequest	true	"Role"
//	@Success	200		{object}	user.User
//	@Router		/admin/users/{id}/role [patch]
func adminRoleHandler(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.SetRoleRequest
		if !bindJSON(c, &in) {
			return
		}
		u, err := svc.SetRole(c.Request.Context(), c.Param("id"), in.Role)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// adminListVendorsHandler godoc
//
//	@Summary	List shops in any status
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status	query		string	false	"PENDING, APPROVED or SUSPENDED"
//	@Success	200		{object}	httpx.List[vendor.Vendor]
//	@Router		/admin/vendors [get]
func adminListVendorsHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := httpx.PageFrom(c)
		q := vendor.Query{Status: vendor.Status(c.Query("status")), Limit: page.Limit, Offset: page.Offset()}
		out, total, err := svc.List(c.Request.Context(), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// adminVendorStatusHandler godoc
//
//	@Summary		Approve or suspend a shop
//	@Description	The owner's role follows: APPROVED grants VENDOR, anything else reverts to CUSTOMER.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string						true	"Vendor id"
//	@Param			body	body		vendor.SetStatusRequest	true	"Status"
//	@Success		200		{object}	vendor.Vendor
//	@Router			/admin/vendors/{id}/status [patch]
func adminVendorStatusHandler(svc *vendor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in vendor.SetStatusRequest
		if !bindJSON(c, &in) {
			return
		}
		v, err := svc.SetStatus(c.Request.Context(), c.Param("id"), in.Status)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// adminListOrdersHandler godoc
//
//	@Summary	List every order
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status		query		string	false	"Filter by status"
//	@Param		vendor_id	query		string	false	"Filter by shop"
//	@Param		customer_id	query		string	false	"Filter by customer"
//	@Success	200			{object}	httpx.List[order.Order]
//	@Router		/admin/orders [get]
func adminListOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page := orderQuery(c)
		q.VendorID, q.CustomerID = c.Query("vendor_id"), c.Query("customer_id")
		out, total, err := svc.ListAll(c.Request.Context(), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// adminPaymentStatusHandler godoc
//
//	@Summary	Override a payment's status
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string							true	"Payment id"
//	@Param		body	body		payment.SetPaymentStatusRequest	true	"Status"
//	@Success	200		{object}	payment.Payment
//	@Router		/admin/payments/{id}/status [patch]
func adminPaymentStatusHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in payment.SetPaymentStatusRequest
		if !bindJSON(c, &in) {
			return
		}
		p, err := svc.SetStatus(c.Request.Context(), c.Param("id"), in.Status)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// broadcastHandler godoc
//
//	@Summary	Notify every user, or every user with a role
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		notification.BroadcastRequest	true	"Message"
//	@Success	200		{object}	map[string]int
//	@Router		/admin/notifications/broadcast [post]
func broadcastHandler(svc *notification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in notification.BroadcastRequest
		if !bindJSON(c, &in) {
			return
		}
		n, err := svc.Broadcast(c.Request.Context(), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": n})
	}
}
