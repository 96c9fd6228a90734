package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/httpx"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
)

func orderQuery(c *gin.Context) (order.Query, httpx.Page) {
	page := httpx.PageFrom(c)
	return order.Query{Status: order.Status(c.Query("status")), Limit: page.Limit, Offset: page.Offset()}, page
}

// checkoutHandler godoc
//
//	@Summary		Check out a cart
//	@Description	Splits the cart into one order per shop, reserves stock and opens a pending payment per order.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		order.CheckoutRequest	true	"Cart"
//	@Success		201		{object}	order.CheckoutResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		403		{object}	errorResponse
//	@Failure		409		{object}	errorResponse
//	@Router			/orders/checkout [post]
func checkoutHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.CheckoutRequest
		if !bindJSON(c, &in) {
			return
		}
		res, err := svc.Checkout(c.Request.Context(), auth.MustPrincipal(c), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// myOrdersHandler godoc
//
//	@Summary	List own orders
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status	query		string	false	"Filter by status"
//	@Success	200		{object}	httpx.List[order.Order]
//	@Router		/orders [get]
func myOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page := orderQuery(c)
		out, total, err := svc.ListMine(c.Request.Context(), auth.MustPrincipal(c), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// vendorOrdersHandler godoc
//
//	@Summary	List orders placed with own shop
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status	query		string	false	"Filter by status"
//	@Success	200		{object}	httpx.List[order.Order]
//	@Router		/orders/vendor [get]
func vendorOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, page := orderQuery(c)
		out, total, err := svc.ListForVendor(c.Request.Context(), auth.MustPrincipal(c), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, httpx.NewList(out, page, total))
	}
}

// getOrderHandler godoc
//
//	@Summary	Get an order
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Order id"
//	@Success	200	{object}	order.Order
//	@Failure	404	{object}	errorResponse
//	@Router		/orders/{id} [get]
func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// updateOrderStatusHandler godoc
//
//	@Summary	Move an order to a new status
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string						true	"Order id"
//	@Param		body	body		order.UpdateStatusRequest	true	"Target status"
//	@Success	200		{object}	order.Order
//	@Failure	409		{object}	errorResponse
//	@Router		/orders/{id}/status [patch]
func updateOrderStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.UpdateStatusRequest
		if !bindJSON(c, &in) {
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), in.Status)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// cancelOrderHandler godoc
//
//	@Summary	Cancel an order
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Order id"
//	@Success	200	{object}	order.Order
//	@Failure	409	{object}	errorResponse
//	@Router		/orders/{id}/cancel [post]
func cancelOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.UpdateStatus(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), order.StatusCancelled)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// listPaymentsHandler godoc
//
//	@Summary	Payments of an order
//	@Tags		payments
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Order id"
//	@Success	200	{array}	payment.Payment
//	@Router		/orders/{id}/payments [get]
func listPaymentsHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.ListForOrder(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		if out == nil {
			out = []payment.Payment{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// recordPaymentHandler godoc
//
//	@Summary		Record an offline payment
//	@Description	Used by the shop or an admin for cash on delivery and other manual providers.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string						true	"Order id"
//	@Param			body	body		payment.RecordPaymentRequest	true	"Payment"
//	@Success		201		{object}	payment.Payment
//	@Failure		403		{object}	errorResponse
//	@Router			/orders/{id}/payments [post]
func recordPaymentHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in payment.RecordPaymentRequest
		if !bindJSON(c, &in) {
			return
		}
		p, err := svc.Record(c.Request.Context(), auth.MustPrincipal(c), c.Param("id"), in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// paymentWebhookHandler godoc
//
//	@Summary	Payment processor webhook
//	@Tags		payments
//	@Accept		json
//	@Param		Stripe-Signature	header	string	true	"Signature"
//	@Success	204
//	@Failure	400	{object}	errorResponse
//	@Router		/payments/webhook [post]
func paymentWebhookHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData()
		if err != nil {
			_ = c.Error(apperr.BadRequest("unreadable body"))
			return
		}
		if err := svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
