package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Apples890/Craftmandu-Updated-sub000/docs"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/httpx"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
)

// router builds the HTTP surface. When localUploads is set, that directory
// is served read-only under /uploads.
func (a *app) router(localUploads string) *gin.Engine {
	if a.cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Logger(), httpx.CORS(a.cfg.CORSOrigins), httpx.Metrics(), httpx.Errors(!a.cfg.Production()))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if localUploads != "" {
		r.Static("/uploads", localUploads)
	}

	authed := auth.Middleware(a.verifier)
	optional := auth.Optional(a.verifier)
	admin := auth.RequireRoles(auth.RoleAdmin)

	api := r.Group("/api")

	ag := api.Group("/auth")
	ag.POST("/register", registerHandler(a.users))
	ag.POST("/login", loginHandler(a.users))
	ag.POST("/refresh", refreshHandler(a.users))
	ag.GET("/me", authed, meHandler(a.users))

	ug := api.Group("/users", authed)
	ug.GET("/me", meHandler(a.users))
	ug.PATCH("/me", updateProfileHandler(a.users))

	vg := api.Group("/vendors")
	vg.GET("", listVendorsHandler(a.vendors))
	vg.POST("", authed, applyVendorHandler(a.vendors))
	vg.GET("/me", authed, myVendorHandler(a.vendors))
	vg.PATCH("/me", authed, updateMyVendorHandler(a.vendors))
	vg.GET("/slug/:slug", vendorBySlugHandler(a.vendors))
	vg.GET("/:id", getVendorHandler(a.vendors))

	cg := api.Group("/categories")
	cg.GET("", listCategoriesHandler(a.products))
	cg.POST("", authed, admin, createCategoryHandler(a.products))
	cg.DELETE("/:id", authed, admin, deleteCategoryHandler(a.products))

	pg := api.Group("/products")
	pg.GET("", listProductsHandler(a.products))
	pg.POST("", authed, createProductHandler(a.products))
	pg.GET("/mine", authed, myProductsHandler(a.products))
	pg.GET("/:id", optional, getProductHandler(a.products))
	pg.PATCH("/:id", authed, updateProductHandler(a.products))
	pg.DELETE("/:id", authed, deleteProductHandler(a.products))
	pg.GET("/:id/inventory", optional, getStockHandler(a.inventory))
	pg.PUT("/:id/inventory", authed, setStockHandler(a.inventory))
	pg.POST("/:id/inventory/adjust", authed, adjustStockHandler(a.inventory))
	pg.GET("/:id/reviews", optional, listReviewsHandler(a.reviews))

	og := api.Group("/orders", authed)
	og.POST("/checkout", a.gate.Require(user.ActionOrder), httpx.TrackOrderOperation("checkout"), checkoutHandler(a.orders))
	og.GET("", myOrdersHandler(a.orders))
	og.GET("/vendor", vendorOrdersHandler(a.orders))
	og.GET("/:id", getOrderHandler(a.orders))
	og.PATCH("/:id/status", httpx.TrackOrderOperation("status_update"), updateOrderStatusHandler(a.orders))
	og.POST("/:id/cancel", httpx.TrackOrderOperation("cancel"), cancelOrderHandler(a.orders))
	og.GET("/:id/payments", listPaymentsHandler(a.payments))
	og.POST("/:id/payments", recordPaymentHandler(a.payments))

	api.POST("/payments/webhook", paymentWebhookHandler(a.payments))

	rg := api.Group("/reviews", authed)
	rg.POST("", a.gate.Require(user.ActionReview), createReviewHandler(a.reviews))
	rg.POST("/:id/reply", replyReviewHandler(a.reviews))
	rg.DELETE("/:id", admin, deleteReviewHandler(a.reviews))

	chg := api.Group("/chat/conversations", authed)
	chg.POST("", openConversationHandler(a.chat))
	chg.GET("", listConversationsHandler(a.chat))
	chg.GET("/:id/messages", listMessagesHandler(a.chat))
	chg.POST("/:id/messages", a.gate.Require(user.ActionChat), sendMessageHandler(a.chat))

	ng := api.Group("/notifications", authed)
	ng.GET("", listNotificationsHandler(a.notifications))
	ng.GET("/unread-count", unreadCountHandler(a.notifications))
	ng.POST("/read-all", markAllReadHandler(a.notifications))
	ng.POST("/:id/read", markReadHandler(a.notifications))

	if a.uploads != nil {
		api.POST("/uploads", authed, uploadHandler(a.uploads, a.cfg.UploadMaxBytes))
	}
	api.GET("/ws", authed, wsHandler(a.hub))

	adm := api.Group("/admin", authed, admin)
	adm.GET("/stats", statsHandler(a.admin))
	adm.GET("/users", adminListUsersHandler(a.users))
	adm.GET("/users/:id", adminGetUserHandler(a.users))
	adm.PATCH("/users/:id/ban", adminBanHandler(a.users))
	adm.PATCH("/users/:id/capabilities", adminCapabilitiesHandler(a.users))
	adm.PATCH("/users/:id/role", adminRoleHandler(a.users))
	adm.GET("/vendors", adminListVendorsHandler(a.vendors))
	adm.PATCH("/vendors/:id/status", adminVendorStatusHandler(a.vendors))
	adm.GET("/orders", adminListOrdersHandler(a.orders))
	adm.PATCH("/payments/:id/status", adminPaymentStatusHandler(a.payments))
	adm.POST("/notifications/broadcast", broadcastHandler(a.notifications))

	return r
}
