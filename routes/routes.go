package routes

import (
	"villamar/handlers"
	"villamar/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterCheckoutRoutes registers the guest-facing checkout endpoints.
func RegisterCheckoutRoutes(r *gin.Engine, h *handlers.CheckoutHandler) {
	co := r.Group("/api/checkout")
	{
		co.POST("/session", h.StartCheckout)                     // Phase 1: open session with a quote
		co.GET("/session/:sessionID", h.GetSession)              //
		co.PUT("/session/:sessionID/details", h.SubmitDetails)   // Phase 2: guest details + rail choice
		co.POST("/session/:sessionID/pay", h.ExecutePayment)     // Phase 3: run the rail
		co.POST("/session/:sessionID/back", h.Back)              // discard rail artifacts, keep booking
	}
}

// RegisterAdminRoutes registers the payment approval surface.
func RegisterAdminRoutes(r *gin.Engine, h *handlers.AdminPaymentHandler) {
	ad := r.Group("/api/admin/payments")
	ad.Use(middleware.AdminAuthMiddleware())
	{
		ad.GET("", h.ListPending)
		ad.POST("/:recordID/approve", h.Approve)
		ad.POST("/:recordID/cancel", h.Cancel)
		ad.GET("/reference/:reference", h.GetByReference)
		ad.POST("/reference/:reference/approve", h.ApproveByReference)
	}
}

// RegisterHealthRoutes registers the health endpoint.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", handlers.Health)
}
