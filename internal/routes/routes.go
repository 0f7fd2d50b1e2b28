package routes

import (
	"eadshop_back_end/internal/handlers"

	"github.com/gin-gonic/gin"
)

// Middlewares injectés par main, chacun peut être nil
type Middlewares struct {
	CheckoutLimit gin.HandlerFunc
	Admin         gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, mw Middlewares) {
	limit := orPass(mw.CheckoutLimit)
	admin := orPass(mw.Admin)

	r.GET("/healthz", h.Healthz)

	// Catalogue
	r.GET("/products", h.GetProducts)

	// Paiement
	r.POST("/create-payment-intent", limit, h.CreatePaymentIntent)
	r.POST("/create-checkout-session", limit, h.CreatePaymentIntent)
	r.POST("/send-order-confirmation", limit, h.SendOrderConfirmation)

	// Suivi public (cible du QR code)
	r.GET("/orders/:id", h.GetOrderStatus)

	// Administration
	r.POST("/admin/login", limit, h.AdminLogin)
	adminGroup := r.Group("/admin", admin)
	{
		adminGroup.GET("/orders", h.ListOrders)
		adminGroup.GET("/orders/:id", h.GetOrder)
		adminGroup.GET("/orders/:id/receipt", h.GetOrderReceipt)
		adminGroup.GET("/search", h.SearchOrders)
	}
}

func orPass(h gin.HandlerFunc) gin.HandlerFunc {
	if h != nil {
		return h
	}
	return func(c *gin.Context) { c.Next() }
}
