package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"eadshop_back_end/internal/checkout"
	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/pricing"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

// Les prix éventuellement envoyés par le client ne sont jamais lus
type checkoutRequest struct {
	Items           []models.CartLine       `json:"items"`
	CustomerEmail   string                  `json:"customerEmail"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	Shipping        *models.ShippingAddress `json:"shipping"`
	IdempotencyKey  string                  `json:"idempotencyKey"`
}

// CreatePaymentIntent : POST /create-payment-intent et /create-checkout-session
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "code": "invalid_request", "details": err.Error()})
		return
	}

	cart, err := pricing.Reconcile(req.Items, h.catalog, h.policy)
	if err != nil {
		log.Printf("⚠️ Panier refusé: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": pricing.Code(err)})
		return
	}

	shipping := req.ShippingAddress
	if shipping.IsZero() {
		shipping = req.Shipping
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}

	result, err := h.checkout.Checkout(c.Request.Context(), checkout.Request{
		Cart:            cart,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: shipping,
		IdempotencyKey:  key,
	})

	var degraded *checkout.PersistenceDegradedError
	if errors.As(err, &degraded) {
		// L'argent a bougé : le client doit quand même finaliser le paiement
		c.JSON(http.StatusOK, gin.H{
			"clientSecret":        degraded.Result.ClientSecret,
			"orderId":             degraded.Result.OrderID,
			"totalMinorUnits":     degraded.Result.TotalMinorUnits,
			"currency":            degraded.Result.Currency,
			"persistenceDegraded": true,
			"warning":             "Pagamento accettato ma ordine non registrato: verrà riconciliato manualmente.",
		})
		return
	}
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	if result.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(http.StatusOK, gin.H{
		"clientSecret":    result.ClientSecret,
		"orderId":         result.OrderID,
		"totalMinorUnits": result.TotalMinorUnits,
		"currency":        result.Currency,
		"replayed":        result.Replayed,
	})
}

func writeCheckoutError(c *gin.Context, err error) {
	var (
		tooSmall *checkout.AmountTooSmallError
		failed   *checkout.PaymentFailedError
		cfgErr   *config.ConfigurationError
	)

	switch {
	case errors.As(err, &tooSmall):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "amount_too_small", "minimum": tooSmall.Minimum})
	case errors.Is(err, pricing.ErrInvalidCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": pricing.Code(err)})
	case errors.Is(err, checkout.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
	case errors.Is(err, checkout.ErrIdempotencyKeyReused):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "idempotency_key_reused"})
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "checkout_in_progress"})
	case errors.As(err, &cfgErr):
		log.Printf("❌ Configuration manquante: %s", cfgErr.Key)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Servizio di pagamento non configurato", "code": "configuration"})
	case errors.As(err, &failed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Errore dal server: impossibile creare l'intenzione di pagamento.",
			"code":    "payment_failed",
			"reason":  failed.Reason,
			"orderId": failed.OrderID,
		})
	default:
		log.Printf("❌ Erreur checkout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Errore dal server: impossibile creare l'intenzione di pagamento.", "code": "internal"})
	}
}
