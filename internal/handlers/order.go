package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"eadshop_back_end/internal/checkout"
	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

type confirmationRequest struct {
	OrderID         string `json:"orderId"`
	CustomerEmail   string `json:"customerEmail"`
	TotalMinorUnits int64  `json:"totalMinorUnits"`
}

// SendOrderConfirmation renvoie l'e-mail à partir de la commande enregistrée.
// E-mail et montant du corps de requête sont ignorés.
func (h *Handler) SendOrderConfirmation(c *gin.Context) {
	var req confirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OrderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId requis", "code": "invalid_request"})
		return
	}

	err := h.checkout.ResendConfirmation(c.Request.Context(), strings.TrimSpace(req.OrderID))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ordine non trovato"})
	case errors.Is(err, checkout.ErrOrderNotPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Ordine non pagato", "code": "order_not_paid"})
	default:
		log.Printf("❌ Renvoi de confirmation impossible pour %s: %v", req.OrderID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archivio ordini non disponibile"})
	}
}

type publicOrderLine struct {
	Name     string            `json:"name"`
	Quantity int               `json:"quantity"`
	Options  map[string]string `json:"options,omitempty"`
}

// publicOrder : vue sans données personnelles, cible du QR code
type publicOrder struct {
	OrderID         string             `json:"orderId"`
	Status          models.OrderStatus `json:"status"`
	TotalMinorUnits int64              `json:"totalMinorUnits"`
	Currency        string             `json:"currency"`
	Lines           []publicOrderLine  `json:"lines"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func (h *Handler) GetOrderStatus(c *gin.Context) {
	order, err := h.orders.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}

	view := publicOrder{
		OrderID:         order.OrderID,
		Status:          order.Status,
		TotalMinorUnits: order.TotalMinorUnits,
		Currency:        order.Currency,
		CreatedAt:       order.CreatedAt,
	}
	for _, l := range order.Lines {
		view.Lines = append(view.Lines, publicOrderLine{Name: l.Name, Quantity: l.Quantity, Options: l.SelectedOptions})
	}
	c.JSON(http.StatusOK, view)
}

func writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ordine non trovato"})
		return
	}
	log.Printf("❌ Lecture commande impossible: %v", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archivio ordini non disponibile"})
}
