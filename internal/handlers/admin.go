package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/search"
	"eadshop_back_end/internal/store"
	"eadshop_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

const receiptLinkTTL = 15 * time.Minute

func (h *Handler) AdminLogin(c *gin.Context) {
	if !h.cfg.AdminEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Administration non configurée"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mot de passe requis"})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, h.cfg.AdminPasswordHash)
	if err != nil {
		log.Printf("❌ ADMIN_PASSWORD_HASH inutilisable: %v", err)
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	token, err := utils.GenerateAdminJWT(h.cfg.JWTSecret, h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}
	log.Println("✅ Connexion admin")
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(utils.AdminTokenTTL.Seconds())})
}

// ListOrders : du plus récent au plus ancien, filtrable par statut
func (h *Handler) ListOrders(c *gin.Context) {
	filter := store.ListFilter{}

	if s := strings.ToUpper(strings.TrimSpace(c.Query("status"))); s != "" {
		status := models.OrderStatus(s)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu: " + s})
			return
		}
		filter.Status = status
	}
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit invalide"})
			return
		}
		filter.Limit = n
	}

	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("❌ Liste des commandes impossible: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archivio ordini non disponibile"})
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) SearchOrders(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": search.ErrDisabled.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	hits, err := h.search.Search(c.Request.Context(), q, limit)
	if errors.Is(err, search.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("❌ Recherche impossible: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Recherche indisponible"})
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	c.JSON(http.StatusOK, hits)
}

// GetOrderReceipt renvoie un lien signé vers le reçu archivé
func (h *Handler) GetOrderReceipt(c *gin.Context) {
	if h.receipts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archivage des reçus non configuré"})
		return
	}

	order, err := h.orders.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	if order.Status != models.StatusPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "Aucun reçu pour une commande non payée"})
		return
	}

	link, err := h.receipts.ReceiptURL(c.Request.Context(), order.OrderID, receiptLinkTTL)
	if err != nil {
		log.Printf("❌ Lien de reçu impossible pour %s: %v", order.OrderID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Stockage des reçus indisponible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link, "expiresIn": int(receiptLinkTTL.Seconds())})
}
