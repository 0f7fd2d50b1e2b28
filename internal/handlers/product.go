package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetProducts renvoie le catalogue dans son ordre de chargement
func (h *Handler) GetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Items())
}
