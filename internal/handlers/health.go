package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"store":    h.cfg.OrderStore,
		"products": h.catalog.Len(),
		"warnings": h.cfg.Warnings(),
	})
}
