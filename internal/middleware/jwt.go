package middleware

import (
	"log"
	"net/http"
	"strings"

	"eadshop_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminRequired protège les routes d'administration.
// Sans JWT_SECRET l'administration reste fermée (503).
func AdminRequired(secret string, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Administration non configurée"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			return
		}

		claims, err := utils.ParseAdminJWT(secret, parts[1])
		if err != nil {
			log.Printf("❌ Accès admin refusé: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		c.Set("role", claims.Role)
		c.Next()
	}
}
