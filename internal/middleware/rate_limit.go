package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const CheckoutWindow = time.Minute

type RateCounter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// CheckoutRateLimit limite les créations de paiement par IP.
// Sans Redis, ou si Redis ne répond pas, la requête passe.
func CheckoutRateLimit(counter RateCounter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "checkout_requests:" + c.ClientIP()
		count, ttl, err := counter.IncrementRateLimit(c.Request.Context(), key, CheckoutWindow)
		if err != nil {
			log.Printf("⚠️ Rate limit indisponible: %v", err)
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > int64(limit) {
			retryAfter := int(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de tentatives de paiement. Réessayez dans 1 minute",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
