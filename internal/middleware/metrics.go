package middleware

import (
	"strconv"
	"time"

	"eadshop_back_end/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics compte les requêtes par route enregistrée, jamais par URL brute
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.Requests.WithLabelValues(handler, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}
