package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/velora-shop/storefront-backend/internal/metrics"
)

// MetricsMiddleware records request count and latency by matched route.
// Unmatched paths are grouped under "unmatched" to keep label cardinality flat.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
