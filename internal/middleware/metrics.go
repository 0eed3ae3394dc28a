package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sigea-edu/sigea-api/internal/service"
)

// Metrics records request counts and latencies per route. Probe and
// scrape endpoints are excluded so they do not dominate the series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	skip := map[string]struct{}{
		"/health":  {},
		"/ready":   {},
		"/metrics": {},
	}

	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if _, ok := skip[route]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
