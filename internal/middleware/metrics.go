package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kkn-placement-api/internal/service"
)

// unmatchedRoute is the path label recorded for requests that resolved to no
// registered route. Raw URL paths from scanners and typos would otherwise
// create an unbounded label set.
const unmatchedRoute = "unmatched"

// routeLabel returns the registered route template for the request, so
// /api/v1/teams/abc123 is recorded as /api/v1/teams/:id regardless of the
// identifier in the URL.
func routeLabel(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return unmatchedRoute
}

// Metrics records duration and count for every request under the route
// template it matched.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}
