package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-api/internal/service"
)

// unmatchedRoute labels requests that hit no route, keeping raw course and
// reservation ids out of the path label.
const unmatchedRoute = "unmatched"

// Metrics observes every request under its route template, e.g.
// /api/v1/courses/:id/schedule.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
