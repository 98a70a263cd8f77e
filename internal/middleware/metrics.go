package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records latency per route pattern and request counts per route group.
// Requests that match no route share a single label so probing clients cannot
// grow the series set.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		group := routeGroup(route)
		status := c.Writer.Status()

		metrics.APILatency.
			WithLabelValues(c.Request.Method, group, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		metrics.APIRequests.WithLabelValues(group, statusClass(status)).Inc()
	}
}

// routeGroup maps a route pattern to its first meaningful segment:
// /api/match/:eventID -> match, /health/ready -> health.
func routeGroup(route string) string {
	if route == unmatchedRoute {
		return unmatchedRoute
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) > 1 && segments[0] == "api" {
		segments = segments[1:]
	}
	if segments[0] == "" || strings.HasPrefix(segments[0], ":") {
		return "root"
	}
	return segments[0]
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
