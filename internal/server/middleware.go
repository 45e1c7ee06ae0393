package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/storefront/internal/geoip"
	"github.com/zulandar/storefront/internal/visitors"
	"gorm.io/gorm"
)

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

// trackVisitors records a visit for storefront page views. Tracking failures
// never fail the request.
func trackVisitors(db *gorm.DB, loc geoip.Locator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && visitors.ShouldTrack(c.Request.URL.Path) {
			hit := visitors.Hit{
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				Page:      requestURL(c.Request),
				Referrer:  c.Request.Referer(),
			}
			if _, err := visitors.Record(c.Request.Context(), db, loc, hit); err != nil {
				slog.Warn("visitor tracking failed", "ip", hit.IP, "error", err)
			}
		}
		c.Next()
	}
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// rateLimit throttles by client IP. Limiter errors let the request through.
func rateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !ok {
			respondError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// staffGate requires basic auth on staff routes when accounts are configured.
func staffGate(accounts map[string]string) gin.HandlerFunc {
	if len(accounts) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return gin.BasicAuth(gin.Accounts(accounts))
}
