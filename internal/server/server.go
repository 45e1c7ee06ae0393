// Package server exposes the storefront, chat and back-office JSON API over
// HTTP using gin.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/storefront/internal/alerts"
	"github.com/zulandar/storefront/internal/chat"
	"github.com/zulandar/storefront/internal/geoip"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	DB   *gorm.DB
	Port int
	Out  io.Writer

	Presence      chat.Presence     // staff availability; activity-based when nil
	Locator       geoip.Locator     // visitor geolocation; no lookups when nil
	Notifier      alerts.Notifier   // staff alerts; none when nil
	AlertTimeout  time.Duration     // per-alert delivery bound
	Limiter       Limiter           // public write throttle; unlimited when nil
	StaffAccounts map[string]string // basic auth for staff routes; open when empty
}

// withDefaults fills optional collaborators.
func (o StartOpts) withDefaults() StartOpts {
	if o.Port <= 0 {
		o.Port = 8080
	}
	if o.Presence == nil {
		o.Presence = chat.NewActivityPresence(o.DB, 5*time.Minute, nil)
	}
	if o.Locator == nil {
		o.Locator = geoip.Disabled{}
	}
	if o.Notifier == nil {
		o.Notifier = alerts.Nop{}
	}
	return o
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	opts = opts.withDefaults()

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(opts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Storefront running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// newRouter builds the gin engine with middleware and routes.
func newRouter(opts StartOpts) *gin.Engine {
	registerValidatorTags()

	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())
	registerRoutes(router, opts)
	return router
}
