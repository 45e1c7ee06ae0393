package server

import (
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all routes on the gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	db := opts.DB
	staff := staffGate(opts.StaffAccounts)
	throttle := rateLimit(opts.Limiter)
	track := trackVisitors(db, opts.Locator)

	// Storefront pages.
	router.GET("/", track, handleHome(db))
	router.GET("/product/:id", track, handleProduct(db))

	// Storefront API.
	router.GET("/api/timer/status", handleTimerStatus(db))
	router.POST("/orders", throttle, handleCreateOrder(db, opts.Notifier, opts.AlertTimeout))
	router.POST("/api/orders/search", handleSearchOrders(db))

	// Chat: customer side.
	router.POST("/api/chat/customer/send", throttle, handleCustomerSend(db, opts.Notifier, opts.AlertTimeout))
	router.GET("/api/chat/:sessionId/admin-responses", handleAdminResponses(db))
	router.GET("/api/chat/:sessionId/admin-status", handleAdminStatus(opts.Presence))

	// Chat: staff side.
	router.GET("/api/chat/sessions", staff, handleChatSessions(db))
	router.GET("/api/chat/unread-count", staff, handleUnreadCount(db))
	router.GET("/api/chat/:sessionId/messages", staff, handleChatMessages(db))
	router.POST("/api/chat/send", staff, handleStaffSend(db))
	router.POST("/api/chat/presence", staff, handlePresenceHeartbeat(opts.Presence))
	router.DELETE("/api/chat/:sessionId", staff, handleDeleteSession(db))

	// Back office.
	admin := router.Group("/api/admin", staff)
	admin.GET("/dashboard", handleDashboard(db))
	admin.GET("/products", handleListProducts(db))
	admin.POST("/products", handleCreateProduct(db))
	admin.PUT("/products/:id", handleUpdateProduct(db))
	admin.DELETE("/products/:id", handleDeleteProduct(db))
	admin.GET("/orders", handleListOrders(db))
	admin.PATCH("/orders/:id/status", handleUpdateOrderStatus(db))
	admin.GET("/visitors", handleListVisitors(db))
}
