package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/storefront/internal/alerts"
	"github.com/zulandar/storefront/internal/catalog"
	"github.com/zulandar/storefront/internal/orders"
	"github.com/zulandar/storefront/internal/timer"
	"gorm.io/gorm"
)

// homeCards is the number of products on the home page.
const homeCards = 8

type orderSearchRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// respondPage writes the props for a client-rendered page.
func respondPage(c *gin.Context, page string, props gin.H) {
	respondOK(c, gin.H{"page": page, "props": props})
}

func handleHome(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := catalog.Featured(db, homeCards)
		if err != nil {
			respondInternal(c, "Error loading products", err)
			return
		}
		cards := make([]catalog.Card, 0, len(products))
		for _, p := range products {
			cards = append(cards, catalog.NewCard(p))
		}
		respondPage(c, "Home", gin.H{"products": cards})
	}
}

func handleProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		p, err := catalog.Get(db, id)
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		if err != nil {
			respondInternal(c, "Error loading product", err)
			return
		}
		respondPage(c, "Product", gin.H{"product": catalog.NewDetail(*p)})
	}
}

func handleTimerStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts, err := timer.Current(db)
		if err != nil {
			respondInternal(c, "Error loading timer", err)
			return
		}
		respondOK(c, gin.H{"timer": gin.H{
			"is_active": ts.IsActive,
			"end_time":  ts.EndTime.UTC().Format(time.RFC3339),
		}})
	}
}

func handleCreateOrder(db *gorm.DB, n alerts.Notifier, alertTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in orders.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			respondInvalid(c, err)
			return
		}
		o, err := orders.Create(db, in)
		if err != nil {
			respondInternal(c, "Error creating order", err)
			return
		}
		alerts.Dispatch(n, alerts.OrderCreated(*o), alertTimeout)
		respondOK(c, gin.H{"order": o, "message": "Order created successfully"})
	}
}

func handleSearchOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orderSearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
		o, err := orders.LatestByEmail(db, req.Email)
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "No orders found for this email address"})
			return
		}
		if err != nil {
			respondInternal(c, "Error searching orders", err)
			return
		}
		respondOK(c, gin.H{"order": o, "message": "Order found"})
	}
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
