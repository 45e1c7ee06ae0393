package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/storefront/internal/catalog"
	"github.com/zulandar/storefront/internal/orders"
	"github.com/zulandar/storefront/internal/visitors"
	"gorm.io/gorm"
)

// maxPerPage caps caller-chosen page sizes.
const maxPerPage = 100

type orderStatusRequest struct {
	OrderStatus string `json:"order_status" binding:"required,max=32"`
}

func handleDashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ov, err := loadOverview(db, time.Now())
		if err != nil {
			respondInternal(c, "Error loading dashboard", err)
			return
		}
		respondOK(c, gin.H{
			"stats":           ov.Stats,
			"recent_orders":   ov.RecentOrders,
			"country_stats":   ov.CountryStats,
			"recent_visitors": ov.RecentVisitors,
		})
	}
}

func handleListProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := catalog.List(db)
		if err != nil {
			respondInternal(c, "Error loading products", err)
			return
		}
		respondOK(c, gin.H{"products": nonNilSlice(products)})
	}
}

func handleCreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			respondInvalid(c, err)
			return
		}
		p, err := catalog.Create(db, in)
		if err != nil {
			respondInternal(c, "Error creating product", err)
			return
		}
		respondStatus(c, http.StatusCreated, gin.H{"product": p, "message": "Product created successfully."})
	}
}

func handleUpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		var in catalog.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			respondInvalid(c, err)
			return
		}
		p, err := catalog.Update(db, id, in)
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		if err != nil {
			respondInternal(c, "Error updating product", err)
			return
		}
		respondOK(c, gin.H{"product": p, "message": "Product updated successfully."})
	}
}

func handleDeleteProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		err := catalog.Delete(db, id)
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		if err != nil {
			respondInternal(c, "Error deleting product", err)
			return
		}
		respondOK(c, gin.H{"message": "Product deleted successfully."})
	}
}

func handleListOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := orders.List(db, queryInt(c, "page"), clampPerPage(queryInt(c, "per_page")))
		if err != nil {
			respondInternal(c, "Error loading orders", err)
			return
		}
		stats, err := orders.Summary(db)
		if err != nil {
			respondInternal(c, "Error loading orders", err)
			return
		}
		page.Orders = nonNilSlice(page.Orders)
		respondOK(c, gin.H{"orders": page, "stats": stats})
	}
}

func handleUpdateOrderStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		var req orderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
		o, err := orders.UpdateStatus(db, id, req.OrderStatus)
		if errors.Is(err, orders.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		if err != nil {
			respondInternal(c, "Error updating order", err)
			return
		}
		respondOK(c, gin.H{"order": o, "message": "Order status updated successfully."})
	}
}

func handleListVisitors(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		perPage := queryInt(c, "per_page")
		if perPage <= 0 {
			perPage = visitors.DefaultPerPage
		}
		f := visitors.Filter{
			Search:  c.Query("search"),
			Country: c.Query("country"),
			Page:    queryInt(c, "page"),
			PerPage: clampPerPage(perPage),
		}
		page, err := visitors.List(db, f)
		if err != nil {
			respondInternal(c, "Error loading visitors", err)
			return
		}
		stats, err := visitors.Summary(db, time.Now())
		if err != nil {
			respondInternal(c, "Error loading visitors", err)
			return
		}
		top, err := visitors.ByCountry(db, 10)
		if err != nil {
			respondInternal(c, "Error loading visitors", err)
			return
		}
		page.Visitors = nonNilSlice(page.Visitors)
		respondOK(c, gin.H{
			"visitors":      page,
			"stats":         stats,
			"top_countries": nonNilSlice(top),
			"filters": gin.H{
				"search":   f.Search,
				"country":  f.Country,
				"per_page": f.PerPage,
			},
		})
	}
}

// queryInt reads a non-negative integer query parameter; anything else is 0.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func clampPerPage(n int) int {
	if n > maxPerPage {
		return maxPerPage
	}
	return n
}
