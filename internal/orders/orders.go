// Package orders records purchases made through the payment provider
// redirect and serves the back-office order views.
package orders

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no order matches.
var ErrNotFound = errors.New("orders: not found")

const (
	defaultCurrency      = "USD"
	defaultPaymentMethod = "paypal"
	defaultPaymentStatus = "completed"
	defaultOrderStatus   = "pending"

	// maxNumberAttempts bounds order number redraws.
	maxNumberAttempts = 10
)

var now = time.Now

// Input is a new order as submitted after payment.
type Input struct {
	CustomerName    string   `json:"customer_name" binding:"required,max=255"`
	CustomerEmail   string   `json:"customer_email" binding:"required,email,max=255"`
	CustomerPhone   string   `json:"customer_phone" binding:"required,max=20"`
	ShippingAddress string   `json:"shipping_address" binding:"required"`
	ProductName     string   `json:"product_name" binding:"required,max=255"`
	ProductColor    *string  `json:"product_color" binding:"omitempty,max=50"`
	Quantity        int      `json:"quantity" binding:"required,min=1"`
	UnitPrice       *float64 `json:"unit_price" binding:"required,min=0"`
	TotalAmount     *float64 `json:"total_amount" binding:"required,min=0"`
	PaymentID       *string  `json:"payment_id" binding:"omitempty,max=255"`
}

// NewOrderNumber returns ORD-YYYYMMDD-XXXXXX with six random upper-case hex digits.
func NewOrderNumber(t time.Time) (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("orders: random: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// uniqueOrderNumber draws order numbers until one is unused.
func uniqueOrderNumber(db *gorm.DB) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number, err := NewOrderNumber(now())
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
			return "", fmt.Errorf("orders: check number: %w", err)
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", fmt.Errorf("orders: no free order number after %d attempts", maxNumberAttempts)
}

// Create stores a paid order with the provider defaults.
func Create(db *gorm.DB, in Input) (*models.Order, error) {
	number, err := uniqueOrderNumber(db)
	if err != nil {
		return nil, err
	}
	o := models.Order{
		OrderNumber:     number,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		ShippingAddress: in.ShippingAddress,
		ProductName:     in.ProductName,
		ProductColor:    in.ProductColor,
		Quantity:        in.Quantity,
		Currency:        defaultCurrency,
		PaymentMethod:   defaultPaymentMethod,
		PaymentStatus:   defaultPaymentStatus,
		PaymentID:       in.PaymentID,
		OrderStatus:     defaultOrderStatus,
	}
	if in.UnitPrice != nil {
		o.UnitPrice = *in.UnitPrice
	}
	if in.TotalAmount != nil {
		o.TotalAmount = *in.TotalAmount
	}
	if err := db.Create(&o).Error; err != nil {
		return nil, fmt.Errorf("orders: create %s: %w", number, err)
	}
	return &o, nil
}

// LatestByEmail returns the customer's most recent order.
func LatestByEmail(db *gorm.DB, email string) (*models.Order, error) {
	var list []models.Order
	if err := db.Where("customer_email = ?", email).
		Order("created_at DESC, id DESC").Limit(1).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("orders: search %s: %w", email, err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// Page is one page of orders.
type Page struct {
	Orders      []models.Order `json:"data"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
	Total       int64          `json:"total"`
	LastPage    int            `json:"last_page"`
}

// List returns orders newest first, paginated from page 1.
func List(db *gorm.DB, page, perPage int) (*Page, error) {
	if perPage <= 0 {
		perPage = 15
	}
	if page <= 0 {
		page = 1
	}
	var total int64
	if err := db.Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("orders: count: %w", err)
	}
	var list []models.Order
	if err := db.Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage == 0 {
		lastPage = 1
	}
	return &Page{Orders: list, CurrentPage: page, PerPage: perPage, Total: total, LastPage: lastPage}, nil
}

// Recent returns the n newest orders.
func Recent(db *gorm.DB, n int) ([]models.Order, error) {
	var list []models.Order
	if err := db.Order("created_at DESC, id DESC").Limit(n).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("orders: recent: %w", err)
	}
	return list, nil
}

// Stats summarises all orders.
type Stats struct {
	TotalOrders  int64   `json:"total_orders"`
	TotalRevenue float64 `json:"total_revenue"`
}

// Summary returns the order count and revenue.
func Summary(db *gorm.DB) (Stats, error) {
	var s Stats
	if err := db.Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(total_amount), 0) AS total_revenue").
		Scan(&s).Error; err != nil {
		return Stats{}, fmt.Errorf("orders: stats: %w", err)
	}
	return s, nil
}

// UpdateStatus sets an order's free-form status.
func UpdateStatus(db *gorm.DB, id uint, status string) (*models.Order, error) {
	if strings.TrimSpace(status) == "" {
		return nil, fmt.Errorf("orders: status is required")
	}
	var o models.Order
	if err := db.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("orders: load %d: %w", id, err)
	}
	if err := db.Model(&o).Update("order_status", status).Error; err != nil {
		return nil, fmt.Errorf("orders: update status %d: %w", id, err)
	}
	return &o, nil
}
