package models

import "time"

// Order is a purchase recorded after the payment provider redirect.
// OrderStatus is a free-form field; no workflow drives it.
type Order struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string    `gorm:"size:32;not null;uniqueIndex" json:"order_number"`
	CustomerName    string    `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail   string    `gorm:"size:255;not null;index" json:"customer_email"`
	CustomerPhone   string    `gorm:"size:20;not null" json:"customer_phone"`
	ShippingAddress string    `gorm:"type:text;not null" json:"shipping_address"`
	ProductName     string    `gorm:"size:255;not null" json:"product_name"`
	ProductColor    *string   `gorm:"size:50" json:"product_color"`
	Quantity        int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice       float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalAmount     float64   `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Currency        string    `gorm:"size:3;default:USD" json:"currency"`
	PaymentMethod   string    `gorm:"size:32;default:paypal" json:"payment_method"`
	PaymentStatus   string    `gorm:"size:32;default:completed" json:"payment_status"`
	PaymentID       *string   `gorm:"size:255" json:"payment_id"`
	OrderStatus     string    `gorm:"size:32;default:pending;index" json:"order_status"`
	Notes           *string   `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
