package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// Product is a catalog entry. Image fields hold URLs; upload storage lives elsewhere.
type Product struct {
	ID                   uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                 string                      `gorm:"size:255;not null" json:"name"`
	Description          string                      `gorm:"type:text;not null" json:"description"`
	MainImage            string                      `gorm:"size:512" json:"main_image"`
	SecondaryImages      datatypes.JSONSlice[string] `json:"secondary_images"`
	Features             datatypes.JSONSlice[string] `json:"features"`
	Colors               datatypes.JSONSlice[string] `json:"colors"`
	Quantity             int                         `gorm:"not null;default:0" json:"quantity"`
	PriceBefore          float64                     `gorm:"type:decimal(10,2);not null" json:"price_before"`
	PriceAfter           float64                     `gorm:"type:decimal(10,2);not null" json:"price_after"`
	IsActive             bool                        `gorm:"not null;index" json:"is_active"`
	PaypalFullPaymentURL string                      `gorm:"size:512" json:"paypal_full_payment_url"`
	PaypalCODPaymentURL  string                      `gorm:"size:512" json:"paypal_cod_payment_url"`
	CreatedAt            time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
}

// DiscountPercentage returns the rounded percentage saved, or 0 without a reference price.
func (p Product) DiscountPercentage() int {
	if p.PriceBefore <= 0 {
		return 0
	}
	return int(math.Round((p.PriceBefore - p.PriceAfter) / p.PriceBefore * 100))
}

// InStock reports whether any units remain.
func (p Product) InStock() bool {
	return p.Quantity > 0
}
