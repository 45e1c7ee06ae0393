// Package catalog manages storefront products.
package catalog

import (
	"errors"
	"fmt"

	"github.com/zulandar/storefront/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// hotDealThreshold is the discount above which a card is badged "Hot Deal".
const hotDealThreshold = 30

// Input is the writable part of a product. Binding tags are enforced by the
// HTTP layer.
type Input struct {
	Name                 string   `json:"name" binding:"required,max=255"`
	Description          string   `json:"description" binding:"required"`
	MainImage            string   `json:"main_image" binding:"required,max=512"`
	SecondaryImages      []string `json:"secondary_images"`
	Features             []string `json:"features"`
	Colors               []string `json:"colors"`
	Quantity             *int     `json:"quantity" binding:"required,min=0"`
	PriceBefore          *float64 `json:"price_before" binding:"required,min=0"`
	PriceAfter           *float64 `json:"price_after" binding:"required,min=0"`
	IsActive             *bool    `json:"is_active"`
	PaypalFullPaymentURL string   `json:"paypal_full_payment_url" binding:"omitempty,url,max=512"`
	PaypalCODPaymentURL  string   `json:"paypal_cod_payment_url" binding:"omitempty,url,max=512"`
}

// apply copies the input onto p. A missing is_active leaves the current value,
// which for a new product is active.
func (in Input) apply(p *models.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.MainImage = in.MainImage
	p.SecondaryImages = datatypes.JSONSlice[string](nonNil(in.SecondaryImages))
	p.Features = datatypes.JSONSlice[string](nonNil(in.Features))
	p.Colors = datatypes.JSONSlice[string](nonNil(in.Colors))
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.PriceBefore != nil {
		p.PriceBefore = *in.PriceBefore
	}
	if in.PriceAfter != nil {
		p.PriceAfter = *in.PriceAfter
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.PaypalFullPaymentURL = in.PaypalFullPaymentURL
	p.PaypalCODPaymentURL = in.PaypalCODPaymentURL
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Card is the home page summary of a product.
type Card struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
	Image         string  `json:"image"`
	Badge         string  `json:"badge"`
	Discount      int     `json:"discount"`
	InStock       bool    `json:"inStock"`
}

// defaultCategory labels every card; products carry no category.
const defaultCategory = "Electronics"

// NewCard builds the home page card for p.
func NewCard(p models.Product) Card {
	badge := "New"
	if p.DiscountPercentage() > hotDealThreshold {
		badge = "Hot Deal"
	}
	return Card{
		ID:            p.ID,
		Name:          p.Name,
		Category:      defaultCategory,
		Price:         p.PriceAfter,
		OriginalPrice: p.PriceBefore,
		Image:         p.MainImage,
		Badge:         badge,
		Discount:      p.DiscountPercentage(),
		InStock:       p.InStock(),
	}
}

// Detail is the product page view.
type Detail struct {
	ID                   uint     `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	MainImage            string   `json:"mainImage"`
	SecondaryImages      []string `json:"secondaryImages"`
	Features             []string `json:"features"`
	Colors               []string `json:"colors"`
	Quantity             int      `json:"quantity"`
	PriceBefore          float64  `json:"priceBefore"`
	PriceAfter           float64  `json:"priceAfter"`
	Discount             int      `json:"discount"`
	PaypalFullPaymentURL string   `json:"paypal_full_payment_url"`
	PaypalCODPaymentURL  string   `json:"paypal_cod_payment_url"`
}

// NewDetail builds the product page view for p.
func NewDetail(p models.Product) Detail {
	return Detail{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		MainImage:            p.MainImage,
		SecondaryImages:      nonNil(p.SecondaryImages),
		Features:             nonNil(p.Features),
		Colors:               nonNil(p.Colors),
		Quantity:             p.Quantity,
		PriceBefore:          p.PriceBefore,
		PriceAfter:           p.PriceAfter,
		Discount:             p.DiscountPercentage(),
		PaypalFullPaymentURL: p.PaypalFullPaymentURL,
		PaypalCODPaymentURL:  p.PaypalCODPaymentURL,
	}
}

// Featured returns up to limit active products, newest first.
func Featured(db *gorm.DB, limit int) ([]models.Product, error) {
	var products []models.Product
	if err := db.Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("catalog: featured: %w", err)
	}
	return products, nil
}

// List returns every product, newest first.
func List(db *gorm.DB) ([]models.Product, error) {
	var products []models.Product
	if err := db.Order("created_at DESC, id DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return products, nil
}

// Get loads a product by id.
func Get(db *gorm.DB, id uint) (*models.Product, error) {
	var p models.Product
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new product.
func Create(db *gorm.DB, in Input) (*models.Product, error) {
	p := models.Product{IsActive: true}
	in.apply(&p)
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("catalog: create %q: %w", in.Name, err)
	}
	return &p, nil
}

// Update replaces the writable fields of an existing product.
func Update(db *gorm.DB, id uint, in Input) (*models.Product, error) {
	p, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := db.Save(p).Error; err != nil {
		return nil, fmt.Errorf("catalog: update %d: %w", id, err)
	}
	return p, nil
}

// Delete removes a product.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("catalog: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
