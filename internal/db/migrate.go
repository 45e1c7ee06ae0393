package db

import (
	"fmt"
	"time"

	"github.com/zulandar/storefront/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AllModels returns every GORM model managed by the storefront.
func AllModels() []interface{} {
	return []interface{}{
		&models.ChatMessage{},
		&models.Order{},
		&models.Product{},
		&models.Visitor{},
		&models.TimerSetting{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedTimer inserts the countdown row when none exists, ending hours from now.
// It reports whether a row was created.
func SeedTimer(db *gorm.DB, hours int, now time.Time) (bool, error) {
	var count int64
	if err := db.Model(&models.TimerSetting{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("db: seed timer: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	ts := models.TimerSetting{
		IsActive: true,
		EndTime:  now.Add(time.Duration(hours) * time.Hour),
	}
	if err := db.Create(&ts).Error; err != nil {
		return false, fmt.Errorf("db: seed timer: %w", err)
	}
	return true, nil
}

// DemoProducts is the starter catalog written by `sf db seed`.
func DemoProducts() []models.Product {
	return []models.Product{
		{
			Name:        "Apple iPhone 17 Pro Max 512 GB",
			Description: "A18 Pro chip, pro camera system with 5x optical zoom and a titanium design.",
			MainImage:   "/images/orange_2.png",
			SecondaryImages: datatypes.JSONSlice[string]{
				"/images/orange_1.png", "/images/blue_1.png", "/images/blue_2.png", "/images/white_1.png",
			},
			Features: datatypes.JSONSlice[string]{
				"A18 Pro chip with 6-core CPU",
				"6.9-inch Super Retina XDR display",
				"Pro camera system with 5x optical zoom",
				"Titanium design",
				"Up to 40 hours battery life",
				"USB-C charging",
			},
			Colors:      datatypes.JSONSlice[string]{"Orange", "Gray", "White"},
			Quantity:    50,
			PriceBefore: 1119.00,
			PriceAfter:  559.00,
			IsActive:    true,
		},
		{
			Name:            "Apple iPhone 17 Pro 256 GB",
			Description:     "A18 Pro performance and the advanced camera system in a compact design.",
			MainImage:       "/images/blue_1.png",
			SecondaryImages: datatypes.JSONSlice[string]{"/images/blue_2.png", "/images/orange_1.png"},
			Features: datatypes.JSONSlice[string]{
				"A18 Pro chip with 6-core CPU",
				"6.3-inch Super Retina XDR display",
				"Pro camera system with 3x optical zoom",
				"Up to 30 hours battery life",
			},
			Colors:      datatypes.JSONSlice[string]{"Space Gray", "Silver", "Gold"},
			Quantity:    30,
			PriceBefore: 899.00,
			PriceAfter:  449.00,
			IsActive:    true,
		},
	}
}

// SeedProducts inserts each product whose name is not already in the catalog.
// It returns the number of rows created.
func SeedProducts(db *gorm.DB, products []models.Product) (int, error) {
	created := 0
	for i := range products {
		p := products[i]
		var count int64
		if err := db.Model(&models.Product{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
			return created, fmt.Errorf("db: seed product %q: %w", p.Name, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			return created, fmt.Errorf("db: seed product %q: %w", p.Name, err)
		}
		created++
	}
	return created, nil
}
