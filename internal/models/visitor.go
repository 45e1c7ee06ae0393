package models

import "time"

// Visitor records a single storefront page view.
type Visitor struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	IPAddress   string    `gorm:"size:64;not null;index:idx_visitor_ip_created" json:"ip_address"`
	Country     *string   `gorm:"size:128;index" json:"country"`
	CountryCode *string   `gorm:"size:8" json:"country_code"`
	City        *string   `gorm:"size:128" json:"city"`
	Region      *string   `gorm:"size:128" json:"region"`
	UserAgent   *string   `gorm:"size:512" json:"user_agent"`
	PageVisited *string   `gorm:"size:1024" json:"page_visited"`
	Referrer    *string   `gorm:"size:1024" json:"referrer"`
	CreatedAt   time.Time `gorm:"index:idx_visitor_ip_created" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
