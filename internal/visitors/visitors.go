// Package visitors records storefront page views and serves the visitor
// analytics shown in the back office.
package visitors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/storefront/internal/geoip"
	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

// DefaultPerPage is the visitor list page size.
const DefaultPerPage = 15

// untrackedPrefixes are path prefixes never recorded as page views.
var untrackedPrefixes = []string{"dashboard", "orders", "chat", "api/", "login", "register", "admin"}

// ShouldTrack reports whether a request path counts as a storefront page view.
func ShouldTrack(path string) bool {
	p := strings.TrimPrefix(path, "/")
	for _, prefix := range untrackedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return false
		}
	}
	return true
}

// Hit describes one page view.
type Hit struct {
	IP        string
	UserAgent string
	Page      string
	Referrer  string
}

// Record resolves the hit's location and stores it.
func Record(ctx context.Context, db *gorm.DB, loc geoip.Locator, hit Hit) (*models.Visitor, error) {
	where := loc.Lookup(ctx, hit.IP)
	v := models.Visitor{
		IPAddress:   hit.IP,
		Country:     where.Country,
		CountryCode: where.CountryCode,
		City:        where.City,
		Region:      where.Region,
		UserAgent:   optional(hit.UserAgent),
		PageVisited: optional(hit.Page),
		Referrer:    optional(hit.Referrer),
	}
	if err := db.WithContext(ctx).Create(&v).Error; err != nil {
		return nil, fmt.Errorf("visitors: record %s: %w", hit.IP, err)
	}
	return &v, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Stats are the headline visitor counters.
type Stats struct {
	TotalVisitors int64 `json:"total_visitors"`
	TotalVisits   int64 `json:"total_visits"`
	TodayVisitors int64 `json:"today_visitors"`
	TodayVisits   int64 `json:"today_visits"`
}

// startOfDay returns midnight of t in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Summary counts unique IPs and visits overall and since midnight.
func Summary(db *gorm.DB, now time.Time) (Stats, error) {
	var s Stats
	today := startOfDay(now)

	if err := db.Model(&models.Visitor{}).Distinct("ip_address").Count(&s.TotalVisitors).Error; err != nil {
		return Stats{}, fmt.Errorf("visitors: stats: %w", err)
	}
	if err := db.Model(&models.Visitor{}).Count(&s.TotalVisits).Error; err != nil {
		return Stats{}, fmt.Errorf("visitors: stats: %w", err)
	}
	if err := db.Model(&models.Visitor{}).Where("created_at >= ?", today).
		Distinct("ip_address").Count(&s.TodayVisitors).Error; err != nil {
		return Stats{}, fmt.Errorf("visitors: stats: %w", err)
	}
	if err := db.Model(&models.Visitor{}).Where("created_at >= ?", today).
		Count(&s.TodayVisits).Error; err != nil {
		return Stats{}, fmt.Errorf("visitors: stats: %w", err)
	}
	return s, nil
}

// CountryCount is the number of visits from one country.
type CountryCount struct {
	Country     *string `json:"country"`
	CountryCode *string `json:"country_code"`
	Visits      int64   `json:"visits"`
}

// ByCountry returns the limit countries with the most visits.
func ByCountry(db *gorm.DB, limit int) ([]CountryCount, error) {
	var out []CountryCount
	if err := db.Model(&models.Visitor{}).
		Select("country, country_code, COUNT(*) AS visits").
		Group("country, country_code").
		Order("visits DESC").
		Limit(limit).
		Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("visitors: by country: %w", err)
	}
	return out, nil
}

// Recent returns the limit most recent visits.
func Recent(db *gorm.DB, limit int) ([]models.Visitor, error) {
	var out []models.Visitor
	if err := db.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("visitors: recent: %w", err)
	}
	return out, nil
}

// Filter narrows the visitor list.
type Filter struct {
	Search  string // substring of ip, country, city or page
	Country string // exact country
	Page    int
	PerPage int
}

// Page is one page of visits.
type Page struct {
	Visitors    []models.Visitor `json:"data"`
	CurrentPage int              `json:"current_page"`
	PerPage     int              `json:"per_page"`
	Total       int64            `json:"total"`
	LastPage    int              `json:"last_page"`
}

// List returns visits newest first matching f.
func List(db *gorm.DB, f Filter) (*Page, error) {
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	q := db.Model(&models.Visitor{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("ip_address LIKE ? OR country LIKE ? OR city LIKE ? OR page_visited LIKE ?", like, like, like, like)
	}
	if f.Country != "" {
		q = q.Where("country = ?", f.Country)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("visitors: count: %w", err)
	}
	var out []models.Visitor
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.PerPage).Limit(f.PerPage).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("visitors: list: %w", err)
	}

	lastPage := int((total + int64(f.PerPage) - 1) / int64(f.PerPage))
	if lastPage == 0 {
		lastPage = 1
	}
	return &Page{Visitors: out, CurrentPage: f.Page, PerPage: f.PerPage, Total: total, LastPage: lastPage}, nil
}
