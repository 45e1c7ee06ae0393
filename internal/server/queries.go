package server

import (
	"time"

	"github.com/zulandar/storefront/internal/models"
	"github.com/zulandar/storefront/internal/orders"
	"github.com/zulandar/storefront/internal/visitors"
	"gorm.io/gorm"
)

// DashboardStats are the headline numbers on the back-office dashboard.
type DashboardStats struct {
	TotalOrders   int64   `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalVisitors int64   `json:"total_visitors"`
	TotalVisits   int64   `json:"total_visits"`
	TodayVisitors int64   `json:"today_visitors"`
	TodayVisits   int64   `json:"today_visits"`
}

// Overview is everything the dashboard shows.
type Overview struct {
	Stats          DashboardStats          `json:"stats"`
	RecentOrders   []models.Order          `json:"recent_orders"`
	CountryStats   []visitors.CountryCount `json:"country_stats"`
	RecentVisitors []models.Visitor        `json:"recent_visitors"`
}

// loadOverview gathers order and traffic figures as of now.
func loadOverview(db *gorm.DB, now time.Time) (*Overview, error) {
	sales, err := orders.Summary(db)
	if err != nil {
		return nil, err
	}
	vs, err := visitors.Summary(db, now)
	if err != nil {
		return nil, err
	}
	recent, err := orders.Recent(db, 5)
	if err != nil {
		return nil, err
	}
	countries, err := visitors.ByCountry(db, 5)
	if err != nil {
		return nil, err
	}
	visits, err := visitors.Recent(db, 10)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Stats: DashboardStats{
			TotalOrders:   sales.TotalOrders,
			TotalRevenue:  sales.TotalRevenue,
			TotalVisitors: vs.TotalVisitors,
			TotalVisits:   vs.TotalVisits,
			TodayVisitors: vs.TodayVisitors,
			TodayVisits:   vs.TodayVisits,
		},
		RecentOrders:   nonNilSlice(recent),
		CountryStats:   nonNilSlice(countries),
		RecentVisitors: nonNilSlice(visits),
	}, nil
}

// nonNilSlice keeps empty lists encoding as [] rather than null.
func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
