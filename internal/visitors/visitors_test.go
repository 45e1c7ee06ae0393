package visitors

import (
	"context"
	"testing"
	"time"

	"github.com/zulandar/storefront/internal/db"
	"github.com/zulandar/storefront/internal/geoip"
	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("ConnectSQLite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	return gdb
}

// mapLocator resolves from a fixed table.
type mapLocator map[string]string

func (m mapLocator) Lookup(_ context.Context, ip string) geoip.Location {
	if c, ok := m[ip]; ok {
		code := c[:2]
		return geoip.Location{Country: &c, CountryCode: &code}
	}
	return geoip.Unknown()
}

func str(s string) *string { return &s }

func TestShouldTrack(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/product/3", true},
		{"/dashboard", false},
		{"/dashboard/products", false},
		{"/orders", false},
		{"/chat/sessions", false},
		{"/api/chat/customer/send", false},
		{"/login", false},
		{"/register", false},
		{"/admin/visitors", false},
	}
	for _, tt := range tests {
		if got := ShouldTrack(tt.path); got != tt.want {
			t.Errorf("ShouldTrack(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRecord(t *testing.T) {
	gdb := openDB(t)
	loc := mapLocator{"8.8.8.8": "United States"}

	v, err := Record(context.Background(), gdb, loc, Hit{
		IP: "8.8.8.8", UserAgent: "curl/8", Page: "http://shop.test/product/1",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if *v.Country != "United States" || *v.CountryCode != "Un" {
		t.Errorf("country = %v/%v", *v.Country, *v.CountryCode)
	}
	if v.Referrer != nil {
		t.Errorf("Referrer = %v, want nil", *v.Referrer)
	}

	unknown, err := Record(context.Background(), gdb, loc, Hit{IP: "1.1.1.1"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if *unknown.Country != "Unknown" || unknown.City != nil || unknown.UserAgent != nil {
		t.Errorf("unknown visitor = %+v", unknown)
	}
}

func seed(t *testing.T, gdb *gorm.DB, ip, country, page string, at time.Time) {
	t.Helper()
	v := models.Visitor{IPAddress: ip, Country: str(country), PageVisited: str(page), CreatedAt: at}
	if err := gdb.Create(&v).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestSummaryAndByCountry(t *testing.T) {
	gdb := openDB(t)
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	seed(t, gdb, "1.1.1.1", "France", "/", yesterday)
	seed(t, gdb, "1.1.1.1", "France", "/product/1", now.Add(-time.Hour))
	seed(t, gdb, "2.2.2.2", "Spain", "/", now.Add(-2*time.Hour))
	seed(t, gdb, "2.2.2.2", "Spain", "/", now.Add(-3*time.Hour))
	seed(t, gdb, "3.3.3.3", "France", "/", yesterday)

	s, err := Summary(gdb, now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := Stats{TotalVisitors: 3, TotalVisits: 5, TodayVisitors: 2, TodayVisits: 3}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}

	top, err := ByCountry(gdb, 1)
	if err != nil {
		t.Fatalf("ByCountry: %v", err)
	}
	if len(top) != 1 || *top[0].Country != "France" || top[0].Visits != 3 {
		t.Errorf("ByCountry = %+v", top)
	}

	recent, err := Recent(gdb, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || *recent[0].PageVisited != "/product/1" {
		t.Errorf("Recent = %+v", recent)
	}
}

func TestList_Filters(t *testing.T) {
	gdb := openDB(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		country := "France"
		if i%4 == 0 {
			country = "Japan"
		}
		seed(t, gdb, "10.0.0.1", country, "/", base.Add(time.Duration(i)*time.Minute))
	}
	seed(t, gdb, "9.9.9.9", "Brazil", "/product/42", base.Add(time.Hour))

	page, err := List(gdb, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 21 || page.PerPage != DefaultPerPage || len(page.Visitors) != 15 || page.LastPage != 2 {
		t.Errorf("default page = total %d per %d len %d last %d", page.Total, page.PerPage, len(page.Visitors), page.LastPage)
	}
	if page.Visitors[0].IPAddress != "9.9.9.9" {
		t.Errorf("first = %s, want newest", page.Visitors[0].IPAddress)
	}

	page, err = List(gdb, Filter{Country: "Japan"})
	if err != nil {
		t.Fatalf("List country: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Japan total = %d, want 5", page.Total)
	}

	page, err = List(gdb, Filter{Search: "product/42"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if page.Total != 1 || page.Visitors[0].IPAddress != "9.9.9.9" {
		t.Errorf("search result = %+v", page)
	}

	page, err = List(gdb, Filter{Search: "Fra", Country: "Japan"})
	if err != nil {
		t.Fatalf("List combined: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("combined total = %d, want 0", page.Total)
	}

	page, err = List(gdb, Filter{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(page.Visitors) != 10 || page.LastPage != 3 {
		t.Errorf("page 2 len %d last %d", len(page.Visitors), page.LastPage)
	}
}
