package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/storefront/internal/alerts"
	"github.com/zulandar/storefront/internal/catalog"
	"github.com/zulandar/storefront/internal/geoip"
	"github.com/zulandar/storefront/internal/models"
	"gorm.io/gorm"
)

func createProduct(t *testing.T, gdb *gorm.DB, name string, active bool) *models.Product {
	t.Helper()
	qty, before, after := 5, 1000.0, 600.0
	p, err := catalog.Create(gdb, catalog.Input{
		Name: name, Description: "d", MainImage: "/img/" + name + ".jpg",
		Quantity: &qty, PriceBefore: &before, PriceAfter: &after, IsActive: &active,
	})
	if err != nil {
		t.Fatalf("catalog.Create: %v", err)
	}
	return p
}

func orderBody(email string) map[string]any {
	return map[string]any{
		"customer_name":    "Ann",
		"customer_email":   email,
		"customer_phone":   "+15550100",
		"shipping_address": "1 Main St",
		"product_name":     "Phone",
		"product_color":    "Orange",
		"quantity":         2,
		"unit_price":       559.0,
		"total_amount":     1118.0,
		"payment_id":       "PAY-1",
	}
}

func TestHome_CardsAndTracking(t *testing.T) {
	country := "Spain"
	r, gdb := testServer(t, StartOpts{Locator: fixedLocator{geoip.Location{Country: &country}}})
	for i := 0; i < 10; i++ {
		createProduct(t, gdb, fmt.Sprintf("p%d", i), true)
	}
	createProduct(t, gdb, "hidden", false)

	got := do(t, r, http.MethodGet, "/", nil, func(req *http.Request) {
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Referer", "https://search.example/")
	})
	if got.Code != http.StatusOK || got.Body["page"] != "Home" {
		t.Fatalf("home = %d %v", got.Code, got.Body)
	}
	cards := got.Body["props"].(map[string]any)["products"].([]any)
	if len(cards) != homeCards {
		t.Errorf("cards = %d, want %d", len(cards), homeCards)
	}
	for _, c := range cards {
		if c.(map[string]any)["name"] == "hidden" {
			t.Error("inactive product on home page")
		}
	}

	var v models.Visitor
	if err := gdb.First(&v).Error; err != nil {
		t.Fatalf("no visit recorded: %v", err)
	}
	if v.Country == nil || *v.Country != "Spain" || v.UserAgent == nil || *v.UserAgent != "test-agent" {
		t.Errorf("visit = %+v", v)
	}
	if v.PageVisited == nil || !strings.HasSuffix(*v.PageVisited, "/") {
		t.Errorf("page_visited = %v", v.PageVisited)
	}

	// API calls are not page views.
	do(t, r, http.MethodGet, "/api/timer/status", nil)
	var count int64
	gdb.Model(&models.Visitor{}).Count(&count)
	if count != 1 {
		t.Errorf("visits = %d, want 1", count)
	}
}

func TestProductPage(t *testing.T) {
	r, gdb := testServer(t, StartOpts{})
	p := createProduct(t, gdb, "Phone", true)

	got := do(t, r, http.MethodGet, fmt.Sprintf("/product/%d", p.ID), nil)
	if got.Code != http.StatusOK || got.Body["page"] != "Product" {
		t.Fatalf("product = %d %v", got.Code, got.Body)
	}
	detail := got.Body["props"].(map[string]any)["product"].(map[string]any)
	if detail["name"] != "Phone" {
		t.Errorf("detail = %v", detail)
	}

	for _, path := range []string{"/product/9999", "/product/abc"} {
		if got := do(t, r, http.MethodGet, path, nil); got.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, got.Code)
		}
	}
}

func TestTimerStatus(t *testing.T) {
	r, _ := testServer(t, StartOpts{})
	got := do(t, r, http.MethodGet, "/api/timer/status", nil)
	tm := got.Body["timer"].(map[string]any)
	if tm["is_active"] != true {
		t.Errorf("timer = %v", tm)
	}
	end, err := time.Parse(time.RFC3339, tm["end_time"].(string))
	if err != nil {
		t.Fatalf("end_time: %v", err)
	}
	if d := time.Until(end); d < 47*time.Hour || d > 49*time.Hour {
		t.Errorf("end_time %v is not about 48h away", end)
	}
}

func TestCreateOrderAndSearch(t *testing.T) {
	n := newRecordingNotifier()
	r, _ := testServer(t, StartOpts{Notifier: n})

	got := do(t, r, http.MethodPost, "/orders", orderBody("ann@example.com"))
	if got.Code != http.StatusOK || got.Body["message"] != "Order created successfully" {
		t.Fatalf("create = %d %v", got.Code, got.Body)
	}
	order := got.Body["order"].(map[string]any)
	if !strings.HasPrefix(order["order_number"].(string), "ORD-") || order["order_status"] != "pending" {
		t.Errorf("order = %v", order)
	}
	select {
	case <-n.got:
		n.mu.Lock()
		if n.alerts[0].Color != alerts.ColorOrder {
			t.Errorf("alert = %+v", n.alerts[0])
		}
		n.mu.Unlock()
	case <-time.After(2 * time.Second):
		t.Fatal("no order alert")
	}

	got = do(t, r, http.MethodPost, "/api/orders/search", map[string]any{"email": "ann@example.com"})
	if got.Body["success"] != true || got.Body["message"] != "Order found" {
		t.Errorf("search = %v", got.Body)
	}

	got = do(t, r, http.MethodPost, "/api/orders/search", map[string]any{"email": "bob@example.com"})
	if got.Code != http.StatusOK || got.Body["success"] != false ||
		got.Body["message"] != "No orders found for this email address" {
		t.Errorf("search miss = %d %v", got.Code, got.Body)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	r, _ := testServer(t, StartOpts{})

	body := orderBody("not-an-email")
	delete(body, "customer_name")
	body["quantity"] = 0

	got := do(t, r, http.MethodPost, "/orders", body)
	if got.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", got.Code)
	}
	want := map[string]string{
		"customer_name":  "The customer name field is required.",
		"customer_email": "The customer email field must be a valid email address.",
		"quantity":       "The quantity field is required.",
	}
	for field, msg := range want {
		if got := fieldErrors(got, field); len(got) != 1 || got[0] != msg {
			t.Errorf("errors[%s] = %v, want %q", field, got, msg)
		}
	}
}
