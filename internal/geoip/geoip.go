// Package geoip resolves visitor IP addresses to a coarse location using an
// ip-api.com compatible JSON endpoint.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the public ip-api.com JSON service.
	DefaultEndpoint = "http://ip-api.com/json"
	defaultTimeout  = 3 * time.Second
	maxBodyBytes    = 64 << 10
)

// Location is a resolved address. Nil fields mean unknown.
type Location struct {
	Country     *string
	CountryCode *string
	City        *string
	Region      *string
}

// Locator resolves an IP address. Implementations never fail: unresolvable
// addresses yield the Unknown location.
type Locator interface {
	Lookup(ctx context.Context, ip string) Location
}

func strPtr(s string) *string { return &s }

// Local is returned for loopback and private LAN addresses.
func Local() Location {
	return Location{
		Country:     strPtr("Local"),
		CountryCode: strPtr("LC"),
		City:        strPtr("Localhost"),
		Region:      strPtr("Local"),
	}
}

// Unknown is returned when a lookup fails.
func Unknown() Location {
	return Location{Country: strPtr("Unknown")}
}

// IsLocal reports whether ip is a loopback or 192.168.* address.
func IsLocal(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1" || strings.HasPrefix(ip, "192.168.")
}

type apiResponse struct {
	Status      string `json:"status"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	City        string `json:"city"`
	RegionName  string `json:"regionName"`
}

// Client queries the location endpoint over HTTP.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for endpoint (DefaultEndpoint when empty).
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

// Lookup implements Locator.
func (c *Client) Lookup(ctx context.Context, ip string) Location {
	if IsLocal(ip) {
		return Local()
	}
	loc, err := c.fetch(ctx, ip)
	if err != nil {
		slog.Warn("geoip lookup failed", "ip", ip, "error", err)
		return Unknown()
	}
	return loc
}

func (c *Client) fetch(ctx context.Context, ip string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+ip, nil)
	if err != nil {
		return Location{}, fmt.Errorf("geoip: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geoip: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geoip: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Location{}, fmt.Errorf("geoip: read body: %w", err)
	}
	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return Location{}, fmt.Errorf("geoip: decode: %w", err)
	}
	if r.Status != "success" {
		return Location{}, fmt.Errorf("geoip: status %q", r.Status)
	}
	return Location{
		Country:     optional(r.Country),
		CountryCode: optional(r.CountryCode),
		City:        optional(r.City),
		Region:      optional(r.RegionName),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Disabled resolves every public address to Unknown without network access.
type Disabled struct{}

// Lookup implements Locator.
func (Disabled) Lookup(_ context.Context, ip string) Location {
	if IsLocal(ip) {
		return Local()
	}
	return Unknown()
}
