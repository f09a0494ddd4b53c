// Package geocode is the default GeocodingService: turns GPS
// coordinates into place names via reverse geocoding against OpenStreetMap
// Nominatim, with a SQLite cache in front so a day of shooting in one city
// costs one network round trip.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/util"
)

const (
	// BaseURL is the Nominatim reverse-geocoding endpoint.
	BaseURL = "https://nominatim.openstreetmap.org/reverse"

	// UserAgent identifies this application, as Nominatim's usage policy requires.
	UserAgent = "PhotoCopy/1.0 (https://github.com/adsamcik/photocopy)"

	// RateLimit is the minimum delay between requests (Nominatim's usage policy).
	RateLimit = 1 * time.Second
)

// Client is a rate-limited Nominatim reverse-geocoding client.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	rateLimiter *time.Ticker
}

// NewClient creates a Client ready to use.
func NewClient() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		userAgent:   UserAgent,
		rateLimiter: time.NewTicker(RateLimit),
	}
}

// Close releases the client's rate limiter.
func (c *Client) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
}

type nominatimResponse struct {
	Address struct {
		Suburb      string `json:"suburb"`
		CityDistrict string `json:"city_district"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		County      string `json:"county"`
		State       string `json:"state"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Reverse implements ports.GeocodingService against the live Nominatim API.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*model.LocationData, error) {
	select {
	case <-c.rateLimiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("format", "json")
	q.Set("zoom", "14")

	urlStr := BaseURL + "?" + q.Encode()
	util.DebugLog("geocode: reverse lookup (%f, %f)", lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	city := parsed.Address.City
	if city == "" {
		city = parsed.Address.Town
	}
	if city == "" {
		city = parsed.Address.Village
	}
	district := parsed.Address.Suburb
	if district == "" {
		district = parsed.Address.CityDistrict
	}

	return &model.LocationData{
		District:    district,
		City:        city,
		County:      parsed.Address.County,
		State:       parsed.Address.State,
		Country:     parsed.Address.Country,
		CountryCode: parsed.Address.CountryCode,
	}, nil
}
