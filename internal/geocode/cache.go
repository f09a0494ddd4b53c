package geocode

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/util"
)

// roundPrecision rounds coordinates to 3 decimal places (~110m) before
// using them as a cache key, so nearby shots from the same outing share
// one reverse-geocode lookup rather than each paying the network round trip.
const roundPrecision = 1000

// Cache is a coordinate-rounded reverse-geocode cache backed by SQLite.
type Cache struct {
	db       *sql.DB
	upstream *Client
}

// NewCache wires a Cache in front of upstream. db must already be open;
// EnsureSchema must be called once before use.
func NewCache(db *sql.DB, upstream *Client) *Cache {
	return &Cache{db: db, upstream: upstream}
}

// EnsureSchema creates the cache table if it doesn't exist.
func (c *Cache) EnsureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		lat_bucket INTEGER NOT NULL,
		lon_bucket INTEGER NOT NULL,
		district TEXT,
		city TEXT,
		county TEXT,
		state TEXT,
		country TEXT,
		country_code TEXT,
		hit_count INTEGER DEFAULT 0,
		PRIMARY KEY (lat_bucket, lon_bucket)
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("geocode: create cache table: %w", err)
	}
	return nil
}

func bucket(v float64) int {
	return int(math.Round(v * roundPrecision))
}

// Reverse implements ports.GeocodingService, consulting the cache before
// falling back to the upstream client.
func (c *Cache) Reverse(ctx context.Context, lat, lon float64) (*model.LocationData, error) {
	latB, lonB := bucket(lat), bucket(lon)

	if loc, ok := c.lookup(latB, lonB); ok {
		return loc, nil
	}

	util.DebugLog("geocode cache miss: (%f, %f)", lat, lon)
	loc, err := c.upstream.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if err := c.store(latB, lonB, loc); err != nil {
		util.WarnLog("geocode: failed to cache reverse-geocode result: %v", err)
	}
	return loc, nil
}

func (c *Cache) lookup(latB, lonB int) (*model.LocationData, bool) {
	row := c.db.QueryRow(`
		SELECT district, city, county, state, country, country_code
		FROM geocode_cache WHERE lat_bucket = ? AND lon_bucket = ?`, latB, lonB)

	var loc model.LocationData
	var district, city, county, state, country, code sql.NullString
	if err := row.Scan(&district, &city, &county, &state, &country, &code); err != nil {
		return nil, false
	}
	loc.District, loc.City, loc.County = district.String, city.String, county.String
	loc.State, loc.Country, loc.CountryCode = state.String, country.String, code.String

	c.db.Exec(`UPDATE geocode_cache SET hit_count = hit_count + 1 WHERE lat_bucket = ? AND lon_bucket = ?`, latB, lonB)
	return &loc, true
}

func (c *Cache) store(latB, lonB int, loc *model.LocationData) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO geocode_cache
		(lat_bucket, lon_bucket, district, city, county, state, country, country_code, hit_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(
			(SELECT hit_count FROM geocode_cache WHERE lat_bucket = ? AND lon_bucket = ?), 0))`,
		latB, lonB, loc.District, loc.City, loc.County, loc.State, loc.Country, loc.CountryCode, latB, lonB)
	return err
}
