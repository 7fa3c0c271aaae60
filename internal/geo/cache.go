package geo

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache provides persistent storage for geocoded places
type Cache struct {
	db *sql.DB
}

// NewCache creates a new geo cache backed by SQLite
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Get retrieves a cached location by place query
func (c *Cache) Get(place string) (*Location, bool) {
	var loc Location
	err := c.db.QueryRow(`
		SELECT display_name, latitude, longitude
		FROM geocache
		WHERE query = ?
	`, place).Scan(&loc.Name, &loc.Latitude, &loc.Longitude)

	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("place", place).Msg("Failed to read geocache")
		return nil, false
	}

	log.Debug().Str("place", place).Float64("lat", loc.Latitude).Float64("lon", loc.Longitude).Msg("Geocache hit")
	return &loc, true
}

// Put stores a geocoded location
func (c *Cache) Put(place string, loc *Location) error {
	now := time.Now().Unix()
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO geocache (query, display_name, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, place, loc.Name, loc.Latitude, loc.Longitude, now)

	if err != nil {
		log.Warn().Err(err).Str("place", place).Msg("Failed to write geocache")
		return err
	}

	log.Info().Str("place", place).Float64("lat", loc.Latitude).Float64("lon", loc.Longitude).Msg("Geocache stored")
	return nil
}
