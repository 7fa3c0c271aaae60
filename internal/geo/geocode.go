// Package geo resolves place names to coordinates via Nominatim, with an
// in-memory cache and a persistent SQLite-backed cache.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Default HTTP client (timeout set per-request via context)
var httpClient = &http.Client{}

// Location represents a geocoded location
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Resolver resolves place names to coordinates.
type Resolver struct {
	mu    sync.RWMutex
	cache map[string]*Location

	// Persistent geocache (optional, backed by SQLite)
	persistentCache *Cache

	// HTTP timeout for geocoding requests
	httpTimeout time.Duration
}

// NewResolver creates a resolver with an optional persistent cache.
func NewResolver(httpTimeout time.Duration, persistentCache *Cache) *Resolver {
	if httpTimeout == 0 {
		httpTimeout = 10 * time.Second
	}
	return &Resolver{
		cache:           make(map[string]*Location),
		persistentCache: persistentCache,
		httpTimeout:     httpTimeout,
	}
}

// Resolve returns coordinates for a place name.
// Priority: in-memory cache > persistent cache > Nominatim.
func (r *Resolver) Resolve(place string) (*Location, error) {
	r.mu.RLock()
	cached, ok := r.cache[place]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if r.persistentCache != nil {
		if loc, found := r.persistentCache.Get(place); found {
			r.mu.Lock()
			r.cache[place] = loc
			r.mu.Unlock()
			return loc, nil
		}
	}

	loc, err := r.geocode(place)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[place] = loc
	r.mu.Unlock()

	if r.persistentCache != nil {
		r.persistentCache.Put(place, loc)
	}

	return loc, nil
}

// geocode performs geocoding via Nominatim with proper timeout
func (r *Resolver) geocode(place string) (*Location, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.httpTimeout)
	defer cancel()

	apiURL := fmt.Sprintf("https://nominatim.openstreetmap.org/search?q=%s&format=json&limit=1",
		url.QueryEscape(place))

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "sunwatchd/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("location not found: %s", place)
	}

	var lat, lon float64
	fmt.Sscanf(results[0].Lat, "%f", &lat)
	fmt.Sscanf(results[0].Lon, "%f", &lon)

	loc := &Location{
		Name:      results[0].DisplayName,
		Latitude:  lat,
		Longitude: lon,
	}

	log.Info().
		Str("query", place).
		Str("resolved", loc.Name).
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("Location geocoded via Nominatim")

	return loc, nil
}
