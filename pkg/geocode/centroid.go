package geocode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Centroid is a city's geocoded center point.
type Centroid struct {
	Lat float64
	Lng float64
}

// centroidCache memoizes city centroid lookups per "city|state" key,
// including misses, so a city that fails to geocode is attempted once
// per run. A duplicate lookup under a write race wastes one API call but
// cannot corrupt state.
type centroidCache struct {
	mu sync.Mutex
	m  map[string]*Centroid // nil value = known miss
}

func newCentroidCache() *centroidCache {
	return &centroidCache{m: make(map[string]*Centroid)}
}

func (cc *centroidCache) get(key string) (*Centroid, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	c, ok := cc.m[key]
	return c, ok
}

func (cc *centroidCache) put(key string, c *Centroid) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.m[key] = c
}

// cityCentroid returns the memoized centroid for city/state, geocoding it
// on first use. Returns nil when the city itself cannot be geocoded.
func (c *Client) cityCentroid(ctx context.Context, city, state string) *Centroid {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" {
		return nil
	}

	key := city + "|" + state
	if cached, ok := c.centroids.get(key); ok {
		return cached
	}
	if c.cache != nil {
		r, ok, err := c.cache.Get(ctx, centroidCacheKey(key))
		switch {
		case err != nil:
			zap.L().Debug("centroid cache read failed", zap.Error(err))
		case ok && r.Matched():
			cent := &Centroid{Lat: r.Lat, Lng: r.Lng}
			c.centroids.put(key, cent)
			return cent
		}
	}

	query := fmt.Sprintf("%s, %s, India", city, state)
	hit, err := c.geocodeAddress(ctx, query, "country:IN")
	if err != nil || hit == nil {
		if err != nil {
			zap.L().Debug("city centroid lookup failed", zap.String("city", city), zap.Error(err))
		}
		c.centroids.put(key, nil)
		return nil
	}

	cent := &Centroid{Lat: hit.Lat, Lng: hit.Lng}
	c.centroids.put(key, cent)
	if c.cache != nil {
		_ = c.cache.Put(ctx, centroidCacheKey(key), Result{Lat: cent.Lat, Lng: cent.Lng})
	}
	return cent
}

// locationBias formats a centroid as a Find Place circular bias (20km).
func locationBias(cent *Centroid) string {
	if cent == nil {
		return ""
	}
	return fmt.Sprintf("circle:20000@%f,%f", cent.Lat, cent.Lng)
}
