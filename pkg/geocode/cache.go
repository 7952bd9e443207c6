package geocode

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/insuremap/exclusion-registry/internal/model"
)

// Cache persists successful geocode results in SQLite so re-runs never
// repeat a paid lookup for unchanged text. Misses are not cached: a
// PENDING entity must stay eligible for retry on the next run.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "geocode cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "geocode cache: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	lookup_hash TEXT PRIMARY KEY,
	lat         REAL NOT NULL,
	lng         REAL NOT NULL,
	accuracy    TEXT NOT NULL,
	place_id    TEXT,
	cached_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "geocode cache: migrate")
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get looks up a cached result by key.
func (c *Cache) Get(ctx context.Context, key string) (Result, bool, error) {
	var r Result
	var placeID sql.NullString
	var accuracy string

	row := c.db.QueryRowContext(ctx,
		`SELECT lat, lng, accuracy, place_id FROM geocode_cache WHERE lookup_hash = ?`, key)
	if err := row.Scan(&r.Lat, &r.Lng, &accuracy, &placeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, false, nil
		}
		return Result{}, false, eris.Wrap(err, "geocode cache: get")
	}

	r.Accuracy = model.Accuracy(accuracy)
	if placeID.Valid {
		r.PlaceID = placeID.String
	}
	return r, true, nil
}

// Put stores a result under key, replacing any prior entry.
func (c *Cache) Put(ctx context.Context, key string, r Result) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (lookup_hash, lat, lng, accuracy, place_id, cached_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (lookup_hash) DO UPDATE SET
			lat = excluded.lat,
			lng = excluded.lng,
			accuracy = excluded.accuracy,
			place_id = excluded.place_id,
			cached_at = excluded.cached_at`,
		key, r.Lat, r.Lng, string(r.Accuracy), nilIfEmpty(r.PlaceID),
	)
	if err != nil {
		return eris.Wrap(err, "geocode cache: put")
	}
	return nil
}

// cacheKey returns SHA-256 hex of the normalized place text.
func cacheKey(p Place) string {
	normalized := fmt.Sprintf("%s|%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(p.Name)),
		strings.ToLower(strings.TrimSpace(p.Address)),
		strings.ToLower(strings.TrimSpace(p.City)),
		strings.ToLower(strings.TrimSpace(p.State)),
		strings.TrimSpace(p.Pincode),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// centroidCacheKey namespaces city centroid entries away from full lookups.
func centroidCacheKey(cityState string) string {
	h := sha256.Sum256([]byte("centroid|" + strings.ToLower(cityState)))
	return fmt.Sprintf("%x", h)
}

// nilIfEmpty returns nil for empty strings so SQLite stores NULL.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
