package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tripbrain-dev/tripbrain/internal/store"
	apperrors "github.com/tripbrain-dev/tripbrain/pkg/app/errors"
)

// Query kinds. The cache is shared across sessions: payloads for the same key
// are fungible, so concurrent populate-on-miss is tolerated (last write wins).
const (
	KindWeather = "weather"
	KindPlaces  = "places"
)

// DefaultTTL is the freshness window for both weather and place pools.
const DefaultTTL = time.Hour

// Entry is the stored envelope around a cached payload.
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Fresh reports whether a value fetched at fetchedAt is still usable at now.
// A zero ttl means entries never expire.
func Fresh(fetchedAt time.Time, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(fetchedAt) < ttl
}

// Key builds a cache key from the query kind, the location coordinates and
// any query-shaping parameters. Coordinates are rounded to two decimals
// (about 1.1 km) so nearby requests share entries.
func Key(kind string, lat, lon float64, params ...string) string {
	key := fmt.Sprintf("%s:%.2f:%.2f", kind, lat, lon)
	if len(params) > 0 {
		key += ":" + strings.Join(params, ":")
	}
	return key
}

// Cache is a TTL-aware wrapper over the key-value store. A found-but-stale
// read is reported as not fresh and callers must treat it as a miss; stale
// entries are overwritten in place on the next Put.
type Cache struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache with the given freshness window.
func New(s store.Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, ttl: ttl, now: time.Now}
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get unmarshals the cached payload for key into out when present. It
// returns found=false when the key is absent and fresh=false when the entry
// is past its TTL. Backend failures surface as STORAGE_UNAVAILABLE.
func (c *Cache) Get(ctx context.Context, key string, out any) (found, fresh bool, err error) {
	raw, err := c.store.Get(ctx, store.BucketCache, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, apperrors.New(apperrors.ErrCodeStorageUnavailable, "cache read failed", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt entry behaves like a miss and gets overwritten on Put.
		return false, false, nil
	}

	if !Fresh(entry.FetchedAt, c.ttl, c.now()) {
		return true, false, nil
	}

	if err := json.Unmarshal(entry.Payload, out); err != nil {
		return false, false, nil
	}
	return true, true, nil
}

// Put stores the payload for key, stamping fetched_at with the current time.
// Put is idempotent and last-write-wins.
func (c *Cache) Put(ctx context.Context, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "failed to marshal cache payload", err)
	}

	entry := Entry{Payload: raw, FetchedAt: c.now()}
	value, err := json.Marshal(entry)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "failed to marshal cache entry", err)
	}

	if err := c.store.Put(ctx, store.BucketCache, key, value); err != nil {
		return apperrors.New(apperrors.ErrCodeStorageUnavailable, "cache write failed", err)
	}
	return nil
}
