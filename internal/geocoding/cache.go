package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/nearby/internal/metrics"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"
)

const cacheKeyPrefix = "geocode:"

// RedisClient is the part of *redis.Client used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider remembers resolved addresses in Redis in front of another provider.
// Unresolved addresses and failures are never cached so they can be retried later.
type CachedProvider struct {
	inner   Provider
	client  RedisClient
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

type cachedLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCachedProvider wraps inner with a Redis backed cache. A ttl of zero keeps entries forever.
func NewCachedProvider(
	inner Provider,
	client RedisClient,
	ttl time.Duration,
	m *metrics.Metrics,
	log *slog.Logger,
) *CachedProvider {
	return &CachedProvider{inner: inner, client: client, ttl: ttl, metrics: m, log: log}
}

// Geocode serves the address from Redis when possible and otherwise asks the inner provider.
// Redis errors only cost the cache, never the lookup.
func (cp *CachedProvider) Geocode(ctx context.Context, address string) (*models.Location, error) {
	key := cacheKey(address)

	if loc, ok := cp.lookup(ctx, key); ok {
		cp.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return loc, nil
	}
	cp.metrics.CacheLookups.WithLabelValues("miss").Inc()

	loc, err := cp.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedLocation{Lat: loc.Latitude, Lon: loc.Longitude})
	if err != nil {
		return loc, nil
	}
	if err = cp.client.Set(ctx, key, payload, cp.ttl).Err(); err != nil {
		cp.log.WarnContext(ctx, "Failed to store geocoding result in cache", "address", address, "error", err)
	}

	return loc, nil
}

func (cp *CachedProvider) lookup(ctx context.Context, key string) (*models.Location, bool) {
	raw, err := cp.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cp.log.WarnContext(ctx, "Geocoding cache unavailable", "key", key, "error", err)
		}
		return nil, false
	}

	var cached cachedLocation
	if err = json.Unmarshal([]byte(raw), &cached); err != nil {
		cp.log.WarnContext(ctx, "Dropping malformed geocoding cache entry", "key", key, "error", err)
		return nil, false
	}

	loc := &models.Location{Latitude: cached.Lat, Longitude: cached.Lon}
	if err = loc.Validate(); err != nil {
		cp.log.WarnContext(ctx, "Dropping invalid geocoding cache entry", "key", key, "error", fmt.Errorf("cache: %w", err))
		return nil, false
	}

	return loc, true
}

// cacheKey folds spellings that differ only in case, whitespace or Unicode composition
// onto one entry. Accents are kept since they can distinguish streets.
func cacheKey(address string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(address)), " "))
}
