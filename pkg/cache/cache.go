// Package cache implements the location-keyed remote cache that fronts both
// the live aircraft data and the rendered narration audio.
//
// Entries live in Redis as small hashes carrying the payload and its write
// timestamp. Freshness is a read-time judgment against the content variant's
// TTL: stale entries are treated as misses and simply overwritten by the
// next writer, never deleted. When the backend is unreachable or
// unconfigured every operation degrades to a miss or no-op; the service runs
// uncached rather than failing.
package cache

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jetscan-audio/jetscan/pkg/backoff"
)

// Variant classifies cached content; each class carries its own TTL.
type Variant int

const (
	// VariantAudio is rendered narration audio
	VariantAudio Variant = iota

	// VariantAircraft is the structured aircraft selection document
	VariantAircraft
)

const (
	// readTimeout bounds the existence check plus download
	readTimeout = 3 * time.Second

	// downloadTimeout bounds payload retrieval for large audio entries
	downloadTimeout = 30 * time.Second

	// uploadTimeout bounds a single write attempt
	uploadTimeout = 60 * time.Second

	payloadField  = "payload"
	cachedAtField = "cached_at"
)

// Options configures a Cache.
type Options struct {
	// Prefix namespaces all keys in the shared Redis instance
	Prefix string

	// AudioTTL is the freshness window for rendered audio (default 10 min)
	AudioTTL time.Duration

	// AircraftTTL is the freshness window for aircraft documents
	// (default 5 min)
	AircraftTTL time.Duration
}

// Cache is the remote location cache. A nil *Cache or a Cache with a nil
// client is valid and behaves as permanently missing.
type Cache struct {
	client      *redis.Client
	prefix      string
	audioTTL    time.Duration
	aircraftTTL time.Duration
	retry       backoff.Config
	clock       func() time.Time
}

// New creates a Cache over an existing Redis client. client may be nil, in
// which case the cache is disabled and every operation is a miss/no-op.
func New(client *redis.Client, opts Options) *Cache {
	if opts.Prefix == "" {
		opts.Prefix = "jetscan"
	}
	if opts.AudioTTL == 0 {
		opts.AudioTTL = 10 * time.Minute
	}
	if opts.AircraftTTL == 0 {
		opts.AircraftTTL = 5 * time.Minute
	}

	retry := backoff.DefaultConfig()
	retry.InitialDelay = 250 * time.Millisecond
	retry.MaxDelay = 5 * time.Second

	return &Cache{
		client:      client,
		prefix:      opts.Prefix,
		audioTTL:    opts.AudioTTL,
		aircraftTTL: opts.AircraftTTL,
		retry:       retry,
		clock:       time.Now,
	}
}

// Enabled reports whether a backend is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// TTLFor returns the freshness window for a content variant.
func (c *Cache) TTLFor(v Variant) time.Duration {
	if v == VariantAircraft {
		return c.aircraftTTL
	}
	return c.audioTTL
}

// Get returns the cached payload for key if present and fresh for the given
// variant. Stale or absent entries return (nil, false); so does every
// backend failure. Stale entries are left in place: the next successful Set
// overwrites them.
func (c *Cache) Get(ctx context.Context, key string, v Variant) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	// Metadata first: a stale entry should not cost a payload download.
	cachedAt, err := c.client.HGet(opCtx, c.redisKey(key), cachedAtField).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: metadata read failed for %s: %v", key, err)
		}
		return nil, false
	}

	writeUnix, err := strconv.ParseInt(cachedAt, 10, 64)
	if err != nil {
		log.Printf("cache: malformed timestamp for %s: %v", key, err)
		return nil, false
	}

	age := c.clock().Sub(time.Unix(writeUnix, 0))
	if age > c.TTLFor(v) {
		// Read-time staleness judgment only; no deletion.
		return nil, false
	}

	dlCtx, cancelDl := context.WithTimeout(ctx, downloadTimeout)
	defer cancelDl()

	payload, err := c.client.HGet(dlCtx, c.redisKey(key), payloadField).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: payload read failed for %s: %v", key, err)
		}
		return nil, false
	}

	return payload, true
}

// GetRaw returns the payload for key regardless of age. Used for cache
// classes whose lifecycle is managed by an external index (the free pool)
// rather than by freshness.
func (c *Cache) GetRaw(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	payload, err := c.client.HGet(opCtx, c.redisKey(key), payloadField).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: raw read failed for %s: %v", key, err)
		}
		return nil, false
	}
	return payload, true
}

// Set stores payload under key with the current write timestamp. Transient
// failures are retried with exponential backoff and jitter; on repeated
// failure the miss is logged and false returned. Callers must treat a failed
// write as non-fatal since the data they are caching was already served.
func (c *Cache) Set(ctx context.Context, key string, payload []byte, v Variant) bool {
	if !c.Enabled() {
		return false
	}

	err := backoff.Retry(ctx, c.retry, func() error {
		opCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
		defer cancel()

		pipe := c.client.Pipeline()
		pipe.HSet(opCtx, c.redisKey(key), map[string]interface{}{
			payloadField:  payload,
			cachedAtField: strconv.FormatInt(c.clock().Unix(), 10),
		})
		// Backend-side expiry well past every variant TTL keeps storage
		// bounded without changing read-time freshness semantics.
		pipe.Expire(opCtx, c.redisKey(key), 24*time.Hour)
		_, err := pipe.Exec(opCtx)
		return err
	})
	if err != nil {
		log.Printf("cache: write failed for %s: %v", key, err)
		return false
	}

	return true
}

func (c *Cache) redisKey(key string) string {
	return c.prefix + ":" + key
}
