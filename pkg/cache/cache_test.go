package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCache creates a test cache backed by miniredis.
func setupCache(t *testing.T, opts Options) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	c := New(client, opts)
	// Retries are pointless against an in-process backend and slow the tests
	c.retry.MaxRetries = 0
	return c, mr
}

func TestGenerateKey(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a := GenerateKey(40.7128, -74.0060, "")
		b := GenerateKey(40.7128, -74.0060, "")
		assert.Equal(t, a, b)
	})

	t.Run("Rounding collapses nearby coordinates", func(t *testing.T) {
		a := GenerateKey(40.71281, -74.00601, "")
		b := GenerateKey(40.71279, -74.00599, "")
		assert.Equal(t, a, b, "coordinates within the same 0.01 degree cell should share a key")
	})

	t.Run("Distant coordinates differ", func(t *testing.T) {
		a := GenerateKey(40.71, -74.00, "")
		b := GenerateKey(40.72, -74.00, "")
		assert.NotEqual(t, a, b)
	})

	t.Run("Namespace separates providers", func(t *testing.T) {
		a := GenerateKey(40.71, -74.00, "airlabs")
		b := GenerateKey(40.71, -74.00, "fr24")
		assert.NotEqual(t, a, b)
	})
}

func TestVariantKeys(t *testing.T) {
	hash := GenerateKey(40.71, -74.00, "")

	assert.Equal(t, hash+".mp3", ScanAudioKey(hash))
	assert.Equal(t, hash+"_aircraft.json", AircraftListKey(hash))
	assert.Equal(t, hash+"_plane2_elevenlabs.mp3", PlaneAudioKey(hash, 2, "elevenlabs", "mp3"))
	assert.Equal(t, hash+"_plane1_body_inworld.mp3", PlaneBodyKey(hash, 1, "inworld", "mp3"))
}

func TestCacheSetGet(t *testing.T) {
	c, _ := setupCache(t, Options{})
	ctx := context.Background()

	payload := []byte("mp3 bytes")
	require.True(t, c.Set(ctx, "somekey.mp3", payload, VariantAudio))

	got, ok := c.Get(ctx, "somekey.mp3", VariantAudio)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestCacheMiss(t *testing.T) {
	c, _ := setupCache(t, Options{})

	_, ok := c.Get(context.Background(), "never-written", VariantAudio)
	assert.False(t, ok)
}

func TestCacheFreshnessBoundary(t *testing.T) {
	c, _ := setupCache(t, Options{AudioTTL: 10 * time.Minute})
	ctx := context.Background()

	writeTime := time.Now()
	c.clock = func() time.Time { return writeTime }
	require.True(t, c.Set(ctx, "boundary.mp3", []byte("audio"), VariantAudio))

	t.Run("Fresh just inside TTL", func(t *testing.T) {
		c.clock = func() time.Time { return writeTime.Add(10*time.Minute - time.Second) }
		_, ok := c.Get(ctx, "boundary.mp3", VariantAudio)
		assert.True(t, ok)
	})

	t.Run("Stale just past TTL", func(t *testing.T) {
		c.clock = func() time.Time { return writeTime.Add(10*time.Minute + time.Second) }
		_, ok := c.Get(ctx, "boundary.mp3", VariantAudio)
		assert.False(t, ok, "entry past its TTL must read as a miss")
	})

	t.Run("Stale entry is not deleted", func(t *testing.T) {
		// Staleness is a read-time judgment; the payload stays put for the
		// next writer to overwrite.
		got, ok := c.GetRaw(ctx, "boundary.mp3")
		assert.True(t, ok)
		assert.Equal(t, []byte("audio"), got)
	})
}

func TestCacheVariantTTLs(t *testing.T) {
	c, _ := setupCache(t, Options{AudioTTL: 10 * time.Minute, AircraftTTL: 5 * time.Minute})
	ctx := context.Background()

	writeTime := time.Now()
	c.clock = func() time.Time { return writeTime }
	require.True(t, c.Set(ctx, "planes.json", []byte(`{"aircraft":[]}`), VariantAircraft))

	// 7 minutes: stale for aircraft data, still fresh for audio
	c.clock = func() time.Time { return writeTime.Add(7 * time.Minute) }

	_, ok := c.Get(ctx, "planes.json", VariantAircraft)
	assert.False(t, ok, "aircraft variant should expire at 5 minutes")

	_, ok = c.Get(ctx, "planes.json", VariantAudio)
	assert.True(t, ok, "audio TTL should still consider the entry fresh")
}

func TestCacheGetRawBypassesTTL(t *testing.T) {
	c, _ := setupCache(t, Options{AudioTTL: time.Minute})
	ctx := context.Background()

	writeTime := time.Now()
	c.clock = func() time.Time { return writeTime }
	require.True(t, c.Set(ctx, "pool/index.json", []byte(`{"entries":[]}`), VariantAudio))

	c.clock = func() time.Time { return writeTime.Add(time.Hour) }

	got, ok := c.GetRaw(ctx, "pool/index.json")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"entries":[]}`), got)
}

func TestCacheDisabled(t *testing.T) {
	t.Run("Nil client", func(t *testing.T) {
		c := New(nil, Options{})
		ctx := context.Background()

		assert.False(t, c.Enabled())
		assert.False(t, c.Set(ctx, "k", []byte("v"), VariantAudio))

		_, ok := c.Get(ctx, "k", VariantAudio)
		assert.False(t, ok)

		_, ok = c.GetRaw(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("Nil cache", func(t *testing.T) {
		var c *Cache
		assert.False(t, c.Enabled())
		_, ok := c.Get(context.Background(), "k", VariantAudio)
		assert.False(t, ok)
	})
}

func TestCacheBackendDown(t *testing.T) {
	c, mr := setupCache(t, Options{})
	ctx := context.Background()

	require.True(t, c.Set(ctx, "k", []byte("v"), VariantAudio))

	// Backend failure degrades to a miss, never an error to the caller
	mr.Close()

	_, ok := c.Get(ctx, "k", VariantAudio)
	assert.False(t, ok)
	assert.False(t, c.Set(ctx, "k2", []byte("v"), VariantAudio))
}

func TestCacheOverwrite(t *testing.T) {
	c, _ := setupCache(t, Options{})
	ctx := context.Background()

	require.True(t, c.Set(ctx, "k", []byte("first"), VariantAudio))
	require.True(t, c.Set(ctx, "k", []byte("second"), VariantAudio))

	got, ok := c.Get(ctx, "k", VariantAudio)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got, "last write wins")
}
