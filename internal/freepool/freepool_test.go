package freepool

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetscan-audio/jetscan/pkg/audio"
	"github.com/jetscan-audio/jetscan/pkg/cache"
	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/tts"
)

// stubVendor is a deterministic TTS vendor for pool tests.
type stubVendor struct {
	calls int
	fail  bool
}

func (s *stubVendor) Name() string                  { return "stub" }
func (s *stubVendor) DisplayName() string           { return "Stub TTS" }
func (s *stubVendor) IsConfigured() (bool, string)  { return true, "" }
func (s *stubVendor) AudioFormat() (string, string) { return "mp3", "audio/mpeg" }

func (s *stubVendor) GenerateAudio(ctx context.Context, text string) ([]byte, string) {
	s.calls++
	if s.fail {
		return nil, "stub vendor down"
	}
	return []byte("audio:" + text[:10]), ""
}

func setupPool(t *testing.T) (*Pool, *cache.Cache, *stubVendor) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.New(client, cache.Options{})

	vendor := &stubVendor{}
	return New(c, tts.NewRegistry(vendor)), c, vendor
}

func seedBodies(t *testing.T, c *cache.Cache, hash string, planes int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= planes; i++ {
		key := cache.PlaneBodyKey(hash, i, "stub", "mp3")
		require.True(t, c.Set(ctx, key, []byte(fmt.Sprintf("body-%d", i)), cache.VariantAudio))
	}
}

func sampleAircraft(n int) []flight.Observation {
	aircraft := make([]flight.Observation, n)
	for i := range aircraft {
		aircraft[i] = flight.Observation{
			Callsign:        fmt.Sprintf("DL%d", 100+i),
			AirlineName:     "Delta Air Lines",
			Latitude:        33.7 + float64(i)*0.01,
			Longitude:       -84.4,
			OriginCity:      "Atlanta",
			DestinationCity: "New York",
		}
	}
	return aircraft
}

func TestPopulate(t *testing.T) {
	p, c, vendor := setupPool(t)
	ctx := context.Background()

	seedBodies(t, c, "loc123", 3)

	ok := p.Populate(ctx, sampleAircraft(3), "loc123", vendor)
	require.True(t, ok)

	idx := p.Index(ctx)
	require.NotNil(t, idx)
	require.Len(t, idx.Entries, 1)

	session := idx.Entries[0]
	assert.Equal(t, "stub", session.TTSProvider)
	assert.Len(t, session.Planes, 2, "only the first two planes feed the pool")

	for _, plane := range session.Planes {
		opening, ok := c.GetRaw(ctx, plane.OpeningKey)
		assert.True(t, ok, "opening audio cached for plane %d", plane.Index)
		assert.NotEmpty(t, opening)

		body, ok := c.GetRaw(ctx, plane.BodyKey)
		assert.True(t, ok, "body audio copied for plane %d", plane.Index)
		assert.Equal(t, fmt.Sprintf("body-%d", plane.Index), string(body))
	}
}

func TestPopulateSkipsMissingBody(t *testing.T) {
	p, c, vendor := setupPool(t)
	ctx := context.Background()

	// Body audio for plane 1 only
	seedBodies(t, c, "loc123", 1)

	require.True(t, p.Populate(ctx, sampleAircraft(3), "loc123", vendor))

	idx := p.Index(ctx)
	require.Len(t, idx.Entries, 1)
	assert.Len(t, idx.Entries[0].Planes, 1, "plane without body audio must be skipped")
}

func TestPopulateNothingAvailable(t *testing.T) {
	p, _, vendor := setupPool(t)
	assert.False(t, p.Populate(context.Background(), sampleAircraft(3), "loc123", vendor))
}

func TestFIFOEviction(t *testing.T) {
	p, _, _ := setupPool(t)
	ctx := context.Background()

	for i := 0; i < MaxSessions+3; i++ {
		ok := p.appendSession(ctx, Session{
			ID:     fmt.Sprintf("session-%03d", i),
			Planes: []Plane{{Index: 1}},
		})
		require.True(t, ok)
	}

	idx := p.Index(ctx)
	require.Len(t, idx.Entries, MaxSessions)
	assert.Equal(t, "session-003", idx.Entries[0].ID, "oldest sessions evicted first")
	assert.Equal(t, fmt.Sprintf("session-%03d", MaxSessions+2), idx.Entries[MaxSessions-1].ID)
}

func TestSessionFor(t *testing.T) {
	p, _, _ := setupPool(t)

	idx := &Index{Entries: make([]Session, 10)}
	for i := range idx.Entries {
		idx.Entries[i] = Session{ID: fmt.Sprintf("s%d", i)}
	}

	fixed := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	p.clock = func() time.Time { return fixed }

	t.Run("Stable within the hour", func(t *testing.T) {
		first := p.SessionFor("203.0.113.7", idx)
		require.NotNil(t, first)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first.ID, p.SessionFor("203.0.113.7", idx).ID)
		}
	})

	t.Run("Empty pool", func(t *testing.T) {
		assert.Nil(t, p.SessionFor("203.0.113.7", &Index{}))
		assert.Nil(t, p.SessionFor("203.0.113.7", nil))
	})
}

func TestAllow(t *testing.T) {
	p, _, _ := setupPool(t)

	for i := 0; i < RateLimit; i++ {
		ok, _ := p.Allow("203.0.113.7")
		require.True(t, ok, "request %d should pass", i+1)
	}

	ok, retryAfter := p.Allow("203.0.113.7")
	assert.False(t, ok, "request past the budget must be limited")
	assert.GreaterOrEqual(t, retryAfter, 1)

	// A different address has its own budget
	ok, _ = p.Allow("203.0.113.99")
	assert.True(t, ok)
}

func TestSessionAudio(t *testing.T) {
	p, c, _ := setupPool(t)
	ctx := context.Background()

	require.True(t, c.Set(ctx, "free_pool/s1_plane1_opening_stub.mp3", []byte("open1"), cache.VariantAudio))
	require.True(t, c.Set(ctx, "free_pool/s1_plane1_body_stub.mp3", []byte("body1"), cache.VariantAudio))
	require.True(t, c.Set(ctx, "free_pool/s1_plane2_opening_stub.mp3", []byte("open2"), cache.VariantAudio))

	session := &Session{
		ID: "s1",
		Planes: []Plane{
			{Index: 1, OpeningKey: "free_pool/s1_plane1_opening_stub.mp3", BodyKey: "free_pool/s1_plane1_body_stub.mp3"},
			// Plane 2 body is missing and must be skipped whole
			{Index: 2, OpeningKey: "free_pool/s1_plane2_opening_stub.mp3", BodyKey: "free_pool/s1_plane2_body_stub.mp3"},
		},
	}

	stitched, ok := p.SessionAudio(ctx, session)
	require.True(t, ok)

	assert.True(t, bytes.HasPrefix(stitched, audio.Silence(time.Second)))
	assert.True(t, bytes.HasSuffix(stitched, []byte("open1body1")), "only the complete plane plays")
	assert.False(t, bytes.Contains(stitched, []byte("open2")))
}

func TestSessionAudioEmpty(t *testing.T) {
	p, _, _ := setupPool(t)

	_, ok := p.SessionAudio(context.Background(), &Session{ID: "empty"})
	assert.False(t, ok)

	_, ok = p.SessionAudio(context.Background(), nil)
	assert.False(t, ok)
}

func TestStaticIntroCached(t *testing.T) {
	p, _, vendor := setupPool(t)
	ctx := context.Background()

	first := p.StaticIntro(ctx)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, vendor.calls)

	second := p.StaticIntro(ctx)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, vendor.calls, "second read must come from cache")
}

func TestEmptyPoolAudioFailure(t *testing.T) {
	p, _, vendor := setupPool(t)
	vendor.fail = true

	assert.Nil(t, p.EmptyPoolAudio(context.Background()))
}
