// Package freepool manages the rotating pool of pre-generated flight audio
// served to the free/anonymous tier. Free listeners "tune into" recent scans
// from paying users instead of triggering vendor calls of their own.
//
// The pool lives in the shared cache behind a JSON index. Index freshness is
// managed here (not by cache TTLs), so all pool reads go through GetRaw.
package freepool

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/jetscan-audio/jetscan/pkg/audio"
	"github.com/jetscan-audio/jetscan/pkg/cache"
	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/narration"
	"github.com/jetscan-audio/jetscan/pkg/tts"
)

const (
	// MaxSessions bounds the pool; the oldest session is evicted first
	MaxSessions = 100

	// IndexKey is the cache key of the pool's JSON index
	IndexKey = "free_pool/index.json"

	// StaticIntroKey caches the rendered free-tier intro
	StaticIntroKey = "free_pool/static_intro.mp3"

	// emptyPoolKey caches the rendered cold-start message
	emptyPoolKey = "free_pool/empty_pool_message.mp3"

	// indexCacheTTL is how long the in-memory index copy is trusted
	indexCacheTTL = 60 * time.Second

	// RateLimit is the per-IP request budget per window
	RateLimit = 10

	// RateWindow is the rate limit window
	RateWindow = time.Minute

	// limiterCacheSize bounds the per-IP limiter table so it cannot grow
	// with every address that ever called
	limiterCacheSize = 4096

	// pooledPlanes is how many of a session's planes feed the free tier
	pooledPlanes = 2
)

// Plane is one pooled aircraft's metadata and audio keys.
type Plane struct {
	Index           int     `json:"index"`
	FlightLat       float64 `json:"flight_lat"`
	FlightLng       float64 `json:"flight_lng"`
	OriginCity      string  `json:"origin_city"`
	DestinationCity string  `json:"destination_city"`
	AirlineName     string  `json:"airline_name"`
	BodyKey         string  `json:"body_cache_key"`
	OpeningKey      string  `json:"generic_opening_cache_key"`
}

// Session is one paid scan's contribution to the pool.
type Session struct {
	ID          string  `json:"id"`
	CreatedAt   string  `json:"created_at"`
	Planes      []Plane `json:"planes"`
	TTSProvider string  `json:"tts_provider"`
}

// Index is the pool's persisted state.
type Index struct {
	Version   int       `json:"version"`
	UpdatedAt string    `json:"updated_at"`
	Entries   []Session `json:"entries"`
}

// Pool serves and maintains the free-tier audio pool.
type Pool struct {
	cache    *cache.Cache
	registry *tts.Registry

	mu          sync.Mutex
	cachedIndex *Index
	cachedAt    time.Time
	limiters    *lru.Cache[string, *rate.Limiter]
	clock       func() time.Time
}

// New creates a pool over the shared cache and TTS registry.
func New(c *cache.Cache, registry *tts.Registry) *Pool {
	limiters, _ := lru.New[string, *rate.Limiter](limiterCacheSize)
	return &Pool{
		cache:    c,
		registry: registry,
		limiters: limiters,
		clock:    time.Now,
	}
}

// Index returns the pool index, served from a short-lived in-memory copy to
// keep free-tier traffic off the cache backend. Returns nil when the pool
// has never been populated.
func (p *Pool) Index(ctx context.Context) *Index {
	p.mu.Lock()
	if p.cachedIndex != nil && p.clock().Sub(p.cachedAt) < indexCacheTTL {
		idx := p.cachedIndex
		p.mu.Unlock()
		return idx
	}
	p.mu.Unlock()

	payload, ok := p.cache.GetRaw(ctx, IndexKey)
	if !ok {
		return nil
	}

	var idx Index
	if err := json.Unmarshal(payload, &idx); err != nil {
		log.Printf("freepool: malformed index: %v", err)
		return nil
	}

	p.mu.Lock()
	p.cachedIndex = &idx
	p.cachedAt = p.clock()
	p.mu.Unlock()

	log.Printf("freepool: loaded index with %d sessions", len(idx.Entries))
	return &idx
}

// appendSession adds a session to the index, evicting the oldest entries
// past MaxSessions. Evicted sessions' audio is left in the cache for the
// backend's storage expiry to collect.
func (p *Pool) appendSession(ctx context.Context, s Session) bool {
	idx := p.Index(ctx)
	if idx == nil {
		idx = &Index{Version: 1}
	}

	idx.Entries = append(idx.Entries, s)
	for len(idx.Entries) > MaxSessions {
		log.Printf("freepool: evicting oldest session %s", idx.Entries[0].ID)
		idx.Entries = idx.Entries[1:]
	}
	idx.UpdatedAt = p.clock().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(idx)
	if err != nil {
		log.Printf("freepool: index marshal failed: %v", err)
		return false
	}
	if !p.cache.Set(ctx, IndexKey, payload, cache.VariantAudio) {
		log.Printf("freepool: index write failed")
		return false
	}

	p.mu.Lock()
	p.cachedIndex = idx
	p.cachedAt = p.clock()
	p.mu.Unlock()

	log.Printf("freepool: session %s added, %d total", s.ID, len(idx.Entries))
	return true
}

// Populate copies the first two planes of a finished paid scan into the
// pool: the per-plane body audio is reused as-is, and a location-free
// generic opening is synthesized to replace the positional one. Runs after
// pre-generation completes, so the bodies are already cached.
func (p *Pool) Populate(ctx context.Context, aircraft []flight.Observation, locationHash string, vendor tts.Vendor) bool {
	if vendor == nil {
		return false
	}

	sessionID := uuid.NewString()[:8]
	ext, _ := vendor.AudioFormat()
	var planes []Plane

	for planeIndex := 1; planeIndex <= pooledPlanes && planeIndex <= len(aircraft); planeIndex++ {
		obs := aircraft[planeIndex-1]

		bodyKey := cache.PlaneBodyKey(locationHash, planeIndex, vendor.Name(), ext)
		body, ok := p.cache.GetRaw(ctx, bodyKey)
		if !ok {
			log.Printf("freepool: body audio missing for plane %d: %s", planeIndex, bodyKey)
			continue
		}

		opening, errMsg := vendor.GenerateAudio(ctx, narration.GenericOpening(planeIndex))
		if errMsg != "" || len(opening) == 0 {
			log.Printf("freepool: generic opening synthesis failed: %s", errMsg)
			continue
		}

		openingKey := fmt.Sprintf("free_pool/%s_plane%d_opening_%s.%s", sessionID, planeIndex, vendor.Name(), ext)
		poolBodyKey := fmt.Sprintf("free_pool/%s_plane%d_body_%s.%s", sessionID, planeIndex, vendor.Name(), ext)

		p.cache.Set(ctx, openingKey, opening, cache.VariantAudio)
		p.cache.Set(ctx, poolBodyKey, body, cache.VariantAudio)

		planes = append(planes, Plane{
			Index:           planeIndex,
			FlightLat:       obs.Latitude,
			FlightLng:       obs.Longitude,
			OriginCity:      obs.OriginCity,
			DestinationCity: obs.DestinationCity,
			AirlineName:     obs.AirlineName,
			BodyKey:         poolBodyKey,
			OpeningKey:      openingKey,
		})
	}

	if len(planes) == 0 {
		log.Printf("freepool: nothing to pool for %s", locationHash)
		return false
	}

	return p.appendSession(ctx, Session{
		ID:          sessionID,
		CreatedAt:   p.clock().UTC().Format(time.RFC3339),
		Planes:      planes,
		TTSProvider: vendor.Name(),
	})
}

// SessionFor picks the session a free listener hears. The pick hashes the
// client IP with the current UTC hour, so one listener hears the same
// session for an hour and gets variety after that.
func (p *Pool) SessionFor(clientIP string, idx *Index) *Session {
	if idx == nil || len(idx.Entries) == 0 {
		return nil
	}

	hour := p.clock().UTC().Format("2006-01-02-15")
	sum := md5.Sum([]byte(clientIP + ":" + hour))

	var n uint32
	for _, b := range sum[:4] {
		n = n<<8 | uint32(b)
	}

	return &idx.Entries[int(n)%len(idx.Entries)]
}

// Allow checks the per-IP free-tier rate limit. When the budget is spent it
// returns false plus the seconds until a slot frees up.
func (p *Pool) Allow(clientIP string) (bool, int) {
	p.mu.Lock()
	lim, ok := p.limiters.Get(clientIP)
	if !ok {
		lim = rate.NewLimiter(rate.Every(RateWindow/RateLimit), RateLimit)
		p.limiters.Add(clientIP, lim)
	}
	p.mu.Unlock()

	if lim.Allow() {
		return true, 0
	}

	res := lim.Reserve()
	delay := res.Delay()
	res.Cancel()
	retryAfter := int(delay.Seconds()) + 1
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}

// SessionAudio stitches a session's pooled planes into one stream: opening
// then body per plane, with a second of leading silence up front. Planes
// whose audio went missing are skipped; a session with nothing playable
// returns false.
func (p *Pool) SessionAudio(ctx context.Context, s *Session) ([]byte, bool) {
	if s == nil {
		return nil, false
	}

	var segments [][]byte
	for _, plane := range s.Planes {
		opening, ok := p.cache.GetRaw(ctx, plane.OpeningKey)
		if !ok {
			log.Printf("freepool: opening missing for session %s plane %d", s.ID, plane.Index)
			continue
		}
		body, ok := p.cache.GetRaw(ctx, plane.BodyKey)
		if !ok {
			log.Printf("freepool: body missing for session %s plane %d", s.ID, plane.Index)
			continue
		}
		segments = append(segments, opening, body)
	}

	stitched, err := audio.Stitch(segments, true)
	if err != nil {
		return nil, false
	}
	return stitched, true
}

// StaticIntro returns the rendered free-tier intro, generating and caching
// it on first use.
func (p *Pool) StaticIntro(ctx context.Context) []byte {
	return p.renderedMessage(ctx, StaticIntroKey, narration.FreeScanIntro)
}

// EmptyPoolAudio returns the cold-start message played when the pool has no
// sessions yet.
func (p *Pool) EmptyPoolAudio(ctx context.Context) []byte {
	return p.renderedMessage(ctx, emptyPoolKey, narration.EmptyPoolMessage)
}

func (p *Pool) renderedMessage(ctx context.Context, key, text string) []byte {
	if cached, ok := p.cache.GetRaw(ctx, key); ok {
		return cached
	}

	rendered, _, errMsg := p.registry.Generate(ctx, text)
	if errMsg != "" || len(rendered) == 0 {
		log.Printf("freepool: message synthesis failed for %s: %s", key, errMsg)
		return nil
	}

	p.cache.Set(ctx, key, rendered, cache.VariantAudio)
	return rendered
}
