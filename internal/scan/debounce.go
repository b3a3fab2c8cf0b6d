package scan

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jetscan-audio/jetscan/pkg/cache"
)

// DefaultDebounceWindow is how long repeat scans from the same client at
// the same coordinate cell skip background pre-generation. Page reloads and
// player retries land well inside it.
const DefaultDebounceWindow = 30 * time.Second

// debounceCacheSize bounds the tracked (client, cell) pairs.
const debounceCacheSize = 8192

// Debouncer short-circuits duplicate pre-generation work. It never blocks
// the primary response; only the background vendor spend is suppressed.
type Debouncer struct {
	window time.Duration
	seen   *lru.Cache[string, time.Time]
	clock  func() time.Time
}

// NewDebouncer creates a debouncer with the given window, defaulting it
// when zero.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	seen, _ := lru.New[string, time.Time](debounceCacheSize)
	return &Debouncer{
		window: window,
		seen:   seen,
		clock:  time.Now,
	}
}

// ShouldGenerate reports whether pre-generation should run for this client
// and coordinate cell, and records the request either way.
func (d *Debouncer) ShouldGenerate(clientID string, lat, lng float64) bool {
	key := fmt.Sprintf("%s:%s", clientID, cache.GenerateKey(lat, lng, ""))
	now := d.clock()

	if last, ok := d.seen.Get(key); ok && now.Sub(last) < d.window {
		return false
	}

	d.seen.Add(key, now)
	return true
}
