// Package scan coordinates one scan request end to end: cache-first
// aircraft lookup through the provider gateway, narration text, and the
// background pre-generation that renders per-plane audio and feeds the
// free pool.
package scan

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jetscan-audio/jetscan/internal/analytics"
	"github.com/jetscan-audio/jetscan/internal/freepool"
	"github.com/jetscan-audio/jetscan/pkg/cache"
	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/narration"
	"github.com/jetscan-audio/jetscan/pkg/provider"
	"github.com/jetscan-audio/jetscan/pkg/tts"
)

// Config tunes one orchestrator.
type Config struct {
	// RadiusKm is the scan radius around the user
	RadiusKm float64

	// FetchLimit pads the vendor query past the final selection size so
	// diversity filtering has material to work with
	FetchLimit int

	// MaxResults caps how many aircraft the interactive response carries
	MaxResults int

	// PreGenMax caps how many selected aircraft get audio pre-generated.
	// It may exceed MaxResults so later planes are already rendered when
	// the free pool or a follow-up request asks for them.
	PreGenMax int

	// DebounceWindow suppresses repeat pre-generation per client and cell
	DebounceWindow time.Duration
}

// DefaultConfig returns production scan settings.
func DefaultConfig() Config {
	return Config{
		RadiusKm:       100,
		FetchLimit:     10,
		MaxResults:     3,
		PreGenMax:      5,
		DebounceWindow: DefaultDebounceWindow,
	}
}

// Request is one scan invocation. Coordinates are already resolved by the
// transport layer (explicit parameters or IP geolocation).
type Request struct {
	Lat      float64
	Lng      float64
	ClientID string
}

// Result is what a scan returns to the transport layer.
type Result struct {
	// Aircraft is the diverse selection, closest first
	Aircraft []flight.Observation

	// Text is the narration summary for the closest aircraft, or the
	// explanation of an empty sky
	Text string

	// ErrMessage carries the aggregated provider reasons when the scan
	// found nothing
	ErrMessage string
}

// Orchestrator runs scans.
type Orchestrator struct {
	gateway   *provider.Gateway
	registry  *tts.Registry
	cache     *cache.Cache
	pool      *freepool.Pool
	debounce  *Debouncer
	analytics *analytics.Client
	cfg       Config
	now       func() time.Time

	background sync.WaitGroup
}

// New creates an orchestrator. The pool and analytics client may be nil;
// the corresponding steps are then skipped.
func New(gateway *provider.Gateway, registry *tts.Registry, c *cache.Cache, pool *freepool.Pool, an *analytics.Client, cfg Config) *Orchestrator {
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = DefaultConfig().RadiusKm
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultConfig().FetchLimit
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	if cfg.PreGenMax <= 0 {
		cfg.PreGenMax = DefaultConfig().PreGenMax
	}

	return &Orchestrator{
		gateway:   gateway,
		registry:  registry,
		cache:     c,
		pool:      pool,
		debounce:  NewDebouncer(cfg.DebounceWindow),
		analytics: an,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Scan resolves the aircraft selection for a coordinate. The gateway
// handles the cache-first read per provider namespace; on a miss it fetches,
// validates, selects, and writes back. Background audio pre-generation is
// kicked off before returning unless a recent identical request already did.
func (o *Orchestrator) Scan(ctx context.Context, req Request) *Result {
	log.Printf("scan: lat=%.4f lng=%.4f client=%s", req.Lat, req.Lng, req.ClientID)

	aircraft, errMsg := o.gateway.FetchWithFallback(ctx, req.Lat, req.Lng, o.cfg.RadiusKm, o.cfg.FetchLimit)

	// The gateway returns the wider pre-generation selection; the caller
	// only sees the closest MaxResults of it.
	visible := aircraft
	if len(visible) > o.cfg.MaxResults {
		visible = visible[:o.cfg.MaxResults]
	}

	result := &Result{
		Aircraft:   visible,
		Text:       narration.FlightText(visible, errMsg),
		ErrMessage: errMsg,
	}

	o.analytics.Track("scan_completed", map[string]interface{}{
		"aircraft_count": len(aircraft),
		"had_error":      errMsg != "",
	}, req.ClientID)

	if len(aircraft) == 0 {
		return result
	}

	if !o.debounce.ShouldGenerate(req.ClientID, req.Lat, req.Lng) {
		log.Printf("scan: pre-generation debounced for client=%s", req.ClientID)
		return result
	}

	// Fire and forget: the response does not wait for audio. The tasks
	// run on a detached context so a closed client connection does not
	// abandon half-rendered sessions.
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		o.preGenerate(context.Background(), aircraft, req.Lat, req.Lng)
	}()

	return result
}

// WaitForBackground blocks until in-flight pre-generation finishes. Used
// for graceful shutdown and tests.
func (o *Orchestrator) WaitForBackground() {
	o.background.Wait()
}
