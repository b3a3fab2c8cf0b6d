package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jetscan-audio/jetscan/pkg/audio"
	"github.com/jetscan-audio/jetscan/pkg/cache"
	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/narration"
	"github.com/jetscan-audio/jetscan/pkg/tts"
)

// pregenTimeout bounds one whole pre-generation session.
const pregenTimeout = 3 * time.Minute

// preGenerate renders audio for up to PreGenMax aircraft and caches it per
// (coordinate cell, plane index, vendor). Tasks run concurrently and fail
// independently; the free pool is populated only after every task has
// settled, because it assumes the body assets exist.
func (o *Orchestrator) preGenerate(ctx context.Context, aircraft []flight.Observation, lat, lng float64) {
	vendor, ok := o.registry.Primary()
	if !ok {
		log.Printf("pregen: no TTS vendor configured, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, pregenTimeout)
	defer cancel()

	hash := cache.GenerateKey(lat, lng, "")
	count := len(aircraft)
	if count > o.cfg.PreGenMax {
		count = o.cfg.PreGenMax
	}

	log.Printf("pregen: rendering %d planes for cell %s via %s", count, hash, vendor.Name())

	var g errgroup.Group
	g.SetLimit(count)

	for i := 0; i < count; i++ {
		planeIndex := i + 1
		obs := aircraft[i]
		g.Go(func() error {
			// Errors stay inside the task; one bad plane must not
			// cancel its siblings.
			if err := o.renderPlane(ctx, obs, hash, planeIndex, vendor); err != nil {
				log.Printf("pregen: plane %d failed: %v", planeIndex, err)
			}
			return nil
		})
	}
	g.Wait()

	if o.pool != nil {
		o.pool.Populate(ctx, aircraft, hash, vendor)
	}
}

// renderPlane synthesizes one aircraft's narration and caches both the
// stitched full track and the body-only segment. The body is kept separate
// because the free pool pairs it with a location-free opening later.
func (o *Orchestrator) renderPlane(ctx context.Context, obs flight.Observation, hash string, planeIndex int, vendor tts.Vendor) error {
	ext, _ := vendor.AudioFormat()

	fullKey := cache.PlaneAudioKey(hash, planeIndex, vendor.Name(), ext)
	bodyKey := cache.PlaneBodyKey(hash, planeIndex, vendor.Name(), ext)

	bodyText := narration.Body(obs)
	if override, ok := narration.SentenceOverride(planeIndex, o.now()); ok {
		bodyText = override
	}

	bodyAudio, errMsg := vendor.GenerateAudio(ctx, bodyText)
	if errMsg != "" || len(bodyAudio) == 0 {
		return fmt.Errorf("body synthesis: %s", errMsg)
	}

	openingAudio, errMsg := vendor.GenerateAudio(ctx, narration.Opening(obs, planeIndex))
	if errMsg != "" || len(openingAudio) == 0 {
		return fmt.Errorf("opening synthesis: %s", errMsg)
	}

	full, err := audio.Stitch([][]byte{openingAudio, bodyAudio}, false)
	if err != nil {
		return fmt.Errorf("stitch: %w", err)
	}

	// The body must land before the full track: pool population checks
	// for bodies once the gather completes.
	if !o.cache.Set(ctx, bodyKey, bodyAudio, cache.VariantAudio) {
		return fmt.Errorf("body cache write failed for %s", bodyKey)
	}
	o.cache.Set(ctx, fullKey, full, cache.VariantAudio)

	return nil
}
