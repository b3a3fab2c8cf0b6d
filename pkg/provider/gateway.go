package provider

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/jetscan-audio/jetscan/pkg/cache"
	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/selection"
)

// ErrNoProviders is the reason string returned when the chain is empty or
// nothing in it is configured.
const ErrNoProviders = "No aircraft providers configured"

// Gateway runs an ordered chain of providers with per-vendor caching.
// Fallback is strictly sequential: the next vendor is only consulted once
// the previous one's outcome is known.
type Gateway struct {
	chain  []Provider
	cache  *cache.Cache
	selCfg selection.Config
}

// NewGateway builds a gateway over the given provider order. The cache may
// be nil, in which case every lookup is a miss and results are served
// straight from the vendors.
func NewGateway(c *cache.Cache, selCfg selection.Config, providers ...Provider) *Gateway {
	return &Gateway{
		chain:  providers,
		cache:  c,
		selCfg: selCfg,
	}
}

// BuildChain resolves a primary provider name plus ordered fallback names
// into a deduplicated provider chain. Unknown names are skipped. An empty
// resolution falls back to the keyless baseline provider.
func BuildChain(primary string, fallbacks []string, registry map[string]Provider) []Provider {
	var chain []Provider
	seen := make(map[string]bool)

	for _, name := range append([]string{primary}, fallbacks...) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		p, ok := registry[name]
		if !ok {
			log.Printf("gateway: unknown provider %q skipped", name)
			continue
		}
		seen[name] = true
		chain = append(chain, p)
	}

	if len(chain) == 0 {
		if baseline, ok := registry["opensky"]; ok {
			chain = append(chain, baseline)
		}
	}

	return chain
}

// FetchWithFallback returns the diverse selection of aircraft near the user,
// trying each provider in order. The selection (not the raw vendor pool) is
// what gets cached under the provider's namespace; vendors that legitimately
// report nothing get an empty marker written so the next scan inside the TTL
// window skips straight past them.
func (g *Gateway) FetchWithFallback(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]flight.Observation, string) {
	var reasons []string
	var emptyKeys []string
	attempted := false

	for _, p := range g.chain {
		ok, reason := p.IsConfigured()
		if !ok {
			if reason != "" {
				reasons = append(reasons, reason)
			}
			continue
		}
		attempted = true

		key := cache.AircraftListKey(cache.GenerateKey(lat, lng, p.Name()))

		if payload, hit := g.cache.Get(ctx, key, cache.VariantAircraft); hit {
			var cached []flight.Observation
			if err := json.Unmarshal(payload, &cached); err != nil {
				log.Printf("gateway: malformed cached list for %s: %v", p.Name(), err)
			} else if len(cached) > 0 {
				log.Printf("gateway: cache hit for %s with %d aircraft", p.Name(), len(cached))
				return cached, ""
			} else {
				// Fresh empty marker: this vendor had nothing for
				// this cell recently, move on without spending a call.
				continue
			}
		}

		observations, errMsg := p.Fetch(ctx, lat, lng, radiusKm, limit)
		if errMsg != "" {
			reasons = append(reasons, errMsg)
			continue
		}
		if len(observations) == 0 {
			reasons = append(reasons, "No aircraft reported by "+p.DisplayName())
			emptyKeys = append(emptyKeys, key)
			continue
		}

		// Select at pre-generation width so background rendering can
		// cover more planes than the interactive response returns. The
		// orchestrator truncates for the caller.
		width := g.selCfg.PreGenMax
		if width <= 0 {
			width = g.selCfg.MaxResults
		}
		selected := selection.Select(observations, lat, lng, width, g.selCfg)
		if len(selected) == 0 {
			// Everything filtered out (e.g. cargo-only traffic); treat
			// it the same as a legitimately empty vendor answer.
			reasons = append(reasons, "No aircraft reported by "+p.DisplayName())
			emptyKeys = append(emptyKeys, key)
			continue
		}

		g.writeList(ctx, key, selected)
		for _, ek := range emptyKeys {
			g.writeList(ctx, ek, []flight.Observation{})
		}

		return selected, ""
	}

	// A vendor that answered empty still counts as attempted, so mark its
	// cell to suppress rapid retries.
	for _, ek := range emptyKeys {
		g.writeList(ctx, ek, []flight.Observation{})
	}

	if !attempted && len(reasons) == 0 {
		return nil, ErrNoProviders
	}
	if len(reasons) == 0 {
		return nil, "No aircraft found within radius"
	}
	return nil, strings.Join(reasons, "; ")
}

// writeList marshals a selection into the aircraft-list cache. Failures are
// logged and swallowed: the data was already served from the fresh fetch.
func (g *Gateway) writeList(ctx context.Context, key string, observations []flight.Observation) {
	payload, err := json.Marshal(observations)
	if err != nil {
		log.Printf("gateway: marshal failed for %s: %v", key, err)
		return
	}
	g.cache.Set(ctx, key, payload, cache.VariantAircraft)
}
