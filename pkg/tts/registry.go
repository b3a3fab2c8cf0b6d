package tts

import (
	"context"
	"log"
	"strings"
)

// Registry holds the ordered text-to-speech fallback chain. The first
// configured vendor that produces audio wins; if every vendor fails, the
// caller degrades to text-only.
type Registry struct {
	order []Vendor
}

// NewRegistry builds a registry over the given vendor order.
func NewRegistry(vendors ...Vendor) *Registry {
	return &Registry{order: vendors}
}

// Vendor returns the registered vendor by name.
func (r *Registry) Vendor(name string) (Vendor, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range r.order {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// Names returns the registered vendor names in fallback order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, v := range r.order {
		names = append(names, v.Name())
	}
	return names
}

// Primary returns the first configured vendor, which callers use when a
// whole batch of segments must come from one voice.
func (r *Registry) Primary() (Vendor, bool) {
	for _, v := range r.order {
		if ok, _ := v.IsConfigured(); ok {
			return v, true
		}
	}
	return nil, false
}

// AudioFormat returns the container extension and MIME type for a vendor,
// defaulting to MP3 for unknown names.
func (r *Registry) AudioFormat(name string) (ext, mime string) {
	if v, ok := r.Vendor(name); ok {
		return v.AudioFormat()
	}
	return "mp3", "audio/mpeg"
}

// Generate synthesizes text through the first vendor that can produce
// audio. Returns the audio, the vendor that produced it, and an empty
// reason on success; on total failure, the joined per-vendor reasons.
func (r *Registry) Generate(ctx context.Context, text string) ([]byte, Vendor, string) {
	var reasons []string

	for _, v := range r.order {
		if ok, reason := v.IsConfigured(); !ok {
			if reason != "" {
				reasons = append(reasons, reason)
			}
			continue
		}

		audio, errMsg := v.GenerateAudio(ctx, text)
		if errMsg == "" && len(audio) > 0 {
			return audio, v, ""
		}
		log.Printf("tts: %s failed: %s", v.Name(), errMsg)
		if errMsg != "" {
			reasons = append(reasons, errMsg)
		}
	}

	if len(reasons) == 0 {
		return nil, nil, "No TTS providers configured"
	}
	return nil, nil, strings.Join(reasons, "; ")
}
