// Package tts abstracts the text-to-speech vendors. Each vendor turns
// narration text into audio bytes; failure is reported as a descriptive
// string so the registry can fall back to the next vendor, and ultimately
// the caller can degrade to text-only.
package tts

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout bounds every vendor synthesis request.
const DefaultTimeout = 30 * time.Second

// Vendor is a single text-to-speech service.
//
// GenerateAudio returns the rendered audio and an empty string on success,
// or empty bytes and a reason on failure. It must not return a Go error for
// ordinary vendor trouble.
type Vendor interface {
	// Name is the registry key, also embedded in per-vendor cache keys
	Name() string

	// DisplayName is the human-facing vendor name for logs
	DisplayName() string

	// IsConfigured reports whether the vendor can be called
	IsConfigured() (bool, string)

	// GenerateAudio synthesizes speech for text
	GenerateAudio(ctx context.Context, text string) ([]byte, string)

	// AudioFormat returns the container extension and MIME type the
	// vendor produces (e.g. "mp3", "audio/mpeg")
	AudioFormat() (ext, mime string)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
