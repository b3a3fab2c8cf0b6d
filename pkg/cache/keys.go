package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// GenerateKey derives the deterministic location hash for a coordinate.
// Coordinates are rounded to 2 decimal places (~1 km grid) so nearby
// requests share cache entries; an optional namespace (typically the live
// data provider name) keeps variants of the same physical location apart.
//
// The function is pure: identical inputs always produce the identical hash.
func GenerateKey(lat, lng float64, namespace string) string {
	locationStr := fmt.Sprintf("%.2f,%.2f", lat, lng)
	if namespace != "" {
		locationStr += ":" + namespace
	}
	sum := md5.Sum([]byte(locationStr))
	return hex.EncodeToString(sum[:])
}

// ScanAudioKey names the combined scan narration MP3 for a location hash.
func ScanAudioKey(hash string) string {
	return hash + ".mp3"
}

// AircraftListKey names the cached aircraft selection document for a
// location hash.
func AircraftListKey(hash string) string {
	return hash + "_aircraft.json"
}

// PlaneAudioKey names a per-plane narration asset. planeIndex is 1-based;
// vendor is the TTS vendor name baked into the key so switching vendors
// never serves mismatched voices; ext is the vendor's audio extension.
func PlaneAudioKey(hash string, planeIndex int, vendor, ext string) string {
	return fmt.Sprintf("%s_plane%d_%s.%s", hash, planeIndex, vendor, ext)
}

// PlaneBodyKey names the body segment of a per-plane narration, the part
// reused by the free pool.
func PlaneBodyKey(hash string, planeIndex int, vendor, ext string) string {
	return fmt.Sprintf("%s_plane%d_body_%s.%s", hash, planeIndex, vendor, ext)
}
