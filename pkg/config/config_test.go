package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}

	// Database defaults
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.Enabled {
		t.Error("Expected history persistence disabled by default")
	}

	// Provider defaults
	if cfg.Providers.Primary != "airlabs" {
		t.Errorf("Expected airlabs primary, got %s", cfg.Providers.Primary)
	}
	if len(cfg.Providers.Fallbacks) != 2 || cfg.Providers.Fallbacks[1] != "opensky" {
		t.Errorf("Expected fr24,opensky fallbacks, got %v", cfg.Providers.Fallbacks)
	}

	// Scan defaults
	if cfg.Scan.RadiusKm != 100 {
		t.Errorf("Expected 100km radius, got %v", cfg.Scan.RadiusKm)
	}
	if cfg.Scan.MaxResults != 3 {
		t.Errorf("Expected 3 max results, got %d", cfg.Scan.MaxResults)
	}
	if cfg.Scan.DebounceSeconds != 30 {
		t.Errorf("Expected 30s debounce, got %d", cfg.Scan.DebounceSeconds)
	}

	// Cache defaults
	if cfg.Cache.AircraftTTLMinutes != 5 {
		t.Errorf("Expected 5 minute aircraft TTL, got %d", cfg.Cache.AircraftTTLMinutes)
	}
	if cfg.Cache.AudioTTLMinutes != 10 {
		t.Errorf("Expected 10 minute audio TTL, got %d", cfg.Cache.AudioTTLMinutes)
	}

	// Auth defaults
	if cfg.Auth.TokenDurationHours != 24 {
		t.Errorf("Expected 24 hour tokens, got %d", cfg.Auth.TokenDurationHours)
	}
	if cfg.Auth.BCryptCost != 12 {
		t.Errorf("Expected bcrypt cost 12, got %d", cfg.Auth.BCryptCost)
	}
}

// TestLoadMissingFile verifies defaults are returned for a missing file.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.json"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected defaults for missing file, got port %s", cfg.Server.Port)
	}
}

// TestLoadFromFile verifies a config file round trip.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	want := DefaultConfig()
	want.Server.Port = "9090"
	want.Providers.Primary = "fr24"
	want.Scan.PreGenMax = 2

	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", got.Server.Port)
	}
	if got.Providers.Primary != "fr24" {
		t.Errorf("Expected fr24 primary, got %s", got.Providers.Primary)
	}
	if got.Scan.PreGenMax != 2 {
		t.Errorf("Expected pre-gen max 2, got %d", got.Scan.PreGenMax)
	}
}

// TestEnvironmentOverrides verifies secrets can be injected via environment.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("JETSCAN_PORT", "7070")
	t.Setenv("JETSCAN_AIRLABS_API_KEY", "env-airlabs-key")
	t.Setenv("JETSCAN_ELEVENLABS_API_KEY", "env-eleven-key")
	t.Setenv("JETSCAN_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Expected env port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Providers.AirLabsAPIKey != "env-airlabs-key" {
		t.Errorf("AirLabs key override not applied: %q", cfg.Providers.AirLabsAPIKey)
	}
	if cfg.TTS.ElevenLabsAPIKey != "env-eleven-key" {
		t.Errorf("ElevenLabs key override not applied: %q", cfg.TTS.ElevenLabsAPIKey)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWT secret override not applied")
	}
}

// TestSaveCreatesDirectory verifies Save creates missing parent directories.
func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("saved config is not valid JSON: %v", err)
	}
}
