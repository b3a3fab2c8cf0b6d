package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
// Configuration is loaded from a JSON file with environment variable
// overrides for secrets.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Providers ProvidersConfig `json:"providers"`
	TTS       TTSConfig       `json:"tts"`
	Scan      ScanConfig      `json:"scan"`
	Cache     CacheConfig     `json:"cache"`
	Analytics AnalyticsConfig `json:"analytics"`
	Auth      AuthConfig      `json:"auth"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// AllowedOrigins lists CORS origins; "*" allows any
	AllowedOrigins []string `json:"allowed_origins"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver is the database driver (postgres)
	Driver string `json:"driver"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`

	// Enabled determines if scan history persistence should be used.
	// The service runs fully without a database; history is then skipped.
	Enabled bool `json:"enabled"`
}

// RedisConfig contains the shared cache backend settings.
type RedisConfig struct {
	// Addr is the Redis host:port
	Addr string `json:"addr"`

	// Password for Redis authentication (should be loaded from environment)
	Password string `json:"password"`

	// DB is the Redis logical database number
	DB int `json:"db"`

	// Prefix namespaces every key so multiple deployments can share one
	// backend
	Prefix string `json:"prefix"`
}

// ProvidersConfig contains aircraft data vendor settings.
type ProvidersConfig struct {
	// Primary is the vendor queried first (airlabs, fr24, opensky)
	Primary string `json:"primary"`

	// Fallbacks are tried in order when the primary fails or is empty
	Fallbacks []string `json:"fallbacks"`

	// AirLabsAPIKey authenticates against the AirLabs flights API
	AirLabsAPIKey string `json:"airlabs_api_key"`

	// FR24APIKey authenticates against the Flightradar24 live feed API
	FR24APIKey string `json:"fr24_api_key"`
}

// TTSConfig contains text-to-speech vendor settings.
type TTSConfig struct {
	// Order lists vendors by preference (elevenlabs, inworld)
	Order []string `json:"order"`

	// ElevenLabsAPIKey authenticates against the ElevenLabs API
	ElevenLabsAPIKey string `json:"elevenlabs_api_key"`

	// InworldAPIKey authenticates against the Inworld TTS API.
	// Accepts either a raw "key:secret" pair or its base64 form.
	InworldAPIKey string `json:"inworld_api_key"`
}

// ScanConfig tunes the scan pipeline.
type ScanConfig struct {
	// RadiusKm is the search radius around the listener
	RadiusKm float64 `json:"radius_km"`

	// FetchLimit pads vendor queries past the selection size so diversity
	// filtering has material to work with
	FetchLimit int `json:"fetch_limit"`

	// MaxResults caps the diverse selection returned per scan
	MaxResults int `json:"max_results"`

	// PreGenMax caps how many aircraft get audio pre-generated per scan
	PreGenMax int `json:"pre_gen_max"`

	// DebounceSeconds suppresses repeat pre-generation per client and
	// coordinate cell
	DebounceSeconds int `json:"debounce_seconds"`

	// IncludeCargo admits freight operators into the special slot of the
	// selection instead of excluding them
	IncludeCargo bool `json:"include_cargo"`

	// FreePoolEnabled feeds rendered sessions into the free tier pool
	FreePoolEnabled bool `json:"free_pool_enabled"`
}

// CacheConfig contains read-time freshness windows.
type CacheConfig struct {
	// AircraftTTLMinutes is how long a cached aircraft selection stays
	// fresh
	AircraftTTLMinutes int `json:"aircraft_ttl_minutes"`

	// AudioTTLMinutes is how long rendered audio stays fresh
	AudioTTLMinutes int `json:"audio_ttl_minutes"`
}

// AnalyticsConfig contains usage event reporting settings.
type AnalyticsConfig struct {
	// MixpanelToken enables event delivery when non-empty
	MixpanelToken string `json:"mixpanel_token"`
}

// AuthConfig contains access token settings.
type AuthConfig struct {
	// JWTSecret signs access tokens (should be loaded from environment)
	JWTSecret string `json:"jwt_secret"`

	// TokenDurationHours is how long issued tokens stay valid
	TokenDurationHours int `json:"token_duration_hours"`

	// BCryptCost is the password hashing cost (default: 12)
	BCryptCost int `json:"bcrypt_cost"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "jetscan",
			Username:     "jetscan",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			Enabled:      false,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			DB:     0,
			Prefix: "jetscan",
		},
		Providers: ProvidersConfig{
			Primary:   "airlabs",
			Fallbacks: []string{"fr24", "opensky"},
		},
		TTS: TTSConfig{
			Order: []string{"elevenlabs", "inworld"},
		},
		Scan: ScanConfig{
			RadiusKm:        100,
			FetchLimit:      10,
			MaxResults:      3,
			PreGenMax:       5,
			DebounceSeconds: 30,
			FreePoolEnabled: true,
		},
		Cache: CacheConfig{
			AircraftTTLMinutes: 5,
			AudioTTLMinutes:    10,
		},
		Auth: AuthConfig{
			TokenDurationHours: 24,
			BCryptCost:         12,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the
// config. This allows sensitive data like API keys to be kept out of config
// files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("JETSCAN_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbPassword := os.Getenv("JETSCAN_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if addr := os.Getenv("JETSCAN_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if redisPassword := os.Getenv("JETSCAN_REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}
	if key := os.Getenv("JETSCAN_AIRLABS_API_KEY"); key != "" {
		c.Providers.AirLabsAPIKey = key
	}
	if key := os.Getenv("JETSCAN_FR24_API_KEY"); key != "" {
		c.Providers.FR24APIKey = key
	}
	if key := os.Getenv("JETSCAN_ELEVENLABS_API_KEY"); key != "" {
		c.TTS.ElevenLabsAPIKey = key
	}
	if key := os.Getenv("JETSCAN_INWORLD_API_KEY"); key != "" {
		c.TTS.InworldAPIKey = key
	}
	if token := os.Getenv("JETSCAN_MIXPANEL_TOKEN"); token != "" {
		c.Analytics.MixpanelToken = token
	}
	if secret := os.Getenv("JETSCAN_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}
