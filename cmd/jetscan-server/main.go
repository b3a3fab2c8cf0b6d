// JetScan API server.
// Serves live aircraft scans with narrated audio for paid listeners and
// pooled pre-rendered sessions for the free tier.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/jetscan-audio/jetscan/internal/analytics"
	"github.com/jetscan-audio/jetscan/internal/auth"
	"github.com/jetscan-audio/jetscan/internal/db"
	"github.com/jetscan-audio/jetscan/internal/freepool"
	"github.com/jetscan-audio/jetscan/internal/location"
	"github.com/jetscan-audio/jetscan/internal/scan"
	"github.com/jetscan-audio/jetscan/pkg/cache"
	"github.com/jetscan-audio/jetscan/pkg/config"
	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/narration"
	"github.com/jetscan-audio/jetscan/pkg/provider"
	"github.com/jetscan-audio/jetscan/pkg/selection"
	"github.com/jetscan-audio/jetscan/pkg/tts"
)

var configPath = flag.String("config", "configs/config.json", "Path to configuration file")

// scanHistoryMaxAge bounds the scans table; records older than this are
// pruned by the periodic cleanup loop.
const scanHistoryMaxAge = 30 * 24 * time.Hour

// Server holds the HTTP server and its dependencies.
type Server struct {
	router       *chi.Mux
	cfg          *config.Config
	cache        *cache.Cache
	orchestrator *scan.Orchestrator
	registry     *tts.Registry
	pool         *freepool.Pool
	resolver     *location.Resolver
	analytics    *analytics.Client
	authSvc      *auth.Service
	accountRepo  *db.AccountRepository
	scanRepo     *db.ScanRepository
	database     *db.DB
}

func main() {
	flag.Parse()

	// Local development secrets live in .env; absence is fine
	_ = godotenv.Load()

	log.Println("Starting JetScan server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		resolver: location.NewResolver(),
	}

	// Cache backend. The service degrades rather than fails when Redis is
	// unreachable, so connection errors surface per operation.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	s.cache = cache.New(redisClient, cache.Options{
		Prefix:      cfg.Redis.Prefix,
		AircraftTTL: time.Duration(cfg.Cache.AircraftTTLMinutes) * time.Minute,
		AudioTTL:    time.Duration(cfg.Cache.AudioTTLMinutes) * time.Minute,
	})

	// Aircraft vendors
	registry := map[string]provider.Provider{
		"airlabs": provider.NewAirLabs(cfg.Providers.AirLabsAPIKey),
		"fr24":    provider.NewFR24(cfg.Providers.FR24APIKey),
		"opensky": provider.NewOpenSky(),
	}
	chain := provider.BuildChain(cfg.Providers.Primary, cfg.Providers.Fallbacks, registry)

	selCfg := selection.DefaultConfig()
	if cfg.Scan.MaxResults > 0 {
		selCfg.MaxResults = cfg.Scan.MaxResults
	}
	if cfg.Scan.PreGenMax > 0 {
		selCfg.PreGenMax = cfg.Scan.PreGenMax
	}
	selCfg.IncludeCargo = cfg.Scan.IncludeCargo
	gateway := provider.NewGateway(s.cache, selCfg, chain...)

	// TTS vendors in configured preference order
	var vendors []tts.Vendor
	for _, name := range cfg.TTS.Order {
		switch name {
		case "elevenlabs":
			vendors = append(vendors, tts.NewElevenLabs(cfg.TTS.ElevenLabsAPIKey))
		case "inworld":
			vendors = append(vendors, tts.NewInworld(cfg.TTS.InworldAPIKey))
		default:
			log.Printf("Unknown TTS vendor %q in config, skipping", name)
		}
	}
	s.registry = tts.NewRegistry(vendors...)

	if cfg.Scan.FreePoolEnabled {
		s.pool = freepool.New(s.cache, s.registry)
	}

	s.analytics = analytics.New(cfg.Analytics.MixpanelToken)

	s.orchestrator = scan.New(gateway, s.registry, s.cache, s.pool, s.analytics, scan.Config{
		RadiusKm:       cfg.Scan.RadiusKm,
		FetchLimit:     cfg.Scan.FetchLimit,
		MaxResults:     cfg.Scan.MaxResults,
		PreGenMax:      cfg.Scan.PreGenMax,
		DebounceWindow: time.Duration(cfg.Scan.DebounceSeconds) * time.Second,
	})

	s.authSvc = auth.NewService(auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenDuration: time.Duration(cfg.Auth.TokenDurationHours) * time.Hour,
		BCryptCost:    cfg.Auth.BCryptCost,
	})

	// Scan history persistence is optional; everything else runs without it
	if cfg.Database.Enabled {
		database, err := db.ReconnectWithRetry(cfg.Database, 5, time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.InitSchema(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		cancel()

		s.database = database
		s.accountRepo = db.NewAccountRepository(database)
		s.scanRepo = db.NewScanRepository(database)

		// Scan history is append-only; prune it in the background so the
		// table stays bounded.
		cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
		defer cleanupCancel()
		go database.RunCleanupLoop(cleanupCtx, time.Hour, scanHistoryMaxAge)
	}

	s.setupRoutes()

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight audio pre-generation land in the cache before exit
	s.orchestrator.WaitForBackground()

	log.Println("Server stopped")
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", s.handleLogin)
		r.Get("/free/scan", s.handleFreeScan)
		r.Get("/free/intro", s.handleFreeIntro)

		// Paid tier
		r.Group(func(r chi.Router) {
			r.Use(s.requireTier(auth.TierPaid))

			r.Get("/scan", s.handleScan)
			r.Get("/scan/audio", s.handleScanAudio)
		})

		r.Get("/system/status", s.handleSystemStatus)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

type contextKey string

const claimsKey contextKey = "claims"

// requireTier rejects requests whose bearer token does not meet the tier.
func (s *Server) requireTier(tier string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := s.authSvc.FromRequest(r)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
			if claims == nil {
				http.Error(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}
			if !auth.HasTier(claims.Tier, tier) {
				http.Error(w, "Insufficient access tier", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

// handleLogin exchanges credentials for an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.accountRepo == nil {
		http.Error(w, "Accounts are not enabled", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := s.accountRepo.GetByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := s.authSvc.ComparePassword(account.PasswordHash, req.Password); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !account.IsActive {
		http.Error(w, "Account is disabled", http.StatusForbidden)
		return
	}

	token, err := s.authSvc.GenerateToken(account.ID, account.Username, account.Tier)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	_ = s.accountRepo.UpdateLastLogin(r.Context(), account.ID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"account": map[string]interface{}{
			"id":       account.ID,
			"username": account.Username,
			"tier":     account.Tier,
		},
	})
}

// handleScan runs a live scan for the caller's coordinates.
// Coordinates come from lat/lng query parameters, falling back to IP
// geolocation when absent.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := coordinatesFromQuery(r)
	if !ok {
		ip := location.ClientIP(r)
		lat, lng = s.resolver.FromIP(r.Context(), ip)
		if !location.Resolved(lat, lng) {
			// Scanning around null island would burn vendor calls on
			// open ocean. Answer as an empty sky instead.
			msg := "Could not determine your location"
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"aircraft":    []flight.Observation{},
				"text":        narration.NoAircraftText(msg),
				"err_message": msg,
			})
			return
		}
	}

	clientID := location.ClientIP(r)
	if claims := claimsFrom(r); claims != nil {
		clientID = claims.Username
	}

	result := s.orchestrator.Scan(r.Context(), scan.Request{
		Lat:      lat,
		Lng:      lng,
		ClientID: clientID,
	})

	if s.scanRepo != nil {
		rec := &db.ScanRecord{
			ClientID:      clientID,
			Latitude:      lat,
			Longitude:     lng,
			RadiusKm:      s.cfg.Scan.RadiusKm,
			AircraftCount: len(result.Aircraft),
			ErrMessage:    result.ErrMessage,
		}
		if err := s.scanRepo.Insert(r.Context(), rec); err != nil {
			log.Printf("Failed to record scan: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"aircraft":    result.Aircraft,
		"text":        result.Text,
		"err_message": result.ErrMessage,
	})
}

// handleScanAudio serves pre-generated narration audio for one plane of a
// recent scan. Audio is rendered in the background after the scan response,
// so clients poll this until it lands.
func (s *Server) handleScanAudio(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := coordinatesFromQuery(r)
	if !ok {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}

	plane, err := strconv.Atoi(r.URL.Query().Get("plane"))
	if err != nil || plane < 1 {
		http.Error(w, "plane must be a positive integer", http.StatusBadRequest)
		return
	}

	vendor, ok := s.registry.Primary()
	if !ok {
		http.Error(w, "No TTS providers configured", http.StatusServiceUnavailable)
		return
	}
	ext, mime := vendor.AudioFormat()

	hash := cache.GenerateKey(lat, lng, "")
	key := cache.PlaneAudioKey(hash, plane, vendor.Name(), ext)

	payload, found := s.cache.Get(r.Context(), key, cache.VariantAudio)
	if !found {
		http.Error(w, "Audio not ready", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Write(payload)
}

// handleFreeScan serves a pooled session to free tier listeners, keyed by
// client IP so repeat requests within the hour replay the same session.
func (s *Server) handleFreeScan(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		http.Error(w, "Free tier is not enabled", http.StatusServiceUnavailable)
		return
	}

	ip := location.ClientIP(r)

	allowed, retryAfter := s.pool.Allow(ip)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	idx := s.pool.Index(r.Context())
	session := s.pool.SessionFor(ip, idx)

	s.analytics.Track("free_scan_served", map[string]interface{}{
		"pool_empty": session == nil,
	}, "")

	if session == nil {
		s.serveAudio(w, s.pool.EmptyPoolAudio(r.Context()))
		return
	}

	audio, ok := s.pool.SessionAudio(r.Context(), session)
	if !ok {
		s.serveAudio(w, s.pool.EmptyPoolAudio(r.Context()))
		return
	}

	s.serveAudio(w, audio)
}

// handleFreeIntro serves the static free tier introduction clip.
func (s *Server) handleFreeIntro(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		http.Error(w, "Free tier is not enabled", http.StatusServiceUnavailable)
		return
	}

	s.serveAudio(w, s.pool.StaticIntro(r.Context()))
}

func (s *Server) serveAudio(w http.ResponseWriter, payload []byte) {
	if len(payload) == 0 {
		http.Error(w, "Audio unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(payload)
}

// handleSystemStatus reports component health.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"cache_enabled":     s.cache.Enabled(),
		"free_pool_enabled": s.pool != nil,
		"database_enabled":  s.database != nil,
	}

	if s.database != nil {
		if stats, err := s.database.GetStats(r.Context()); err == nil {
			status["database"] = stats
		} else {
			status["database_error"] = err.Error()
		}
	}

	respondJSON(w, http.StatusOK, status)
}

func coordinatesFromQuery(r *http.Request) (lat, lng float64, ok bool) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" || lngStr == "" {
		return 0, 0, false
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}

	return lat, lng, true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
