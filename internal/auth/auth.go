// Package auth provides authentication and authorization for the scan API.
// It handles password hashing, access token generation/validation, and the
// free/paid tier gate.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Access tiers, lowest to highest.
const (
	TierFree  = "free"  // Pooled pre-rendered audio only
	TierPaid  = "paid"  // Live scans with per-location audio
	TierAdmin = "admin" // Account and pool management
)

var (
	// ErrInvalidCredentials is returned when authentication fails
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when token validation fails
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnauthorized is returned when an account lacks the required tier
	ErrUnauthorized = errors.New("unauthorized access")
)

// Claims represents the JWT claims for an account session.
type Claims struct {
	AccountID int    `json:"account_id"`
	Username  string `json:"username"`
	Tier      string `json:"tier"`
	jwt.RegisteredClaims
}

// Config holds authentication configuration.
type Config struct {
	JWTSecret     string        // Secret key for signing JWTs
	TokenDuration time.Duration // How long tokens are valid
	BCryptCost    int           // BCrypt hashing cost (default: 12)
}

// Service provides authentication operations.
type Service struct {
	config Config
}

// NewService creates a new authentication service.
func NewService(cfg Config) *Service {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = 24 * time.Hour
	}

	return &Service{
		config: cfg,
	}
}

// HashPassword hashes a plaintext password using bcrypt.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BCryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a plaintext password with a hashed password.
func (s *Service) ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateToken generates a JWT token for an account.
func (s *Service) GenerateToken(accountID int, username, tier string) (string, error) {
	claims := &Claims{
		AccountID: accountID,
		Username:  username,
		Tier:      tier,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "jetscan",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// FromRequest extracts and validates the bearer token from a request.
// A missing Authorization header is not an error; it returns nil claims so
// handlers can fall back to the free tier.
func (s *Service) FromRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, ErrInvalidToken
	}

	return s.ValidateToken(strings.TrimSpace(raw))
}

// HasTier checks if an account tier meets a required tier.
// Tier hierarchy: Admin > Paid > Free.
func HasTier(accountTier, requiredTier string) bool {
	tierLevel := map[string]int{
		TierAdmin: 2,
		TierPaid:  1,
		TierFree:  0,
	}

	accountLevel, ok1 := tierLevel[accountTier]
	requiredLevel, ok2 := tierLevel[requiredTier]

	if !ok1 || !ok2 {
		return false
	}

	return accountLevel >= requiredLevel
}

// CanLiveScan checks if a tier gets live vendor-backed scans.
func CanLiveScan(tier string) bool {
	return HasTier(tier, TierPaid)
}

// CanManageAccounts checks if a tier can manage accounts.
func CanManageAccounts(tier string) bool {
	return tier == TierAdmin
}
