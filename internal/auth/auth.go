// Package auth issues and validates credentials for the Nimbus API:
// owner login with argon2id password verification, HS256 session tokens,
// and long-lived API tokens for HTTPS git access.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/nimbusgit/nimbus/internal/types"
)

var (
	// ErrInvalidCredentials is returned when a login fails.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken is returned when a session token fails validation.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// argon2id parameters. Changing these invalidates no stored hashes - the
// parameters travel inside each encoded hash.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Claims is the JWT payload for session tokens.
type Claims struct {
	Role string `json:"role"` // owner, collaborator
	jwt.RegisteredClaims
}

// Config controls token signing and the owner identity.
type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	OwnerUsername string
	OwnerPassword string
}

// Service holds credentials in memory. Durable credential storage is an
// external concern; the service only needs verifiable material.
type Service struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger

	mu            sync.RWMutex
	ownerUsername string
	ownerHash     string
	apiTokens     map[uuid.UUID]types.APIToken
}

// NewService creates the auth service. When an owner password is
// configured it is hashed immediately; the plaintext is never retained.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	s := &Service{
		jwtSecret:     []byte(cfg.JWTSecret),
		tokenTTL:      cfg.TokenTTL,
		logger:        logger,
		ownerUsername: cfg.OwnerUsername,
		apiTokens:     make(map[uuid.UUID]types.APIToken),
	}

	if cfg.OwnerPassword != "" {
		hash, err := HashPassword(cfg.OwnerPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash owner password: %w", err)
		}
		s.ownerHash = hash
	}

	return s, nil
}

// ValidateOwnerLogin checks a username/password pair against the owner
// credentials.
func (s *Service) ValidateOwnerLogin(username, password string) error {
	s.mu.RLock()
	ownerUsername, ownerHash := s.ownerUsername, s.ownerHash
	s.mu.RUnlock()

	if ownerHash == "" {
		return fmt.Errorf("%w: no owner password configured", ErrInvalidCredentials)
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(ownerUsername)) != 1 {
		return ErrInvalidCredentials
	}
	if !VerifyPassword(password, ownerHash) {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken issues a signed session token for a subject and role.
func (s *Service) GenerateToken(subject, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateAPIKey produces a new random API token string.
func (s *Service) GenerateAPIKey() string {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		panic("auth: failed to read random bytes: " + err.Error())
	}
	return "nimbus_" + base64.RawURLEncoding.EncodeToString(raw)
}

// CreateAPIToken mints, stores, and returns a named API token. The
// plaintext appears only in the return value; storage keeps the hash.
func (s *Service) CreateAPIToken(name string) (types.APIToken, string, error) {
	if strings.TrimSpace(name) == "" {
		return types.APIToken{}, "", errors.New("auth: token name is required")
	}

	plaintext := s.GenerateAPIKey()
	token := types.APIToken{
		ID:        uuid.New(),
		Name:      name,
		TokenHash: hashAPIToken(plaintext),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.apiTokens[token.ID] = token
	s.mu.Unlock()

	s.logger.Info("created API token", "name", name, "token_id", token.ID)
	return token, plaintext, nil
}

// VerifyAPIToken reports whether a presented token matches a stored one.
func (s *Service) VerifyAPIToken(plaintext string) bool {
	hash := hashAPIToken(plaintext)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, token := range s.apiTokens {
		if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hash)) == 1 {
			if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
				continue
			}
			return true
		}
	}
	return false
}

// ListAPITokens returns the stored tokens (hashes only, never plaintext).
func (s *Service) ListAPITokens() []types.APIToken {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]types.APIToken, 0, len(s.apiTokens))
	for _, token := range s.apiTokens {
		tokens = append(tokens, token)
	}
	return tokens
}

// RevokeAPIToken removes a token by ID. Unknown IDs are a no-op.
func (s *Service) RevokeAPIToken(id uuid.UUID) {
	s.mu.Lock()
	delete(s.apiTokens, id)
	s.mu.Unlock()
}

func hashAPIToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// HashPassword produces a PHC-encoded argon2id hash.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks a password against a PHC-encoded argon2id hash.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1
}
