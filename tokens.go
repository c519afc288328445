package mesto

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of an issued token.
const TokenTTL = 7 * 24 * time.Hour

// Claims is the payload of a Mesto token.
type Claims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, time bounded tokens. The key is
// fixed at construction and never changes afterwards.
type TokenService struct {
	key []byte
	ttl time.Duration

	// Now is the clock used for iat/exp. Tests may replace it.
	Now func() time.Time
}

// NewTokenService creates a TokenService signing with secret. A zero ttl
// means TokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: no token signing key configured", ErrConfig)
	}
	if ttl <= 0 {
		ttl = TokenTTL
	}
	return &TokenService{key: []byte(secret), ttl: ttl, Now: time.Now}, nil
}

// TTL returns the lifetime given to issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue mints a token for subject and returns it with its expiry.
func (s *TokenService) Issue(subject ID) (string, time.Time, error) {
	now := s.Now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID: subject.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the subject. Every failure
// wraps ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (ID, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	subject, err := ParseID(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return subject, nil
}
