package mesto

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret, 0)
	require.NoError(t, err)
	return s
}

func TestTokenService_IssueVerify(t *testing.T) {
	s := newTestTokens(t)
	id := NewID()

	token, expiresAt, err := s.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

	got, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenService_DefaultTTL(t *testing.T) {
	s := newTestTokens(t)
	assert.Equal(t, TokenTTL, s.TTL())
	assert.Equal(t, 7*24*time.Hour, TokenTTL)
}

func TestTokenService_EmptyKey(t *testing.T) {
	_, err := NewTokenService("", TokenTTL)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestTokenService_Expired(t *testing.T) {
	s := newTestTokens(t)
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	s.Now = func() time.Time { return issuedAt }
	token, _, err := s.Issue(NewID())
	require.NoError(t, err)

	s.Now = time.Now
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_StillValidJustBeforeExpiry(t *testing.T) {
	s := newTestTokens(t)
	start := time.Now()
	s.Now = func() time.Time { return start }
	token, _, err := s.Issue(NewID())
	require.NoError(t, err)

	s.Now = func() time.Time { return start.Add(TokenTTL - time.Minute) }
	_, err = s.Verify(token)
	assert.NoError(t, err)
}

func TestTokenService_ForeignKey(t *testing.T) {
	s := newTestTokens(t)
	other, err := NewTokenService("another-key", 0)
	require.NoError(t, err)

	token, _, err := other.Issue(NewID())
	require.NoError(t, err)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_Tampered(t *testing.T) {
	s := newTestTokens(t)
	token, _, err := s.Issue(NewID())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = s.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.Verify("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokens(t)
	claims := Claims{
		UserID: NewID().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.Verify(hs512)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	s := newTestTokens(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: NewID().String()}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_BadSubject(t *testing.T) {
	s := newTestTokens(t)
	claims := Claims{
		UserID: "not-an-id",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.True(t, errors.Is(err, ErrTokenInvalid))
}
