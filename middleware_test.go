package mesto

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	tokens := newTestTokens(t)
	id := NewID()
	token, _, err := tokens.Issue(id)
	require.NoError(t, err)

	identity, err := Authenticate(tokens, token)
	require.NoError(t, err)
	assert.Equal(t, id, identity.Subject())
	assert.False(t, identity.IsZero())

	for _, bad := range []string{"", "garbage"} {
		identity, err := Authenticate(tokens, bad)
		assert.True(t, identity.IsZero())
		assert.Equal(t, KindUnauthorized, KindOf(err))
		assert.Equal(t, MsgAuthRequired, PublicMessage(err))
	}
}

func TestRequireIdentity(t *testing.T) {
	tokens := newTestTokens(t)
	m := &Middleware{Verifier: tokens}
	userID := NewID()
	token, _, err := tokens.Issue(userID)
	require.NoError(t, err)

	var called bool
	var seen Identity
	h := m.RequireIdentity(func(w http.ResponseWriter, r *http.Request, id Identity) error {
		called = true
		seen = id
		return nil
	})

	t.Run("valid cookie", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		require.NoError(t, h(httptest.NewRecorder(), req))
		assert.True(t, called)
		assert.Equal(t, userID, seen.Subject())
	})

	t.Run("no cookie", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		err := h(httptest.NewRecorder(), req)
		assert.Equal(t, KindUnauthorized, KindOf(err))
		assert.False(t, called)
	})

	t.Run("bearer header is not enough", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		err := h(httptest.NewRecorder(), req)
		assert.Equal(t, KindUnauthorized, KindOf(err))
		assert.False(t, called)
	})

	t.Run("invalid cookie keeps cause", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token + "x"})
		err := h(httptest.NewRecorder(), req)
		assert.True(t, errors.Is(err, ErrTokenInvalid))
		assert.False(t, called)
	})
}

func TestRequireIdentity_CustomCookieName(t *testing.T) {
	tokens := newTestTokens(t)
	m := &Middleware{Verifier: tokens, CookieName: "session"}
	token, _, err := tokens.Issue(NewID())
	require.NoError(t, err)

	h := m.RequireIdentity(func(w http.ResponseWriter, r *http.Request, id Identity) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	assert.Error(t, h(httptest.NewRecorder(), req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	assert.NoError(t, h(httptest.NewRecorder(), req))
}
