package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/panyam/mesto"
	"github.com/panyam/mesto/stores/fs"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	tokens, err := mesto.NewTokenService("client-test-secret", mesto.TokenTTL)
	require.NoError(t, err)
	srv := mesto.NewServer(mesto.ServerConfig{
		Users:  fs.NewUserStore(dir),
		Cards:  fs.NewCardStore(dir),
		Hasher: mesto.NewBcryptHasher(bcrypt.MinCost),
		Tokens: tokens,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func signedIn(t *testing.T, ts *httptest.Server, email string) *Client {
	t.Helper()
	ctx := context.Background()
	c := New(ts.URL, NewMemoryStore())
	_, err := c.Signup(ctx, mesto.SignupRequest{Email: email, Password: "secret-pass"})
	require.NoError(t, err)
	_, err = c.Login(ctx, email, "secret-pass")
	require.NoError(t, err)
	return c
}

func TestClient_SignupLoginMe(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	c := New(ts.URL, NewMemoryStore())

	user, err := c.Signup(ctx, mesto.SignupRequest{Email: "ann@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, mesto.DefaultName, user.Name)
	assert.False(t, c.IsLoggedIn(), "signup must not sign in")

	cred, err := c.Login(ctx, "ann@example.com", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, user.ID.String(), cred.UserID)
	assert.True(t, c.IsLoggedIn())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, "ann@example.com", me.Email)
}

func TestClient_LoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	c := New(ts.URL, NewMemoryStore())
	_, err := c.Signup(ctx, mesto.SignupRequest{Email: "bob@example.com", Password: "right"})
	require.NoError(t, err)

	_, err = c.Login(ctx, "bob@example.com", "wrong")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, mesto.MsgInvalidCredentials, apiErr.Message)
	assert.False(t, c.IsLoggedIn())
}

func TestClient_Logout(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	c := signedIn(t, ts, "cat@example.com")

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.IsLoggedIn())

	_, err := c.Me(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestClient_ProfileUpdates(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	c := signedIn(t, ts, "dan@example.com")

	user, err := c.UpdateProfile(ctx, "Dan", "Diver")
	require.NoError(t, err)
	assert.Equal(t, "Dan", user.Name)
	assert.Equal(t, "Diver", user.About)

	user, err = c.UpdateAvatar(ctx, "https://example.com/dan.png")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/dan.png", user.Avatar)

	_, err = c.UpdateAvatar(ctx, "not-a-url")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestClient_CardLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	owner := signedIn(t, ts, "owner@example.com")
	other := signedIn(t, ts, "other@example.com")

	cards, err := owner.ListCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)

	card, err := owner.CreateCard(ctx, "Lake", "https://example.com/lake.jpg")
	require.NoError(t, err)
	ownerMe, err := owner.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, ownerMe.ID, card.Owner)

	liked, err := other.LikeCard(ctx, card.ID.String())
	require.NoError(t, err)
	assert.Len(t, liked.Likes, 1)

	liked, err = other.LikeCard(ctx, card.ID.String())
	require.NoError(t, err)
	assert.Len(t, liked.Likes, 1, "liking twice keeps one like")

	unliked, err := other.DislikeCard(ctx, card.ID.String())
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)

	_, err = other.DeleteCard(ctx, card.ID.String())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, mesto.MsgForeignCard, apiErr.Message)

	deleted, err := owner.DeleteCard(ctx, card.ID.String())
	require.NoError(t, err)
	assert.Equal(t, card.ID, deleted.ID)

	_, err = owner.DeleteCard(ctx, card.ID.String())
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_Unauthenticated(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL, nil)

	_, err := c.ListCards(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, mesto.MsgAuthRequired, apiErr.Message)
}
