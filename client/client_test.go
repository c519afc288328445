package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestServerCredential_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "expired",
			expiresAt: time.Now().Add(-1 * time.Hour),
			want:      true,
		},
		{
			name:      "not expired",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name: "no expiry recorded",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ServerCredential{ExpiresAt: tt.expiresAt}
			if got := c.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("deleting: %w", &APIError{StatusCode: http.StatusForbidden, Message: "nope"})
	if !IsStatus(err, http.StatusForbidden) {
		t.Error("expected wrapped APIError to match 403")
	}
	if IsStatus(err, http.StatusNotFound) {
		t.Error("expected 404 not to match")
	}
	if IsStatus(errors.New("plain"), http.StatusForbidden) {
		t.Error("expected plain error not to match")
	}
}

func TestNew_NormalizesServerURL(t *testing.T) {
	c := New("http://localhost:3000/some/path?q=1", nil)
	if c.ServerURL() != "http://localhost:3000" {
		t.Errorf("ServerURL() = %q", c.ServerURL())
	}
}

func TestClient_TokenIgnoresExpired(t *testing.T) {
	store := NewMemoryStore()
	c := New("http://localhost:3000", store)
	store.SetCredential(c.ServerURL(), &ServerCredential{
		Token:     "old",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	token, err := c.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "" {
		t.Errorf("expected expired token to be ignored, got %q", token)
	}
	if c.IsLoggedIn() {
		t.Error("expected IsLoggedIn() to be false")
	}
}

func TestCookieTransport_AddsCookie(t *testing.T) {
	var got string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if c, err := r.Cookie("jwt"); err == nil {
			got = c.Value
		}
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})
	tr := &CookieTransport{Base: base, Token: "tok"}

	req, _ := http.NewRequest(http.MethodGet, "http://localhost/users/me", nil)
	if _, err := tr.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	if got != "tok" {
		t.Errorf("cookie = %q, want tok", got)
	}
	if _, err := req.Cookie("jwt"); err == nil {
		t.Error("original request must not be mutated")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
