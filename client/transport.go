package client

import (
	"net/http"

	"github.com/panyam/mesto"
)

// CookieTransport wraps an http.RoundTripper to send the session cookie
type CookieTransport struct {
	Base  http.RoundTripper
	Token string
}

// RoundTrip implements http.RoundTripper
func (t *CookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Token != "" {
		// Clone the request to avoid mutating the original
		req2 := req.Clone(req.Context())
		req2.AddCookie(&http.Cookie{Name: mesto.CookieName, Value: t.Token})
		req = req2
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(req)
}

// NewCookieTransport creates a CookieTransport with the given token
func NewCookieTransport(token string) *CookieTransport {
	return &CookieTransport{
		Base:  http.DefaultTransport,
		Token: token,
	}
}

// storeTransport reads the token from the client's store on every request
type storeTransport struct {
	client *Client
	base   http.RoundTripper
}

func (t *storeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.client.Token()
	if err != nil {
		return nil, err
	}
	return (&CookieTransport{Base: t.base, Token: token}).RoundTrip(req)
}
