package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/panyam/mesto"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mesto: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client talks to one Mesto server
type Client struct {
	mu            sync.Mutex
	serverURL     string
	store         CredentialStore
	httpClient    *http.Client
	baseTransport http.RoundTripper
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom base HTTP client (for timeouts, TLS config, etc.)
// The transport from this client will be wrapped with cookie handling.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil && client.Transport != nil {
			c.baseTransport = client.Transport
		}
		if client != nil {
			c.httpClient.Timeout = client.Timeout
		}
	}
}

// WithTransport sets a custom base transport
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.baseTransport = transport
	}
}

// New creates a client for serverURL. A nil store keeps the session in
// memory only.
func New(serverURL string, store CredentialStore, opts ...ClientOption) *Client {
	// Normalize server URL
	u, err := url.Parse(serverURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	}
	if store == nil {
		store = NewMemoryStore()
	}

	c := &Client{
		serverURL:     serverURL,
		store:         store,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Transport = &storeTransport{client: c, base: c.baseTransport}
	return c
}

// ServerURL returns the server URL this client is configured for
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Token returns the stored token, or "" if there is none or it expired.
func (c *Client) Token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cred, err := c.store.GetCredential(c.serverURL)
	if err != nil {
		return "", err
	}
	if cred == nil || cred.IsExpired() {
		return "", nil
	}
	return cred.Token, nil
}

// Credential returns the stored credential for this server
func (c *Client) Credential() (*ServerCredential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.GetCredential(c.serverURL)
}

// IsLoggedIn returns true if there is a non-expired credential
func (c *Client) IsLoggedIn() bool {
	token, err := c.Token()
	return err == nil && token != ""
}

// Signup registers a new account. It does not sign in.
func (c *Client) Signup(ctx context.Context, req mesto.SignupRequest) (*mesto.User, error) {
	var user mesto.User
	if _, err := c.do(ctx, http.MethodPost, "/signup", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login signs in and stores the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*ServerCredential, error) {
	resp, err := c.do(ctx, http.MethodPost, "/signin", mesto.LoginRequest{Email: email, Password: password}, nil)
	if err != nil {
		return nil, err
	}

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == mesto.CookieName && ck.Value != "" {
			cookie = ck
		}
	}
	if cookie == nil {
		return nil, fmt.Errorf("mesto: signin response carried no %s cookie", mesto.CookieName)
	}

	now := time.Now()
	cred := &ServerCredential{
		Token:     cookie.Value,
		UserEmail: email,
		CreatedAt: now,
	}
	switch {
	case cookie.MaxAge > 0:
		cred.ExpiresAt = now.Add(time.Duration(cookie.MaxAge) * time.Second)
	case !cookie.Expires.IsZero():
		cred.ExpiresAt = cookie.Expires
	default:
		cred.ExpiresAt = now.Add(mesto.TokenTTL)
	}
	if err := c.saveCredential(cred); err != nil {
		return nil, err
	}

	if me, err := c.Me(ctx); err == nil {
		cred.UserID = me.ID.String()
		if err := c.saveCredential(cred); err != nil {
			return nil, err
		}
	}
	return cred, nil
}

func (c *Client) saveCredential(cred *ServerCredential) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SetCredential(c.serverURL, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	if err := c.store.Save(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Logout tells the server to clear the cookie and forgets the local
// credential. The local credential is removed even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	var serverErr error
	if c.IsLoggedIn() {
		_, serverErr = c.do(ctx, http.MethodPost, "/signout", nil, nil)
		if IsStatus(serverErr, http.StatusUnauthorized) {
			serverErr = nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.RemoveCredential(c.serverURL); err != nil {
		return err
	}
	if err := c.store.Save(); err != nil {
		return err
	}
	return serverErr
}

func (c *Client) Me(ctx context.Context) (*mesto.User, error) {
	var user mesto.User
	if _, err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*mesto.User, error) {
	var user mesto.User
	if _, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]*mesto.User, error) {
	var users []*mesto.User
	if _, err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name, about string) (*mesto.User, error) {
	var user mesto.User
	if _, err := c.do(ctx, http.MethodPatch, "/users/me", mesto.ProfileRequest{Name: name, About: about}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateAvatar(ctx context.Context, avatar string) (*mesto.User, error) {
	var user mesto.User
	if _, err := c.do(ctx, http.MethodPatch, "/users/me/avatar", mesto.AvatarRequest{Avatar: avatar}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListCards returns all cards. An empty server answers 404, which is
// returned here as an empty list.
func (c *Client) ListCards(ctx context.Context) ([]*mesto.Card, error) {
	var cards []*mesto.Card
	if _, err := c.do(ctx, http.MethodGet, "/cards", nil, &cards); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && apiErr.Message == mesto.MsgNoCards {
			return []*mesto.Card{}, nil
		}
		return nil, err
	}
	return cards, nil
}

func (c *Client) CreateCard(ctx context.Context, name, link string) (*mesto.Card, error) {
	var card mesto.Card
	if _, err := c.do(ctx, http.MethodPost, "/cards", mesto.CardRequest{Name: name, Link: link}, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) DeleteCard(ctx context.Context, id string) (*mesto.Card, error) {
	return c.cardCall(ctx, http.MethodDelete, "/cards/"+url.PathEscape(id))
}

func (c *Client) LikeCard(ctx context.Context, id string) (*mesto.Card, error) {
	return c.cardCall(ctx, http.MethodPut, "/cards/"+url.PathEscape(id)+"/likes")
}

func (c *Client) DislikeCard(ctx context.Context, id string) (*mesto.Card, error) {
	return c.cardCall(ctx, http.MethodDelete, "/cards/"+url.PathEscape(id)+"/likes")
}

func (c *Client) cardCall(ctx context.Context, method, path string) (*mesto.Card, error) {
	var card mesto.Card
	if _, err := c.do(ctx, method, path, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// do sends a JSON request and decodes a JSON answer into out. Non-2xx
// answers become *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return resp, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("invalid response from server: %w", err)
		}
	}
	return resp, nil
}
