package mesto

import (
	"net/http"
)

// CookieName is the cookie carrying the token.
const CookieName = "jwt"

// Identity is the verified caller of a request. The zero value is anonymous;
// a non-zero Identity only comes out of Authenticate.
type Identity struct {
	subject ID
}

// Subject returns the id of the authenticated user.
func (i Identity) Subject() ID { return i.subject }

func (i Identity) IsZero() bool { return i.subject.IsZero() }

// TokenVerifier checks a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (ID, error)
}

// Authenticate turns a raw token into an Identity. Every failure is the same
// Unauthorized error so callers cannot tell a bad signature from an expired
// token; the cause is kept in Err for logging.
func Authenticate(v TokenVerifier, token string) (Identity, error) {
	if token == "" {
		return Identity{}, Unauthorized(MsgAuthRequired)
	}
	subject, err := v.Verify(token)
	if err != nil {
		return Identity{}, &Error{Kind: KindUnauthorized, Message: MsgAuthRequired, Err: err}
	}
	return Identity{subject: subject}, nil
}

// AuthenticatedHandler is a handler that only runs for a verified caller.
type AuthenticatedHandler func(w http.ResponseWriter, r *http.Request, id Identity) error

// Middleware guards routes with the jwt cookie.
type Middleware struct {
	Verifier   TokenVerifier
	CookieName string
}

func (m *Middleware) cookieName() string {
	if m.CookieName == "" {
		return CookieName
	}
	return m.CookieName
}

// RequireIdentity reads the token cookie, verifies it and hands the Identity
// to next. Requests without a valid token get 401 and next is not called.
func (m *Middleware) RequireIdentity(next AuthenticatedHandler) HandlerWithError {
	return func(w http.ResponseWriter, r *http.Request) error {
		var token string
		if c, err := r.Cookie(m.cookieName()); err == nil {
			token = c.Value
		}
		id, err := Authenticate(m.Verifier, token)
		if err != nil {
			return err
		}
		return next(w, r, id)
	}
}
