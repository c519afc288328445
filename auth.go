package mesto

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Authenticator runs the signin and signup flows.
type Authenticator struct {
	Users  UserStore
	Hasher PasswordHasher
	Tokens *TokenService

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAuthenticator wires the flows to their collaborators. The digest used
// for unknown emails is computed here so no signin pays for it.
func NewAuthenticator(users UserStore, hasher PasswordHasher, tokens *TokenService) *Authenticator {
	a := &Authenticator{Users: users, Hasher: hasher, Tokens: tokens}
	if hasher != nil {
		a.dummy()
	}
	return a
}

// LoginResult is what a successful signin produces. The HTTP layer turns it
// into the jwt cookie.
type LoginResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// Login checks email and password and issues a token for the account.
// Unknown email and wrong password fail identically.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	user, err := a.Users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, ErrNotFound) {
		// burn a comparison so a missing account costs the same as a bad password
		a.Hasher.Verify(req.Password, a.dummy())
		return nil, Unauthorized(MsgInvalidCredentials)
	} else if err != nil {
		return nil, Internal(fmt.Errorf("looking up %q: %w", req.Email, err))
	}

	if !a.Hasher.Verify(req.Password, user.PasswordHash) {
		return nil, Unauthorized(MsgInvalidCredentials)
	}

	token, expiresAt, err := a.Tokens.Issue(user.ID)
	if err != nil {
		return nil, Internal(err)
	}
	user.PasswordHash = ""
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Signup registers a new account. Omitted profile fields take their
// defaults. The returned user never carries the digest.
func (a *Authenticator) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, BadRequest("Поля email и password обязательны")
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	digest, err := a.Hasher.Hash(req.Password)
	if err != nil {
		if KindOf(err) == KindBadRequest {
			return nil, err
		}
		return nil, Internal(err)
	}

	user := &User{
		ID:           NewID(),
		Name:         orDefault(req.Name, DefaultName),
		About:        orDefault(req.About, DefaultAbout),
		Avatar:       orDefault(req.Avatar, DefaultAvatar),
		Email:        req.Email,
		PasswordHash: digest,
	}
	created, err := a.Users.CreateUser(ctx, user)
	if errors.Is(err, ErrDuplicate) {
		return nil, Conflict(MsgEmailTaken)
	} else if err != nil {
		return nil, Internal(fmt.Errorf("creating user: %w", err))
	}
	created.PasswordHash = ""
	return created, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		a.dummyDigest, _ = a.Hasher.Hash("mesto-no-such-account")
	})
	return a.dummyDigest
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
