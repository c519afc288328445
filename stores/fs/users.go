package fs

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/panyam/mesto"
)

// FSUser is the on-disk form of a user. Unlike mesto.User it keeps the
// password digest.
type FSUser struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	About        string    `json:"about"`
	Avatar       string    `json:"avatar"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *FSUser) toUser(withHash bool) *mesto.User {
	out := &mesto.User{
		ID:     mesto.ID(u.ID),
		Name:   u.Name,
		About:  u.About,
		Avatar: u.Avatar,
		Email:  u.Email,
	}
	if withHash {
		out.PasswordHash = u.PasswordHash
	}
	return out
}

// fsEmail reserves an email for one user id.
type fsEmail struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

// UserStore implements mesto.UserStore with one JSON file per user.
//
// # File Structure
//
//	{StoragePath}/
//	├── users/
//	│   └── <id>.json      # FSUser
//	└── emails/
//	    └── <b64 email>.json  # {"email": ..., "user_id": ...}
//
// The email file is written before the user file so a crash leaves at most
// a dangling reservation. All writes go through one mutex; the store is safe
// for use by one process only.
type UserStore struct {
	StoragePath string

	mu sync.RWMutex
}

func NewUserStore(storagePath string) *UserStore {
	return &UserStore{StoragePath: storagePath}
}

func (s *UserStore) userPath(id mesto.ID) string {
	return filepath.Join(s.StoragePath, "users", id.String()+".json")
}

func (s *UserStore) emailPath(email string) string {
	// emails may contain characters that are not safe in file names
	key := base64.RawURLEncoding.EncodeToString([]byte(email))
	return filepath.Join(s.StoragePath, "emails", key+".json")
}

func (s *UserStore) readUser(id mesto.ID) (*FSUser, error) {
	var u FSUser
	if err := readJSON(s.userPath(id), &u); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("user %s: %w", id, mesto.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *mesto.User) (*mesto.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = mesto.NewID()
	}
	epath := s.emailPath(user.Email)
	if _, err := os.Stat(epath); err == nil {
		return nil, fmt.Errorf("email %q: %w", user.Email, mesto.ErrDuplicate)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &FSUser{
		ID:           user.ID.String(),
		Name:         user.Name,
		About:        user.About,
		Avatar:       user.Avatar,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := writeJSON(epath, &fsEmail{Email: user.Email, UserID: rec.ID}); err != nil {
		return nil, err
	}
	if err := writeJSON(s.userPath(user.ID), rec); err != nil {
		os.Remove(epath)
		return nil, err
	}
	return rec.toUser(false), nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id mesto.ID) (*mesto.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.readUser(id)
	if err != nil {
		return nil, err
	}
	return u.toUser(false), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*mesto.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e fsEmail
	if err := readJSON(s.emailPath(email), &e); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("email %q: %w", email, mesto.ErrNotFound)
		}
		return nil, err
	}
	u, err := s.readUser(mesto.ID(e.UserID))
	if err != nil {
		return nil, err
	}
	return u.toUser(true), nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*mesto.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := listJSON(filepath.Join(s.StoragePath, "users"))
	if err != nil {
		return nil, err
	}
	recs := make([]*FSUser, 0, len(paths))
	for _, p := range paths {
		var u FSUser
		if err := readJSON(p, &u); err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		recs = append(recs, &u)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	out := make([]*mesto.User, len(recs))
	for i, u := range recs {
		out[i] = u.toUser(false)
	}
	return out, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, id mesto.ID, update mesto.ProfileUpdate) (*mesto.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.readUser(id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.About != nil {
		u.About = *update.About
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	u.UpdatedAt = time.Now().UTC()
	if err := writeJSON(s.userPath(id), u); err != nil {
		return nil, err
	}
	return u.toUser(false), nil
}
