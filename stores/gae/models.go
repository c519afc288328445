//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	"github.com/panyam/mesto"
)

// UserEntity is the Datastore entity for users
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Name         string         `datastore:"name,noindex"`
	About        string         `datastore:"about,noindex"`
	Avatar       string         `datastore:"avatar,noindex"`
	Email        string         `datastore:"email"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser(withHash bool) *mesto.User {
	u := &mesto.User{
		ID:     mesto.ID(e.Key.Name),
		Name:   e.Name,
		About:  e.About,
		Avatar: e.Avatar,
		Email:  e.Email,
	}
	if withHash {
		u.PasswordHash = e.PasswordHash
	}
	return u
}

// EmailEntity reserves an email for one user.
// Key is the email exactly as registered.
type EmailEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
}

// CardEntity is the Datastore entity for cards
type CardEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Name      string         `datastore:"name,noindex"`
	Link      string         `datastore:"link,noindex"`
	OwnerID   string         `datastore:"owner_id"`
	Likes     []string       `datastore:"likes"`
	CreatedAt time.Time      `datastore:"created_at"`
}

func (e *CardEntity) ToCard() *mesto.Card {
	c := &mesto.Card{
		ID:        mesto.ID(e.Key.Name),
		Name:      e.Name,
		Link:      e.Link,
		Owner:     mesto.ID(e.OwnerID),
		Likes:     make([]mesto.ID, 0, len(e.Likes)),
		CreatedAt: e.CreatedAt,
	}
	for _, l := range e.Likes {
		c.Likes = append(c.Likes, mesto.ID(l))
	}
	return c
}

func CardToEntity(c *mesto.Card, key *datastore.Key) *CardEntity {
	likes := make([]string, 0, len(c.Likes))
	for _, l := range c.Likes {
		likes = append(likes, l.String())
	}
	return &CardEntity{
		Key:       key,
		Name:      c.Name,
		Link:      c.Link,
		OwnerID:   c.Owner.String(),
		Likes:     likes,
		CreatedAt: c.CreatedAt,
	}
}
