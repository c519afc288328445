package mesto

import (
	"context"
	"time"
)

// Profile defaults applied at signup when a field is omitted.
const (
	DefaultName   = "Жак-Ив Кусто"
	DefaultAbout  = "Исследователь"
	DefaultAvatar = "https://pictures.s3.yandex.net/resources/avatar_1604080799.jpg"
)

// User is a registered account. PasswordHash is only populated by
// UserStore.GetUserByEmail and is never serialised.
type User struct {
	ID           ID     `json:"_id"`
	Name         string `json:"name"`
	About        string `json:"about"`
	Avatar       string `json:"avatar"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Card is a photo card. Owner is set once at creation.
type Card struct {
	ID        ID        `json:"_id"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	Owner     ID        `json:"owner"`
	Likes     []ID      `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasLike reports whether id is among the card's likes.
func (c *Card) HasLike(id ID) bool {
	for _, l := range c.Likes {
		if l == id {
			return true
		}
	}
	return false
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	Name   *string
	About  *string
	Avatar *string
}

// UserStore persists users. Lookups return ErrNotFound when nothing matches;
// CreateUser returns ErrDuplicate when the email is taken.
type UserStore interface {
	// CreateUser stores user, assigning an ID if it has none.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// GetUserByID returns the user without its password hash.
	GetUserByID(ctx context.Context, id ID) (*User, error)

	// GetUserByEmail returns the user including its password hash.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	ListUsers(ctx context.Context) ([]*User, error)

	UpdateUser(ctx context.Context, id ID, update ProfileUpdate) (*User, error)
}

// CardStore persists cards. Operations on a missing card return ErrNotFound.
type CardStore interface {
	CreateCard(ctx context.Context, card *Card) (*Card, error)
	GetCard(ctx context.Context, id ID) (*Card, error)
	ListCards(ctx context.Context) ([]*Card, error)
	DeleteCard(ctx context.Context, id ID) error

	// AddLike adds userID to the card's likes if it is not there already.
	AddLike(ctx context.Context, cardID, userID ID) (*Card, error)

	// RemoveLike removes userID from the card's likes. Absent is not an error.
	RemoveLike(ctx context.Context, cardID, userID ID) (*Card, error)
}
