//go:build !wasm
// +build !wasm

package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/panyam/mesto"
)

// StringSlice is a helper type for storing string slices in GORM
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSlice) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// UserModel is the GORM model for users
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:24"`
	Name         string    `gorm:"size:30"`
	About        string    `gorm:"size:200"`
	Avatar       string    `gorm:"size:2048"`
	Email        string    `gorm:"size:320;uniqueIndex"`
	PasswordHash string    `gorm:"size:72"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser(withHash bool) *mesto.User {
	u := &mesto.User{
		ID:     mesto.ID(m.ID),
		Name:   m.Name,
		About:  m.About,
		Avatar: m.Avatar,
		Email:  m.Email,
	}
	if withHash {
		u.PasswordHash = m.PasswordHash
	}
	return u
}

func UserToModel(u *mesto.User) *UserModel {
	return &UserModel{
		ID:           u.ID.String(),
		Name:         u.Name,
		About:        u.About,
		Avatar:       u.Avatar,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

// CardModel is the GORM model for cards
type CardModel struct {
	ID        string      `gorm:"primaryKey;size:24"`
	Name      string      `gorm:"size:30"`
	Link      string      `gorm:"size:2048"`
	OwnerID   string      `gorm:"size:24;index"`
	Likes     StringSlice `gorm:"type:jsonb"`
	CreatedAt time.Time   `gorm:"index"`
}

func (CardModel) TableName() string {
	return "cards"
}

func (m *CardModel) ToCard() *mesto.Card {
	c := &mesto.Card{
		ID:        mesto.ID(m.ID),
		Name:      m.Name,
		Link:      m.Link,
		Owner:     mesto.ID(m.OwnerID),
		Likes:     make([]mesto.ID, 0, len(m.Likes)),
		CreatedAt: m.CreatedAt,
	}
	for _, l := range m.Likes {
		c.Likes = append(c.Likes, mesto.ID(l))
	}
	return c
}

func CardToModel(c *mesto.Card) *CardModel {
	likes := make(StringSlice, 0, len(c.Likes))
	for _, l := range c.Likes {
		likes = append(likes, l.String())
	}
	return &CardModel{
		ID:        c.ID.String(),
		Name:      c.Name,
		Link:      c.Link,
		OwnerID:   c.Owner.String(),
		Likes:     likes,
		CreatedAt: c.CreatedAt,
	}
}
