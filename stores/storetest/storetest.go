// Package storetest checks a mesto.UserStore and mesto.CardStore pair
// against the behaviour every backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/mesto"
)

// Run exercises users and cards. Both must start empty.
func Run(t *testing.T, users mesto.UserStore, cards mesto.CardStore) {
	t.Run("Users", func(t *testing.T) { testUsers(t, users) })
	t.Run("Cards", func(t *testing.T) { testCards(t, cards) })
}

func newUser(email string) *mesto.User {
	return &mesto.User{
		ID:           mesto.NewID(),
		Name:         mesto.DefaultName,
		About:        mesto.DefaultAbout,
		Avatar:       mesto.DefaultAvatar,
		Email:        email,
		PasswordHash: "$2a$04$digestdigestdigestdigestdigestdigestdigestdigestdiges",
	}
}

func testUsers(t *testing.T, users mesto.UserStore) {
	ctx := context.Background()

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	ann := newUser("ann@example.com")
	created, err := users.CreateUser(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, created.ID)
	assert.Empty(t, created.PasswordHash)

	_, err = users.CreateUser(ctx, newUser("ann@example.com"))
	assert.ErrorIs(t, err, mesto.ErrDuplicate)

	got, err := users.GetUserByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Empty(t, got.PasswordHash)

	withHash, err := users.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, withHash.ID)
	assert.Equal(t, ann.PasswordHash, withHash.PasswordHash)

	_, err = users.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, mesto.ErrNotFound)
	_, err = users.GetUserByID(ctx, mesto.NewID())
	assert.ErrorIs(t, err, mesto.ErrNotFound)

	name, about := "Ann", "Diver"
	updated, err := users.UpdateUser(ctx, ann.ID, mesto.ProfileUpdate{Name: &name, About: &about})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, "Diver", updated.About)
	assert.Equal(t, mesto.DefaultAvatar, updated.Avatar)

	avatar := "https://example.com/ann.png"
	updated, err = users.UpdateUser(ctx, ann.ID, mesto.ProfileUpdate{Avatar: &avatar})
	require.NoError(t, err)
	assert.Equal(t, avatar, updated.Avatar)
	assert.Equal(t, "Ann", updated.Name)

	_, err = users.UpdateUser(ctx, mesto.NewID(), mesto.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, mesto.ErrNotFound)

	_, err = users.CreateUser(ctx, newUser("bob@example.com"))
	require.NoError(t, err)
	list, err = users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, u := range list {
		assert.Empty(t, u.PasswordHash)
	}
}

func testCards(t *testing.T, cards mesto.CardStore) {
	ctx := context.Background()
	owner := mesto.NewID()

	list, err := cards.ListCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	card := &mesto.Card{
		ID:        mesto.NewID(),
		Name:      "Lake",
		Link:      "https://example.com/lake.jpg",
		Owner:     owner,
		Likes:     []mesto.ID{},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	created, err := cards.CreateCard(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, card.ID, created.ID)

	got, err := cards.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, "Lake", got.Name)
	assert.NotNil(t, got.Likes)
	assert.True(t, card.CreatedAt.Equal(got.CreatedAt))

	fan := mesto.NewID()
	liked, err := cards.AddLike(ctx, card.ID, fan)
	require.NoError(t, err)
	liked, err = cards.AddLike(ctx, card.ID, fan)
	require.NoError(t, err)
	assert.Equal(t, []mesto.ID{fan}, liked.Likes)

	unliked, err := cards.RemoveLike(ctx, card.ID, fan)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
	unliked, err = cards.RemoveLike(ctx, card.ID, fan)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)

	_, err = cards.AddLike(ctx, mesto.NewID(), fan)
	assert.ErrorIs(t, err, mesto.ErrNotFound)
	_, err = cards.GetCard(ctx, mesto.NewID())
	assert.ErrorIs(t, err, mesto.ErrNotFound)

	// concurrent likes from different users must all land
	var wg sync.WaitGroup
	likers := make([]mesto.ID, 8)
	for i := range likers {
		likers[i] = mesto.NewID()
		wg.Add(1)
		go func(id mesto.ID) {
			defer wg.Done()
			_, err := cards.AddLike(ctx, card.ID, id)
			assert.NoError(t, err)
		}(likers[i])
	}
	wg.Wait()
	got, err = cards.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, likers, got.Likes)

	second := &mesto.Card{
		ID:        mesto.NewID(),
		Name:      "Hill",
		Link:      "https://example.com/hill.jpg",
		Owner:     owner,
		Likes:     []mesto.ID{},
		CreatedAt: card.CreatedAt.Add(time.Second),
	}
	_, err = cards.CreateCard(ctx, second)
	require.NoError(t, err)
	list, err = cards.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, card.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	require.NoError(t, cards.DeleteCard(ctx, card.ID))
	assert.ErrorIs(t, cards.DeleteCard(ctx, card.ID), mesto.ErrNotFound)
	_, err = cards.GetCard(ctx, card.ID)
	assert.ErrorIs(t, err, mesto.ErrNotFound)
}
