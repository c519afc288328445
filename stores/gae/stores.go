//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/panyam/mesto"
	"github.com/panyam/mesto/stores"
)

// Kind constants for Datastore entities
const (
	KindUser  = "User"
	KindEmail = "Email"
	KindCard  = "Card"
)

// likeTxAttempts allows for contention on popular cards.
const likeTxAttempts = 10

// Open creates a Datastore client for projectID and checks it can run a
// query, retrying with backoff for up to budget. DATASTORE_EMULATOR_HOST is
// honoured by the client library.
func Open(ctx context.Context, logger *zap.Logger, projectID string, budget time.Duration) (*datastore.Client, error) {
	return stores.Connect(ctx, logger, "datastore", budget, func(ctx context.Context) (*datastore.Client, error) {
		client, err := datastore.NewClient(ctx, projectID)
		if err != nil {
			return nil, err
		}
		probe := datastore.NewQuery(KindUser).KeysOnly().Limit(1)
		if _, err := client.GetAll(ctx, probe, nil); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil
	})
}

type base struct {
	client    *datastore.Client
	namespace string
}

func (s *base) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *base) query(kind string) *datastore.Query {
	q := datastore.NewQuery(kind)
	if s.namespace != "" {
		q = q.Namespace(s.namespace)
	}
	return q
}

// ============================================================================
// UserStore
// ============================================================================

// UserStore implements mesto.UserStore using Google Cloud Datastore
type UserStore struct {
	base
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{base{client: client, namespace: namespace}}
}

func (s *UserStore) CreateUser(ctx context.Context, user *mesto.User) (*mesto.User, error) {
	if user.ID.IsZero() {
		user.ID = mesto.NewID()
	}
	userKey := s.namespacedKey(KindUser, user.ID.String())
	emailKey := s.namespacedKey(KindEmail, user.Email)
	now := time.Now().UTC()
	entity := &UserEntity{
		Key:          userKey,
		Name:         user.Name,
		About:        user.About,
		Avatar:       user.Avatar,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing EmailEntity
		err := tx.Get(emailKey, &existing)
		if err == nil {
			return fmt.Errorf("email %q: %w", user.Email, mesto.ErrDuplicate)
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		if _, err := tx.Put(emailKey, &EmailEntity{Key: emailKey, UserID: user.ID.String(), CreatedAt: now}); err != nil {
			return err
		}
		_, err = tx.Put(userKey, entity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity.ToUser(false), nil
}

func (s *UserStore) get(ctx context.Context, id mesto.ID) (*UserEntity, error) {
	var entity UserEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindUser, id.String()), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, fmt.Errorf("user %s: %w", id, mesto.ErrNotFound)
		}
		return nil, err
	}
	return &entity, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id mesto.ID) (*mesto.User, error) {
	entity, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return entity.ToUser(false), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*mesto.User, error) {
	var reservation EmailEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindEmail, email), &reservation); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, fmt.Errorf("email %q: %w", email, mesto.ErrNotFound)
		}
		return nil, err
	}
	entity, err := s.get(ctx, mesto.ID(reservation.UserID))
	if err != nil {
		return nil, err
	}
	return entity.ToUser(true), nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*mesto.User, error) {
	var users []*mesto.User
	it := s.client.Run(ctx, s.query(KindUser).Order("created_at"))
	for {
		var entity UserEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		users = append(users, entity.ToUser(false))
	}
	return users, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, id mesto.ID, update mesto.ProfileUpdate) (*mesto.User, error) {
	key := s.namespacedKey(KindUser, id.String())
	var entity UserEntity
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return fmt.Errorf("user %s: %w", id, mesto.ErrNotFound)
			}
			return err
		}
		if update.Name != nil {
			entity.Name = *update.Name
		}
		if update.About != nil {
			entity.About = *update.About
		}
		if update.Avatar != nil {
			entity.Avatar = *update.Avatar
		}
		entity.UpdatedAt = time.Now().UTC()
		_, err := tx.Put(key, &entity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity.ToUser(false), nil
}

// ============================================================================
// CardStore
// ============================================================================

// CardStore implements mesto.CardStore using Google Cloud Datastore
type CardStore struct {
	base
}

// NewCardStore creates a new Datastore-backed CardStore
func NewCardStore(client *datastore.Client, namespace string) *CardStore {
	return &CardStore{base{client: client, namespace: namespace}}
}

func (s *CardStore) CreateCard(ctx context.Context, card *mesto.Card) (*mesto.Card, error) {
	if card.ID.IsZero() {
		card.ID = mesto.NewID()
	}
	key := s.namespacedKey(KindCard, card.ID.String())
	entity := CardToEntity(card, key)
	if _, err := s.client.Put(ctx, key, entity); err != nil {
		return nil, err
	}
	return entity.ToCard(), nil
}

func (s *CardStore) GetCard(ctx context.Context, id mesto.ID) (*mesto.Card, error) {
	var entity CardEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindCard, id.String()), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
		}
		return nil, err
	}
	return entity.ToCard(), nil
}

func (s *CardStore) ListCards(ctx context.Context) ([]*mesto.Card, error) {
	var cards []*mesto.Card
	it := s.client.Run(ctx, s.query(KindCard).Order("created_at"))
	for {
		var entity CardEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		cards = append(cards, entity.ToCard())
	}
	return cards, nil
}

func (s *CardStore) DeleteCard(ctx context.Context, id mesto.ID) error {
	key := s.namespacedKey(KindCard, id.String())
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity CardEntity
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
			}
			return err
		}
		return tx.Delete(key)
	})
	return err
}

func (s *CardStore) AddLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.modify(ctx, cardID, func(e *CardEntity) bool {
		for _, l := range e.Likes {
			if l == userID.String() {
				return false
			}
		}
		e.Likes = append(e.Likes, userID.String())
		return true
	})
}

func (s *CardStore) RemoveLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.modify(ctx, cardID, func(e *CardEntity) bool {
		kept := make([]string, 0, len(e.Likes))
		for _, l := range e.Likes {
			if l != userID.String() {
				kept = append(kept, l)
			}
		}
		changed := len(kept) != len(e.Likes)
		e.Likes = kept
		return changed
	})
}

func (s *CardStore) modify(ctx context.Context, id mesto.ID, fn func(e *CardEntity) bool) (*mesto.Card, error) {
	key := s.namespacedKey(KindCard, id.String())
	var entity CardEntity
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		// the transaction may be retried; start from a clean entity
		entity = CardEntity{}
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
			}
			return err
		}
		if !fn(&entity) {
			return nil
		}
		_, err := tx.Put(key, &entity)
		return err
	}, datastore.MaxAttempts(likeTxAttempts))
	if err != nil {
		return nil, err
	}
	return entity.ToCard(), nil
}
