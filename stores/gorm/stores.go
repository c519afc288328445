//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/panyam/mesto"
	"github.com/panyam/mesto/stores"
)

// Open connects to PostgreSQL, retrying with backoff for up to budget.
// Driver errors are translated so duplicate keys surface as
// gorm.ErrDuplicatedKey.
func Open(ctx context.Context, log *zap.Logger, dsn string, budget time.Duration) (*gorm.DB, error) {
	return stores.Connect(ctx, log, "postgres", budget, func(ctx context.Context) (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return db, nil
	})
}

// AutoMigrate runs database migrations for all mesto tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&CardModel{},
	)
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements mesto.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *mesto.User) (*mesto.User, error) {
	if user.ID.IsZero() {
		user.ID = mesto.NewID()
	}
	model := UserToModel(user)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email %q: %w", user.Email, mesto.ErrDuplicate)
		}
		return nil, err
	}
	return model.ToUser(false), nil
}

func (s *UserStore) first(ctx context.Context, what string, query string, args ...any) (*UserModel, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", what, mesto.ErrNotFound)
		}
		return nil, err
	}
	return &model, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id mesto.ID) (*mesto.User, error) {
	model, err := s.first(ctx, id.String(), "id = ?", id.String())
	if err != nil {
		return nil, err
	}
	return model.ToUser(false), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*mesto.User, error) {
	model, err := s.first(ctx, fmt.Sprintf("%q", email), "email = ?", email)
	if err != nil {
		return nil, err
	}
	return model.ToUser(true), nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*mesto.User, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*mesto.User, len(models))
	for i := range models {
		out[i] = models[i].ToUser(false)
	}
	return out, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, id mesto.ID, update mesto.ProfileUpdate) (*mesto.User, error) {
	changes := map[string]any{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.About != nil {
		changes["about"] = *update.About
	}
	if update.Avatar != nil {
		changes["avatar"] = *update.Avatar
	}
	if len(changes) > 0 {
		res := s.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id.String()).Updates(changes)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("user %s: %w", id, mesto.ErrNotFound)
		}
	}
	return s.GetUserByID(ctx, id)
}

// =============================================================================
// CardStore
// =============================================================================

// CardStore implements mesto.CardStore using GORM
type CardStore struct {
	db *gorm.DB
}

func NewCardStore(db *gorm.DB) *CardStore {
	return &CardStore{db: db}
}

func (s *CardStore) CreateCard(ctx context.Context, card *mesto.Card) (*mesto.Card, error) {
	if card.ID.IsZero() {
		card.ID = mesto.NewID()
	}
	model := CardToModel(card)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	return model.ToCard(), nil
}

func (s *CardStore) GetCard(ctx context.Context, id mesto.ID) (*mesto.Card, error) {
	var model CardModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
		}
		return nil, err
	}
	return model.ToCard(), nil
}

func (s *CardStore) ListCards(ctx context.Context) ([]*mesto.Card, error) {
	var models []CardModel
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*mesto.Card, len(models))
	for i := range models {
		out[i] = models[i].ToCard()
	}
	return out, nil
}

func (s *CardStore) DeleteCard(ctx context.Context, id mesto.ID) error {
	res := s.db.WithContext(ctx).Delete(&CardModel{}, "id = ?", id.String())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
	}
	return nil
}

func (s *CardStore) AddLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.modify(ctx, cardID, func(m *CardModel) bool {
		for _, l := range m.Likes {
			if l == userID.String() {
				return false
			}
		}
		m.Likes = append(m.Likes, userID.String())
		return true
	})
}

func (s *CardStore) RemoveLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.modify(ctx, cardID, func(m *CardModel) bool {
		kept := make(StringSlice, 0, len(m.Likes))
		for _, l := range m.Likes {
			if l != userID.String() {
				kept = append(kept, l)
			}
		}
		changed := len(kept) != len(m.Likes)
		m.Likes = kept
		return changed
	})
}

// modify locks the card row, applies fn and saves the likes if fn reports a
// change.
func (s *CardStore) modify(ctx context.Context, id mesto.ID, fn func(m *CardModel) bool) (*mesto.Card, error) {
	var model CardModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id.String()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
		} else if err != nil {
			return err
		}
		if !fn(&model) {
			return nil
		}
		return tx.Model(&model).Update("likes", model.Likes).Error
	})
	if err != nil {
		return nil, err
	}
	return model.ToCard(), nil
}
