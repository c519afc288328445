package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/panyam/mesto"
)

// CardStore implements mesto.CardStore with one JSON file per card under
// {StoragePath}/cards. Like toggles read, modify and write the file under
// the store mutex.
type CardStore struct {
	StoragePath string

	mu sync.RWMutex
}

func NewCardStore(storagePath string) *CardStore {
	return &CardStore{StoragePath: storagePath}
}

func (s *CardStore) cardPath(id mesto.ID) string {
	return filepath.Join(s.StoragePath, "cards", id.String()+".json")
}

func (s *CardStore) readCard(id mesto.ID) (*mesto.Card, error) {
	var c mesto.Card
	if err := readJSON(s.cardPath(id), &c); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
		}
		return nil, err
	}
	if c.Likes == nil {
		c.Likes = []mesto.ID{}
	}
	return &c, nil
}

func (s *CardStore) CreateCard(ctx context.Context, card *mesto.Card) (*mesto.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if card.ID.IsZero() {
		card.ID = mesto.NewID()
	}
	if card.Likes == nil {
		card.Likes = []mesto.ID{}
	}
	if err := writeJSON(s.cardPath(card.ID), card); err != nil {
		return nil, err
	}
	out := *card
	return &out, nil
}

func (s *CardStore) GetCard(ctx context.Context, id mesto.ID) (*mesto.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readCard(id)
}

func (s *CardStore) ListCards(ctx context.Context) ([]*mesto.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := listJSON(filepath.Join(s.StoragePath, "cards"))
	if err != nil {
		return nil, err
	}
	out := make([]*mesto.Card, 0, len(paths))
	for _, p := range paths {
		var c mesto.Card
		if err := readJSON(p, &c); err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if c.Likes == nil {
			c.Likes = []mesto.ID{}
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *CardStore) DeleteCard(ctx context.Context, id mesto.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.cardPath(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("card %s: %w", id, mesto.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *CardStore) AddLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.modify(cardID, func(c *mesto.Card) bool {
		if c.HasLike(userID) {
			return false
		}
		c.Likes = append(c.Likes, userID)
		return true
	})
}

func (s *CardStore) RemoveLike(ctx context.Context, cardID, userID mesto.ID) (*mesto.Card, error) {
	return s.modify(cardID, func(c *mesto.Card) bool {
		kept := c.Likes[:0]
		for _, l := range c.Likes {
			if l != userID {
				kept = append(kept, l)
			}
		}
		changed := len(kept) != len(c.Likes)
		c.Likes = kept
		return changed
	})
}

// modify applies fn to the stored card and writes it back if fn reports a
// change.
func (s *CardStore) modify(id mesto.ID, fn func(c *mesto.Card) bool) (*mesto.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.readCard(id)
	if err != nil {
		return nil, err
	}
	if fn(c) {
		if err := writeJSON(s.cardPath(id), c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
